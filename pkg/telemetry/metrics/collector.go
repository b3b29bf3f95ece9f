// Package metrics exposes Prometheus metrics for arbitration activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/themis/pkg/config"
)

// Collector manages metric registration and provides a unified interface
// for recording arbitration metrics across all components.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Session lifecycle
	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	sessionsRejected prometheus.Counter
	sessionDuration  prometheus.Histogram

	// Decisions
	verdictsTotal   *prometheus.CounterVec
	waiversTotal    *prometheus.CounterVec
	appealsTotal    *prometheus.CounterVec
	ruleEvaluations *prometheus.CounterVec

	// Precedent matching
	precedentQueries   prometheus.Counter
	precedentFallbacks prometheus.Counter
	matchDuration      prometheus.Histogram
}

// NewCollector creates a metrics collector registered against the given
// registry. If registry is nil a fresh one is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "themis"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "engine"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sessions_started_total",
			Help:      "Total number of arbitration sessions started",
		}),

		sessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sessions_finished_total",
			Help:      "Total number of sessions reaching a terminal state",
		}, []string{"state"}),

		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sessions_active",
			Help:      "Number of currently active arbitration sessions",
		}),

		sessionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sessions_rejected_total",
			Help:      "Sessions rejected at admission by the concurrency cap",
		}),

		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of completed sessions",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
		}),

		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "verdicts_total",
			Help:      "Total verdicts issued by outcome",
		}, []string{"outcome"}),

		waiversTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "waiver_decisions_total",
			Help:      "Total waiver decisions by status",
		}, []string{"status"}),

		appealsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "appeal_decisions_total",
			Help:      "Total appeal review decisions by outcome",
		}, []string{"decision"}),

		ruleEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rule_evaluations_total",
			Help:      "Total per-rule evaluations by result",
		}, []string{"result"}),

		precedentQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "precedent_queries_total",
			Help:      "Total precedent similarity queries",
		}),

		precedentFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "precedent_fallbacks_total",
			Help:      "Precedent queries that degraded to rule-based matching",
		}),

		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "precedent_match_duration_seconds",
			Help:      "Duration of precedent similarity queries",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
		}),
	}

	registry.MustRegister(
		c.sessionsStarted,
		c.sessionsFinished,
		c.sessionsActive,
		c.sessionsRejected,
		c.sessionDuration,
		c.verdictsTotal,
		c.waiversTotal,
		c.appealsTotal,
		c.ruleEvaluations,
		c.precedentQueries,
		c.precedentFallbacks,
		c.matchDuration,
	)

	return c
}

// RecordSessionStarted records a session admission.
func (c *Collector) RecordSessionStarted() {
	if !c.config.Enabled {
		return
	}
	c.sessionsStarted.Inc()
	c.sessionsActive.Inc()
}

// RecordSessionRejected records an admission rejected by the cap.
func (c *Collector) RecordSessionRejected() {
	if !c.config.Enabled {
		return
	}
	c.sessionsRejected.Inc()
}

// RecordSessionFinished records a session reaching a terminal state.
func (c *Collector) RecordSessionFinished(state string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.sessionsFinished.WithLabelValues(state).Inc()
	c.sessionsActive.Dec()
	c.sessionDuration.Observe(duration.Seconds())
}

// RecordVerdict records an issued verdict.
func (c *Collector) RecordVerdict(outcome string) {
	if !c.config.Enabled {
		return
	}
	c.verdictsTotal.WithLabelValues(outcome).Inc()
}

// RecordWaiverDecision records a waiver decision.
func (c *Collector) RecordWaiverDecision(status string) {
	if !c.config.Enabled {
		return
	}
	c.waiversTotal.WithLabelValues(status).Inc()
}

// RecordAppealDecision records an appeal review outcome.
func (c *Collector) RecordAppealDecision(decision string) {
	if !c.config.Enabled {
		return
	}
	c.appealsTotal.WithLabelValues(decision).Inc()
}

// RecordRuleEvaluation records one per-rule evaluation result
// ("matched", "unmatched", "error").
func (c *Collector) RecordRuleEvaluation(result string) {
	if !c.config.Enabled {
		return
	}
	c.ruleEvaluations.WithLabelValues(result).Inc()
}

// RecordPrecedentQuery records a similarity query and whether it fell
// back to rule-based matching.
func (c *Collector) RecordPrecedentQuery(duration time.Duration, fallback bool) {
	if !c.config.Enabled {
		return
	}
	c.precedentQueries.Inc()
	c.matchDuration.Observe(duration.Seconds())
	if fallback {
		c.precedentFallbacks.Inc()
	}
}

// Registry returns the Prometheus registry used by this collector.
// Serve it with promhttp.HandlerFor for the /metrics endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
