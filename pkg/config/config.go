package config

import "time"

// Config is the root configuration structure for Themis.
// It contains all configuration sections for the arbitration engine,
// waiver and appeal lifecycles, precedent matching, constitution loading,
// audit recording, and telemetry.
type Config struct {
	// Arbitration contains configuration for the arbitration orchestrator,
	// including the concurrent-session admission limit and verdict settings.
	Arbitration ArbitrationConfig `yaml:"arbitration"`

	// Waivers contains configuration for the waiver interpreter.
	Waivers WaiverConfig `yaml:"waivers"`

	// Appeals contains configuration for the appeal arbitrator.
	Appeals AppealConfig `yaml:"appeals"`

	// Matcher contains configuration for the precedent matcher, including
	// similarity thresholds and per-signal weights.
	Matcher MatcherConfig `yaml:"matcher"`

	// Constitution contains configuration for loading and watching the
	// constitutional rule file.
	Constitution ConstitutionConfig `yaml:"constitution"`

	// Precedents contains configuration for the precedent store backend.
	Precedents PrecedentConfig `yaml:"precedents"`

	// Audit contains configuration for the audit event recorder.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ArbitrationConfig contains configuration for the arbitration orchestrator.
type ArbitrationConfig struct {
	// MaxConcurrentSessions is the maximum number of sessions that may be
	// active (non-terminal) at the same time. StartSession rejects new
	// sessions once this limit is reached.
	// Default: 100
	MaxConcurrentSessions int `yaml:"max_concurrent_sessions"`

	// HighConfidenceThreshold is the verdict confidence above which a
	// verdict is promoted to a precedent.
	// Default: 0.85
	HighConfidenceThreshold float64 `yaml:"high_confidence_threshold"`

	// EnableWaivers enables the waiver sub-lifecycle on sessions.
	// Default: true
	EnableWaivers bool `yaml:"enable_waivers"`

	// EnableAppeals enables the appeal sub-lifecycle on sessions.
	// Default: true
	EnableAppeals bool `yaml:"enable_appeals"`
}

// WaiverConfig contains configuration for the waiver interpreter.
type WaiverConfig struct {
	// MinJustificationLength is the minimum number of characters required
	// in a waiver justification.
	// Default: 20
	MinJustificationLength int `yaml:"min_justification_length"`

	// MinEvidenceForApproval is the minimum number of evidence items
	// required for an unconditional approval.
	// Default: 1
	MinEvidenceForApproval int `yaml:"min_evidence_for_approval"`

	// AllowConditionalWaivers permits approval with supplemental-evidence
	// conditions when the evidence count is below MinEvidenceForApproval.
	// Default: true
	AllowConditionalWaivers bool `yaml:"allow_conditional_waivers"`

	// MaxWaiverDuration is the longest exemption the interpreter will
	// grant. Requests above it are approved at this duration instead.
	// Default: 720h (30 days)
	MaxWaiverDuration time.Duration `yaml:"max_waiver_duration"`

	// AutoRevokeOnExpiration removes expired waivers from the active index
	// on the first access after expiry.
	// Default: true
	AutoRevokeOnExpiration bool `yaml:"auto_revoke_on_expiration"`

	// SweepSchedule is an optional cron expression for background cleanup
	// of expired waivers (e.g., "0 * * * *" for hourly). Lazy expiry on
	// access is always in effect; the sweep is housekeeping only.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// AppealConfig contains configuration for the appeal arbitrator.
type AppealConfig struct {
	// MaxAppealLevels is the highest escalation level an appeal may reach.
	// Default: 3
	MaxAppealLevels int `yaml:"max_appeal_levels"`

	// MinEvidenceForAppeal is the minimum number of new evidence items
	// required to submit an appeal.
	// Default: 1
	MinEvidenceForAppeal int `yaml:"min_evidence_for_appeal"`

	// MinGroundsLength is the minimum number of characters required in
	// appeal grounds.
	// Default: 20
	MinGroundsLength int `yaml:"min_grounds_length"`

	// RequireUnanimous raises the overturn bar so that a larger reviewer
	// panel and stronger grounds are needed to overturn a verdict.
	// Default: false
	RequireUnanimous bool `yaml:"require_unanimous"`
}

// MatcherConfig contains configuration for the precedent matcher.
type MatcherConfig struct {
	// MinSimilarityThreshold drops matches scoring below this value.
	// Default: 0.3
	MinSimilarityThreshold float64 `yaml:"min_similarity_threshold"`

	// MaxResults truncates the ranked match list to this many entries.
	// Default: 10
	MaxResults int `yaml:"max_results"`

	// EnableFallback degrades the matcher to rule-based overlap scoring
	// when the ML pipeline fails, instead of failing the call.
	// Default: true
	EnableFallback bool `yaml:"enable_fallback"`

	// Weights are the per-signal weights for the overall match score.
	// They are normalized at use, so they need not sum to 1.
	Weights MatcherWeights `yaml:"weights"`
}

// MatcherWeights contains the per-signal weights used when combining
// similarity factors into an overall match score.
type MatcherWeights struct {
	// Entity weighs typed-entity overlap between context and key facts.
	// Default: 0.2
	Entity float64 `yaml:"entity"`

	// Intent weighs intent-classification agreement.
	// Default: 0.2
	Intent float64 `yaml:"intent"`

	// Semantic weighs semantic similarity of context text against the
	// precedent's reasoning summary and key facts.
	// Default: 0.3
	Semantic float64 `yaml:"semantic"`

	// Category weighs rule-category equality.
	// Default: 0.1
	Category float64 `yaml:"category"`

	// Severity weighs severity proximity.
	// Default: 0.1
	Severity float64 `yaml:"severity"`

	// Conditions weighs condition-set intersection.
	// Default: 0.1
	Conditions float64 `yaml:"conditions"`
}

// ConstitutionConfig contains configuration for rule loading.
type ConstitutionConfig struct {
	// Path is the YAML file containing the constitutional rules.
	Path string `yaml:"path"`

	// Watch reloads the rule registry when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period after a file event before a
	// reload is triggered.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// PrecedentConfig contains configuration for the precedent store.
type PrecedentConfig struct {
	// Backend selects the store implementation: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database file path (sqlite backend only).
	DBPath string `yaml:"db_path"`
}

// AuditConfig contains configuration for the audit recorder.
type AuditConfig struct {
	// Enabled enables audit event recording.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the sink implementation: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database file path (sqlite backend only).
	DBPath string `yaml:"db_path"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing an event to the sink.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled enables metric collection.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "themis"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is the address for the metrics HTTP endpoint.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`
}
