package config

import "time"

// DefaultConfig returns a configuration populated with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	seedEnabledDefaults(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any unset fields.
// Boolean options that default to true are handled in LoadConfig, which
// pre-seeds them before unmarshalling so an explicit "false" survives.
func ApplyDefaults(cfg *Config) {
	if cfg.Arbitration.MaxConcurrentSessions == 0 {
		cfg.Arbitration.MaxConcurrentSessions = 100
	}
	if cfg.Arbitration.HighConfidenceThreshold == 0 {
		cfg.Arbitration.HighConfidenceThreshold = 0.85
	}

	if cfg.Waivers.MinJustificationLength == 0 {
		cfg.Waivers.MinJustificationLength = 20
	}
	if cfg.Waivers.MinEvidenceForApproval == 0 {
		cfg.Waivers.MinEvidenceForApproval = 1
	}
	if cfg.Waivers.MaxWaiverDuration == 0 {
		cfg.Waivers.MaxWaiverDuration = 720 * time.Hour
	}

	if cfg.Appeals.MaxAppealLevels == 0 {
		cfg.Appeals.MaxAppealLevels = 3
	}
	if cfg.Appeals.MinEvidenceForAppeal == 0 {
		cfg.Appeals.MinEvidenceForAppeal = 1
	}
	if cfg.Appeals.MinGroundsLength == 0 {
		cfg.Appeals.MinGroundsLength = 20
	}

	if cfg.Matcher.MinSimilarityThreshold == 0 {
		cfg.Matcher.MinSimilarityThreshold = 0.3
	}
	if cfg.Matcher.MaxResults == 0 {
		cfg.Matcher.MaxResults = 10
	}
	if cfg.Matcher.Weights == (MatcherWeights{}) {
		cfg.Matcher.Weights = DefaultMatcherWeights()
	}

	if cfg.Constitution.DebounceInterval == 0 {
		cfg.Constitution.DebounceInterval = 100 * time.Millisecond
	}

	if cfg.Precedents.Backend == "" {
		cfg.Precedents.Backend = "memory"
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "memory"
	}
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = 1000
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = 5 * time.Second
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "themis"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "engine"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:9464"
	}
}

// DefaultMatcherWeights returns the default per-signal matcher weights.
func DefaultMatcherWeights() MatcherWeights {
	return MatcherWeights{
		Entity:     0.2,
		Intent:     0.2,
		Semantic:   0.3,
		Category:   0.1,
		Severity:   0.1,
		Conditions: 0.1,
	}
}

// seedEnabledDefaults sets boolean fields whose default is true. It runs
// before unmarshalling so YAML can still disable them explicitly.
func seedEnabledDefaults(cfg *Config) {
	cfg.Arbitration.EnableWaivers = true
	cfg.Arbitration.EnableAppeals = true
	cfg.Waivers.AllowConditionalWaivers = true
	cfg.Waivers.AutoRevokeOnExpiration = true
	cfg.Matcher.EnableFallback = true
	cfg.Audit.Enabled = true
	cfg.Telemetry.Metrics.Enabled = true
}
