package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first problem found in each section,
// aggregated into a single message.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Arbitration.MaxConcurrentSessions <= 0 {
		problems = append(problems, "arbitration.max_concurrent_sessions must be positive")
	}
	if cfg.Arbitration.HighConfidenceThreshold < 0 || cfg.Arbitration.HighConfidenceThreshold > 1 {
		problems = append(problems, "arbitration.high_confidence_threshold must be in [0,1]")
	}

	if cfg.Waivers.MinJustificationLength < 0 {
		problems = append(problems, "waivers.min_justification_length cannot be negative")
	}
	if cfg.Waivers.MinEvidenceForApproval < 0 {
		problems = append(problems, "waivers.min_evidence_for_approval cannot be negative")
	}
	if cfg.Waivers.MaxWaiverDuration <= 0 {
		problems = append(problems, "waivers.max_waiver_duration must be positive")
	}

	if cfg.Appeals.MaxAppealLevels < 1 {
		problems = append(problems, "appeals.max_appeal_levels must be at least 1")
	}
	if cfg.Appeals.MinEvidenceForAppeal < 0 {
		problems = append(problems, "appeals.min_evidence_for_appeal cannot be negative")
	}
	if cfg.Appeals.MinGroundsLength < 0 {
		problems = append(problems, "appeals.min_grounds_length cannot be negative")
	}

	if cfg.Matcher.MinSimilarityThreshold < 0 || cfg.Matcher.MinSimilarityThreshold > 1 {
		problems = append(problems, "matcher.min_similarity_threshold must be in [0,1]")
	}
	if cfg.Matcher.MaxResults <= 0 {
		problems = append(problems, "matcher.max_results must be positive")
	}
	if err := validateWeights(cfg.Matcher.Weights); err != nil {
		problems = append(problems, err.Error())
	}

	switch cfg.Precedents.Backend {
	case "memory":
	case "sqlite":
		if cfg.Precedents.DBPath == "" {
			problems = append(problems, "precedents.db_path required for sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("precedents.backend must be %q or %q, got %q", "memory", "sqlite", cfg.Precedents.Backend))
	}

	switch cfg.Audit.Backend {
	case "memory":
	case "sqlite":
		if cfg.Audit.DBPath == "" {
			problems = append(problems, "audit.db_path required for sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("audit.backend must be %q or %q, got %q", "memory", "sqlite", cfg.Audit.Backend))
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.logging.level must be one of debug/info/warn/error, got %q", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.logging.format must be %q or %q, got %q", "json", "text", cfg.Telemetry.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateWeights(w MatcherWeights) error {
	weights := []struct {
		name  string
		value float64
	}{
		{"entity", w.Entity},
		{"intent", w.Intent},
		{"semantic", w.Semantic},
		{"category", w.Category},
		{"severity", w.Severity},
		{"conditions", w.Conditions},
	}

	total := 0.0
	for _, weight := range weights {
		if weight.value < 0 {
			return fmt.Errorf("matcher.weights.%s cannot be negative", weight.name)
		}
		total += weight.value
	}
	if total == 0 {
		return fmt.Errorf("matcher.weights must not all be zero")
	}
	return nil
}
