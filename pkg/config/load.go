package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It seeds enabled-by-default booleans, applies default values, validates
// the result, and returns any errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{}
	seedEnabledDefaults(cfg)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// THEMIS_SECTION_FIELD (e.g., THEMIS_ARBITRATION_MAX_CONCURRENT_SESSIONS) and
// always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{}
	seedEnabledDefaults(cfg)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides for the most
// commonly tuned fields.
func applyEnvOverrides(cfg *Config) error {
	if err := envInt("THEMIS_ARBITRATION_MAX_CONCURRENT_SESSIONS", &cfg.Arbitration.MaxConcurrentSessions); err != nil {
		return err
	}
	if err := envFloat("THEMIS_ARBITRATION_HIGH_CONFIDENCE_THRESHOLD", &cfg.Arbitration.HighConfidenceThreshold); err != nil {
		return err
	}
	if err := envBool("THEMIS_ARBITRATION_ENABLE_WAIVERS", &cfg.Arbitration.EnableWaivers); err != nil {
		return err
	}
	if err := envBool("THEMIS_ARBITRATION_ENABLE_APPEALS", &cfg.Arbitration.EnableAppeals); err != nil {
		return err
	}
	if err := envDuration("THEMIS_WAIVERS_MAX_WAIVER_DURATION", &cfg.Waivers.MaxWaiverDuration); err != nil {
		return err
	}
	if err := envBool("THEMIS_WAIVERS_AUTO_REVOKE_ON_EXPIRATION", &cfg.Waivers.AutoRevokeOnExpiration); err != nil {
		return err
	}
	if err := envInt("THEMIS_APPEALS_MAX_APPEAL_LEVELS", &cfg.Appeals.MaxAppealLevels); err != nil {
		return err
	}
	if err := envBool("THEMIS_APPEALS_REQUIRE_UNANIMOUS", &cfg.Appeals.RequireUnanimous); err != nil {
		return err
	}
	if err := envFloat("THEMIS_MATCHER_MIN_SIMILARITY_THRESHOLD", &cfg.Matcher.MinSimilarityThreshold); err != nil {
		return err
	}
	if err := envInt("THEMIS_MATCHER_MAX_RESULTS", &cfg.Matcher.MaxResults); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("THEMIS_CONSTITUTION_PATH"); ok {
		cfg.Constitution.Path = v
	}
	if v, ok := os.LookupEnv("THEMIS_TELEMETRY_LOGGING_LEVEL"); ok {
		cfg.Telemetry.Logging.Level = v
	}
	return nil
}

func envInt(key string, target *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, v)
	}
	*target = parsed
	return nil
}

func envFloat(key string, target *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, v)
	}
	*target = parsed
	return nil
}

func envBool(key string, target *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, v)
	}
	*target = parsed
	return nil
}

func envDuration(key string, target *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, v)
	}
	*target = parsed
	return nil
}
