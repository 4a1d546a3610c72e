package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Boolean fields that default to true must be pre-set so an absent
	// key keeps the default while an explicit false wins.
	cfg := Config{
		Pipeline:  PipelineConfig{Enabled: DefaultPipelineEnabled},
		Telemetry: TelemetryConfig{Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled}},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention POLARIS_SECTION_FIELD (e.g., POLARIS_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format POLARIS_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("POLARIS_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("POLARIS_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("POLARIS_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("POLARIS_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}

	// Registry overrides
	if val := os.Getenv("POLARIS_REGISTRY_SEED_FILE"); val != "" {
		cfg.Registry.SeedFile = val
	}
	if val := os.Getenv("POLARIS_REGISTRY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Registry.Watch = b
		}
	}

	// Fetcher overrides
	if val := os.Getenv("POLARIS_FETCHER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Fetcher.Timeout = d
		}
	}
	if val := os.Getenv("POLARIS_FETCHER_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Fetcher.MaxRetries = i
		}
	}
	if val := os.Getenv("POLARIS_FETCHER_USER_AGENT"); val != "" {
		cfg.Fetcher.UserAgent = val
	}

	// Oracle overrides
	if val := os.Getenv("POLARIS_ORACLE_BASE_URL"); val != "" {
		cfg.Oracle.BaseURL = val
	}
	if val := os.Getenv("POLARIS_ORACLE_API_KEY"); val != "" {
		cfg.Oracle.APIKey = val
	}
	if val := os.Getenv("POLARIS_ORACLE_MODEL"); val != "" {
		cfg.Oracle.Model = val
	}
	if val := os.Getenv("POLARIS_ORACLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Oracle.Timeout = d
		}
	}

	// Pipeline overrides
	if val := os.Getenv("POLARIS_PIPELINE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Pipeline.Enabled = b
		}
	}
	if val := os.Getenv("POLARIS_PIPELINE_SCHEDULE"); val != "" {
		cfg.Pipeline.Schedule = val
	}
	if val := os.Getenv("POLARIS_PIPELINE_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Pipeline.Concurrency = i
		}
	}

	// Storage overrides
	if val := os.Getenv("POLARIS_STORAGE_RULES_BACKEND"); val != "" {
		cfg.Storage.Rules.Backend = val
	}
	if val := os.Getenv("POLARIS_STORAGE_RULES_PATH"); val != "" {
		cfg.Storage.Rules.Path = val
	}
	if val := os.Getenv("POLARIS_STORAGE_REGISTRY_BACKEND"); val != "" {
		cfg.Storage.Registry.Backend = val
	}
	if val := os.Getenv("POLARIS_STORAGE_REGISTRY_PATH"); val != "" {
		cfg.Storage.Registry.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("POLARIS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("POLARIS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("POLARIS_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("POLARIS_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
