package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Registry defaults
	DefaultRegistrySeedFile      = "./sources.yaml"
	DefaultRegistryWatch         = false
	DefaultRegistryFetchInterval = 24 * time.Hour

	// Fetcher defaults
	DefaultFetcherTimeout        = 30 * time.Second
	DefaultFetcherMaxRetries     = 3
	DefaultFetcherRetryBaseDelay = 1 * time.Second
	DefaultFetcherMaxBodyBytes   = int64(5 * 1024 * 1024)
	DefaultFetcherUserAgent      = "polaris-fetcher/1.0"

	// Oracle defaults
	DefaultOracleModel       = "deepseek-chat"
	DefaultOracleTimeout     = 60 * time.Second
	DefaultOracleMaxRetries  = 2
	DefaultOracleTemperature = 0.1

	// Pipeline defaults
	DefaultPipelineEnabled     = true
	DefaultPipelineSchedule    = "0 */6 * * *"
	DefaultPipelineConcurrency = 4

	// Storage defaults
	DefaultStorageBackend      = "sqlite"
	DefaultRulesStorePath      = "data/rules.db"
	DefaultRegistryStorePath   = "data/registry.db"

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultLoggingOutput  = "stdout"
	DefaultMetricsEnabled = true
	DefaultPrometheusPath = "/metrics"
	DefaultNamespace      = "lumina"
	DefaultSubsystem      = "polaris"
)

// DefaultConfig returns a configuration populated with all default values.
// This is useful for generating example configuration files or running
// with sensible defaults when no config file is present.
func DefaultConfig() *Config {
	// Boolean fields that default to true must be pre-set; ApplyDefaults
	// cannot tell a deliberate false from a zero value.
	cfg := &Config{
		Pipeline:  PipelineConfig{Enabled: DefaultPipelineEnabled},
		Telemetry: TelemetryConfig{Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled}},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued configuration
// fields. It is called automatically by LoadConfig after parsing.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyRegistryDefaults(&cfg.Registry)
	applyFetcherDefaults(&cfg.Fetcher)
	applyOracleDefaults(&cfg.Oracle)
	applyPipelineDefaults(&cfg.Pipeline)
	applyStorageDefaults(&cfg.Storage)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
}

func applyRegistryDefaults(cfg *RegistryConfig) {
	if cfg.SeedFile == "" {
		cfg.SeedFile = DefaultRegistrySeedFile
	}
	if cfg.DefaultFetchInterval == 0 {
		cfg.DefaultFetchInterval = DefaultRegistryFetchInterval
	}
}

func applyFetcherDefaults(cfg *FetcherConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultFetcherTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultFetcherMaxRetries
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = DefaultFetcherRetryBaseDelay
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultFetcherMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultFetcherUserAgent
	}
}

func applyOracleDefaults(cfg *OracleConfig) {
	if cfg.Model == "" {
		cfg.Model = DefaultOracleModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOracleTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultOracleMaxRetries
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultOracleTemperature
	}
}

func applyPipelineDefaults(cfg *PipelineConfig) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultPipelineSchedule
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultPipelineConcurrency
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Rules.Backend == "" {
		cfg.Rules.Backend = DefaultStorageBackend
	}
	if cfg.Rules.Backend == "sqlite" && cfg.Rules.Path == "" {
		cfg.Rules.Path = DefaultRulesStorePath
	}
	if cfg.Registry.Backend == "" {
		cfg.Registry.Backend = DefaultStorageBackend
	}
	if cfg.Registry.Backend == "sqlite" && cfg.Registry.Path == "" {
		cfg.Registry.Path = DefaultRegistryStorePath
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLoggingOutput
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultSubsystem
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}
}
