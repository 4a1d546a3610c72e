package config

import "time"

// Config is the root configuration structure for Polaris.
// It contains all configuration sections for the HTTP server, source
// registry, fetcher, extraction oracle, pipeline scheduling, storage
// backends, and telemetry.
type Config struct {
	// Server contains HTTP API server configuration including listen
	// address, timeouts, and header limits.
	Server ServerConfig `yaml:"server"`

	// Registry contains configuration for the source registry including
	// the seed file location and hot-reload settings.
	Registry RegistryConfig `yaml:"registry"`

	// Fetcher contains configuration for fetching source documents
	// including timeouts, retries, and body size limits.
	Fetcher FetcherConfig `yaml:"fetcher"`

	// Oracle contains configuration for the LLM extraction and judgment
	// backend (base URL, model, credentials).
	Oracle OracleConfig `yaml:"oracle"`

	// Pipeline contains configuration for the scheduled fetch/extract
	// pipeline including the cron schedule and worker concurrency.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Storage contains configuration for the rule store and registry
	// store backends.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8090", "0.0.0.0:8090").
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// RegistryConfig contains configuration for the source registry.
type RegistryConfig struct {
	// SeedFile is the path to a YAML file holding the initial set of
	// sources. Sources declared there are upserted into the registry
	// store at startup.
	// Default: "./sources.yaml"
	SeedFile string `yaml:"seed_file"`

	// Watch enables automatic reloading when the seed file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DefaultFetchInterval is applied to seeded sources that do not
	// declare their own interval.
	// Default: 24h
	DefaultFetchInterval time.Duration `yaml:"default_fetch_interval"`
}

// FetcherConfig contains configuration for the document fetcher.
type FetcherConfig struct {
	// Timeout is the maximum duration for a single fetch attempt.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of retry attempts for retryable
	// fetch failures (timeouts, 5xx responses).
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// RetryBaseDelay is the initial backoff delay between retries.
	// The delay doubles after each attempt.
	// Default: 1s
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`

	// MaxBodyBytes limits the size of a fetched document body.
	// Default: 5242880 (5MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// UserAgent is sent on outbound fetch requests.
	// Default: "polaris-fetcher/1.0"
	UserAgent string `yaml:"user_agent"`
}

// OracleConfig contains configuration for the LLM oracle backend used
// for rule extraction and document judgment.
type OracleConfig struct {
	// BaseURL is the base URL for the oracle's chat completions API.
	// Example: "https://api.deepseek.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the oracle backend.
	// This should typically be loaded from an environment variable.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier requested from the backend.
	// Default: "deepseek-chat"
	Model string `yaml:"model"`

	// Timeout is the maximum duration for an oracle call.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of retry attempts for failed
	// oracle calls.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// Temperature controls sampling randomness. Extraction prefers
	// deterministic output.
	// Default: 0.1
	Temperature float64 `yaml:"temperature"`
}

// PipelineConfig contains configuration for the scheduled pipeline.
type PipelineConfig struct {
	// Enabled controls whether the scheduler runs at all. When false,
	// fetch and extract runs happen only on demand (CLI or API).
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for the due-source scan.
	// Default: "0 */6 * * *" (every six hours)
	Schedule string `yaml:"schedule"`

	// Concurrency limits the number of sources processed in parallel
	// during a single run.
	// Default: 4
	Concurrency int `yaml:"concurrency"`
}

// StorageConfig contains configuration for persistence backends.
type StorageConfig struct {
	// Rules configures the versioned rule store.
	Rules BackendConfig `yaml:"rules"`

	// Registry configures the source and snapshot store.
	Registry BackendConfig `yaml:"registry"`
}

// BackendConfig selects and configures a single storage backend.
type BackendConfig struct {
	// Backend selects the storage implementation.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path when Backend is "sqlite".
	Path string `yaml:"path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// Output is the log destination.
	// Options: "stdout", "stderr", or a file path.
	// Default: "stdout"
	Output string `yaml:"output"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path where metrics are exposed.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus namespace prefix for all metrics.
	// Default: "lumina"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus subsystem for all metrics.
	// Default: "polaris"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are the histogram buckets, in seconds, used for
	// fetch, extraction, and oracle call durations.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}
