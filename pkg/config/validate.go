package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateFetcher(&cfg.Fetcher)...)
	errs = append(errs, validateOracle(&cfg.Oracle)...)
	errs = append(errs, validatePipeline(&cfg.Pipeline)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

func validateFetcher(cfg *FetcherConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "fetcher.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "fetcher.max_retries",
			Message: "max retries must be non-negative",
		})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "fetcher.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	return errs
}

func validateOracle(cfg *OracleConfig) []FieldError {
	var errs []FieldError

	// Oracle is optional: without a base URL the extractor and evaluator
	// run in deterministic-only mode.
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "oracle.base_url",
				Message: fmt.Sprintf("invalid URL: %q", cfg.BaseURL),
			})
		}
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "oracle.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "oracle.max_retries",
			Message: "max retries must be non-negative",
		})
	}

	return errs
}

func validatePipeline(cfg *PipelineConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "pipeline.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "pipeline.concurrency",
			Message: "concurrency must be at least 1",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError
	errs = append(errs, validateBackend("storage.rules", &cfg.Rules)...)
	errs = append(errs, validateBackend("storage.registry", &cfg.Registry)...)
	return errs
}

func validateBackend(field string, cfg *BackendConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   field + ".path",
				Message: "path is required for sqlite backend",
			})
		}
	case "memory":
		// No further settings.
	default:
		errs = append(errs, FieldError{
			Field:   field + ".backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"sqlite\" or \"memory\")", cfg.Backend),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}
