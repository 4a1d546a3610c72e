// Package config provides configuration management for Polaris.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention POLARIS_SECTION_FIELD.
// For example:
//
//   - POLARIS_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - POLARIS_ORACLE_API_KEY overrides oracle.api_key
//   - POLARIS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Loading
//
// Load once at startup and hand the instance to the components that
// need it:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.ListenAddress)
//
// There is no package-level configuration state; components receive an
// explicit *Config.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., sqlite storage paths)
//   - Range validation (e.g., pipeline concurrency must be at least 1)
//   - Format validation (e.g., valid oracle URL, valid cron schedule)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - storage.rules.path: path is required for sqlite backend
//	  - pipeline.schedule: invalid cron expression "every day"
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8090"
//
//	registry:
//	  seed_file: "./sources.yaml"
//	  watch: true
//
//	oracle:
//	  base_url: "https://api.deepseek.com/v1"
//	  api_key: "${DEEPSEEK_API_KEY}"
//
//	pipeline:
//	  schedule: "0 */6 * * *"
//	  concurrency: 4
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
package config
