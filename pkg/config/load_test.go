package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 10s

registry:
  seed_file: "/etc/polaris/sources.yaml"
  watch: true

oracle:
  base_url: "https://api.example.com/v1"
  api_key: "test-key"

pipeline:
  schedule: "*/30 * * * *"
  concurrency: 8

storage:
  rules:
    backend: memory
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("Server.ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	// Defaults fill unset fields.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Server.WriteTimeout = %v, want default %v", cfg.Server.WriteTimeout, DefaultWriteTimeout)
	}
	if !cfg.Registry.Watch {
		t.Error("Registry.Watch = false, want true")
	}
	if cfg.Pipeline.Concurrency != 8 {
		t.Errorf("Pipeline.Concurrency = %d, want 8", cfg.Pipeline.Concurrency)
	}
	if !cfg.Pipeline.Enabled {
		t.Error("Pipeline.Enabled = false, want default true")
	}
	if cfg.Storage.Rules.Backend != "memory" {
		t.Errorf("Storage.Rules.Backend = %q, want memory", cfg.Storage.Rules.Backend)
	}
	if cfg.Storage.Registry.Backend != "sqlite" {
		t.Errorf("Storage.Registry.Backend = %q, want default sqlite", cfg.Storage.Registry.Backend)
	}
}

func TestLoadConfig_ExplicitDisable(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  enabled: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Pipeline.Enabled {
		t.Error("Pipeline.Enabled = true, want false")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Telemetry.Metrics.Enabled = true, want false")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
pipeline:
  schedule: "not a cron expression"
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want ValidationError", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:8090"
oracle:
  base_url: "https://api.example.com/v1"
`)

	t.Setenv("POLARIS_SERVER_LISTEN_ADDRESS", "0.0.0.0:7070")
	t.Setenv("POLARIS_ORACLE_API_KEY", "env-key")
	t.Setenv("POLARIS_PIPELINE_CONCURRENCY", "2")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7070" {
		t.Errorf("Server.ListenAddress = %q, want env override", cfg.Server.ListenAddress)
	}
	if cfg.Oracle.APIKey != "env-key" {
		t.Errorf("Oracle.APIKey = %q, want env-key", cfg.Oracle.APIKey)
	}
	if cfg.Pipeline.Concurrency != 2 {
		t.Errorf("Pipeline.Concurrency = %d, want 2", cfg.Pipeline.Concurrency)
	}
}
