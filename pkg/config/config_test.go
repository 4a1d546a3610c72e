package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("Server.ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Registry.SeedFile != DefaultRegistrySeedFile {
		t.Errorf("Registry.SeedFile = %q, want %q", cfg.Registry.SeedFile, DefaultRegistrySeedFile)
	}
	if cfg.Registry.DefaultFetchInterval != 24*time.Hour {
		t.Errorf("Registry.DefaultFetchInterval = %v, want 24h", cfg.Registry.DefaultFetchInterval)
	}
	if cfg.Fetcher.MaxRetries != DefaultFetcherMaxRetries {
		t.Errorf("Fetcher.MaxRetries = %d, want %d", cfg.Fetcher.MaxRetries, DefaultFetcherMaxRetries)
	}
	if cfg.Oracle.Model != DefaultOracleModel {
		t.Errorf("Oracle.Model = %q, want %q", cfg.Oracle.Model, DefaultOracleModel)
	}
	if cfg.Pipeline.Schedule != DefaultPipelineSchedule {
		t.Errorf("Pipeline.Schedule = %q, want %q", cfg.Pipeline.Schedule, DefaultPipelineSchedule)
	}
	if !cfg.Pipeline.Enabled {
		t.Error("Pipeline.Enabled = false, want true by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Telemetry.Metrics.Enabled = false, want true by default")
	}
	if cfg.Pipeline.Concurrency != DefaultPipelineConcurrency {
		t.Errorf("Pipeline.Concurrency = %d, want %d", cfg.Pipeline.Concurrency, DefaultPipelineConcurrency)
	}
	if cfg.Storage.Rules.Backend != "sqlite" {
		t.Errorf("Storage.Rules.Backend = %q, want sqlite", cfg.Storage.Rules.Backend)
	}
	if cfg.Storage.Rules.Path != DefaultRulesStorePath {
		t.Errorf("Storage.Rules.Path = %q, want %q", cfg.Storage.Rules.Path, DefaultRulesStorePath)
	}
	if cfg.Storage.Registry.Path != DefaultRegistryStorePath {
		t.Errorf("Storage.Registry.Path = %q, want %q", cfg.Storage.Registry.Path, DefaultRegistryStorePath)
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("Telemetry.Logging.Level = %q, want info", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Telemetry.Metrics.Namespace = %q, want %q", cfg.Telemetry.Metrics.Namespace, DefaultNamespace)
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		t.Error("Telemetry.Metrics.DurationBuckets is empty")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(DefaultConfig()) = %v, want nil", err)
	}
}
