package main

import (
	"fmt"
	"io"
	"os"

	"lumina-hq/polaris/pkg/cli"
	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/extractor"
	"lumina-hq/polaris/pkg/fetcher"
	"lumina-hq/polaris/pkg/pipeline"
	"lumina-hq/polaris/pkg/registry"
	registrystore "lumina-hq/polaris/pkg/registry/store"
	"lumina-hq/polaris/pkg/rules/lifecycle"
	rulestore "lumina-hq/polaris/pkg/rules/store"
	"lumina-hq/polaris/pkg/telemetry/logging"
	"lumina-hq/polaris/pkg/telemetry/metrics"
)

// app holds the wired services every subcommand works against. Commands
// that only read (sources list, rulesets active) share the same wiring
// as the long-running server, so behavior never diverges between the
// CLI and the API.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	metrics   *metrics.Collector
	lifecycle *lifecycle.Service
	registry  *registry.Service

	closers []func() error
}

// newApp loads configuration, applies any flag overrides, and opens the
// stores.
func newApp(configPath string, overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	for _, override := range overrides {
		override(cfg)
	}

	logger, err := buildLogger(cfg.Telemetry.Logging)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	ruleStore, err := openRuleStore(cfg.Storage.Rules)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open rule store: %w", err)
	}
	a.closers = append(a.closers, ruleStore.Close)

	registryStore, err := openRegistryStore(cfg.Storage.Registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open registry store: %w", err)
	}
	a.closers = append(a.closers, registryStore.Close)

	a.lifecycle = lifecycle.NewService(ruleStore,
		lifecycle.WithLogger(logger),
		lifecycle.WithMetrics(a.metrics),
	)
	a.registry = registry.NewService(registryStore,
		registry.WithLogger(logger),
		registry.WithDefaultInterval(cfg.Registry.DefaultFetchInterval),
	)

	return a, nil
}

// Close releases store handles in reverse open order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// buildPipeline wires the fetch/extract stack. The extraction oracle is
// optional: with no base URL configured, fetches still run and snapshot,
// but extraction is skipped.
func (a *app) buildPipeline() *pipeline.Pipeline {
	var oracle extractor.Oracle
	if a.cfg.Oracle.BaseURL != "" {
		oracle = extractor.NewHTTPOracle(a.cfg.Oracle, extractor.WithOracleLogger(a.logger))
	} else {
		a.logger.Warn("no oracle base_url configured, extraction is disabled")
	}

	adapter := extractor.NewAdapter(oracle, a.lifecycle,
		extractor.WithAdapterLogger(a.logger),
		extractor.WithAdapterMetrics(a.metrics),
	)
	httpFetcher := fetcher.NewHTTPFetcher(a.cfg.Fetcher, fetcher.WithLogger(a.logger))

	return pipeline.New(a.registry, httpFetcher, adapter,
		pipeline.WithLogger(a.logger),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithConcurrency(a.cfg.Pipeline.Concurrency),
	)
}

func buildLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "", "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer = f
	}

	return logging.New(logging.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Redact: true,
		Writer: writer,
	})
}

func openRuleStore(cfg config.BackendConfig) (rulestore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return rulestore.NewMemoryStore(), nil
	case "", "sqlite":
		sqliteCfg := rulestore.DefaultSQLiteConfig()
		if cfg.Path != "" {
			sqliteCfg.Path = cfg.Path
		}
		return rulestore.NewSQLiteStore(sqliteCfg)
	default:
		return nil, fmt.Errorf("unsupported rule store backend: %s", cfg.Backend)
	}
}

func openRegistryStore(cfg config.BackendConfig) (registry.Store, error) {
	switch cfg.Backend {
	case "memory":
		return registrystore.NewMemoryStore(), nil
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "data/registry.db"
		}
		return registrystore.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported registry store backend: %s", cfg.Backend)
	}
}
