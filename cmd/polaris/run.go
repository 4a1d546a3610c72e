package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lumina-hq/polaris/pkg/cli"
	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/evaluator"
	"lumina-hq/polaris/pkg/pipeline"
	"lumina-hq/polaris/pkg/registry"
	"lumina-hq/polaris/pkg/rules"
	"lumina-hq/polaris/pkg/server"
	"lumina-hq/polaris/pkg/telemetry/health"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Polaris server and scheduled pipeline",
	Long: `Start the Polaris HTTP API server and the scheduled fetch/extract
pipeline with the specified configuration.

The server exposes the rule lifecycle, source registry, and compliance
evaluator; the pipeline keeps rule candidates flowing into the review
queue on the configured cron schedule.

Examples:
  # Start with default config
  polaris run

  # Start with custom config
  polaris run --config /etc/polaris/config.yaml

  # Override listen address
  polaris run --listen 0.0.0.0:8090

  # Validate config without starting
  polaris run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfgFile, func(cfg *config.Config) {
		if runFlags.listenAddress != "" {
			cfg.Server.ListenAddress = runFlags.listenAddress
		}
		if runFlags.logLevel != "" {
			cfg.Telemetry.Logging.Level = runFlags.logLevel
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed and optionally watch the source registry.
	if a.cfg.Registry.SeedFile != "" {
		seeder := registry.NewSeeder(a.registry, a.cfg.Registry.SeedFile, a.logger)
		if err := seeder.Apply(ctx); err != nil {
			a.logger.Warn("seed file could not be applied", "path", a.cfg.Registry.SeedFile, "error", err)
		} else {
			fmt.Println("✓ Source registry seeded")
		}
		if a.cfg.Registry.Watch {
			if err := seeder.Watch(ctx); err != nil {
				a.logger.Warn("seed file watch failed to start", "error", err)
			} else {
				defer seeder.Stop()
			}
		}
	}

	// Fetch/extract pipeline and its cron scheduler. The scheduler is a
	// no-op when the pipeline is disabled in config.
	pipe := a.buildPipeline()
	scheduler := pipeline.NewScheduler(pipe, a.cfg.Pipeline, a.logger)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("start scheduler: %w", err))
	}
	defer scheduler.Stop()
	if next := scheduler.NextRun(); next != nil {
		fmt.Printf("✓ Pipeline scheduled (next run %s)\n", next.Format("2006-01-02 15:04:05 MST"))
	}

	// Compliance evaluator, with the advisory judgment oracle when an
	// oracle backend is configured.
	evalOpts := []evaluator.Option{
		evaluator.WithLogger(a.logger),
		evaluator.WithMetrics(a.metrics),
	}
	if a.cfg.Oracle.BaseURL != "" {
		evalOpts = append(evalOpts, evaluator.WithJudgmentOracle(evaluator.NewHTTPJudgment(a.cfg.Oracle)))
	}
	eval := evaluator.New(evalOpts...)

	checker := health.New(0)
	checker.RegisterCheck("rule-store", func(ctx context.Context) error {
		_, err := a.lifecycle.Candidates(ctx, rules.StatePending)
		return err
	})
	checker.RegisterCheck("registry-store", func(ctx context.Context) error {
		_, err := a.registry.List(ctx)
		return err
	})

	srv := server.NewServer(a.cfg, a.lifecycle, a.registry, eval,
		server.WithLogger(a.logger),
		server.WithMetrics(a.metrics),
		server.WithHealthChecker(checker),
		server.WithVersion(Version, GitCommit, BuildDate),
	)

	fmt.Printf("✓ Server listening on %s\n", a.cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", a.cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s%s\n", a.cfg.Server.ListenAddress, a.cfg.Telemetry.Metrics.Path)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal arrives or the context is cancelled,
	// then drains gracefully.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}
