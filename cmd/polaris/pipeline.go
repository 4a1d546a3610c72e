package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lumina-hq/polaris/pkg/cli"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the fetch/extract pipeline on demand",
}

var pipelineRunFlags struct {
	sourceID string
	all      bool
}

var pipelineRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch and extract due sources once",
	Long: `Run one fetch/extract pass outside the cron schedule.

By default only sources that are due (interval elapsed, never fetched,
or last attempt failed) are processed. Use --source to force a single
source regardless of its schedule, or --all to force every source.

Examples:
  # Process everything currently due
  polaris pipeline run

  # Force one source through fetch and extraction
  polaris pipeline run --source de-student-embassy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cli.SetupSignalHandler()
		pipe := a.buildPipeline()

		if pipelineRunFlags.sourceID != "" {
			if err := pipe.RunSource(ctx, pipelineRunFlags.sourceID); err != nil {
				return cli.NewCommandError("pipeline run", err)
			}
			fmt.Printf("✓ Source %s processed\n", pipelineRunFlags.sourceID)
			return nil
		}

		if pipelineRunFlags.all {
			sources, err := a.registry.List(ctx)
			if err != nil {
				return cli.NewCommandError("pipeline run", err)
			}
			failed := 0
			for _, src := range sources {
				if err := pipe.RunSource(ctx, src.ID); err != nil {
					failed++
					fmt.Printf("✗ %s: %v\n", src.ID, err)
				}
			}
			fmt.Printf("✓ %d sources processed, %d failed\n", len(sources)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(sources))
			}
			return nil
		}

		result, err := pipe.Scan(ctx, time.Now().UTC())
		if err != nil {
			return cli.NewCommandError("pipeline run", err)
		}
		fmt.Printf("✓ Scan complete: %d due, %d succeeded, %d failed\n",
			result.Due, result.Succeeded, result.Failed)
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d due sources failed", result.Failed, result.Due)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.AddCommand(pipelineRunCmd)

	pipelineRunCmd.Flags().StringVar(&pipelineRunFlags.sourceID, "source", "", "process a single source regardless of schedule")
	pipelineRunCmd.Flags().BoolVar(&pipelineRunFlags.all, "all", false, "process every source regardless of schedule")
	pipelineRunCmd.MarkFlagsMutuallyExclusive("source", "all")
}
