package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lumina-hq/polaris/pkg/cli"
	"lumina-hq/polaris/pkg/registry"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the source registry",
	Long: `Manage the registry of official document sources.

Sources are the monitored pages rule extraction works from. Each source
is scoped to one country/category pair and carries its own fetch
interval.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		sources, err := a.registry.List(context.Background())
		if err != nil {
			return cli.NewCommandError("sources list", err)
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, sources)
		}

		rows := make([][]string, 0, len(sources))
		for _, src := range sources {
			lastFetch := "never"
			if src.LastFetchedAt != nil {
				lastFetch = src.LastFetchedAt.Format(time.RFC3339)
			}
			rows = append(rows, []string{
				src.ID,
				src.CountryCode,
				src.Category,
				string(src.LastStatus),
				lastFetch,
				src.FetchInterval.String(),
			})
		}
		return cli.RenderTable(os.Stdout, []string{"ID", "COUNTRY", "CATEGORY", "STATUS", "LAST FETCH", "INTERVAL"}, rows)
	},
}

var sourcesShowCmd = &cobra.Command{
	Use:   "show <source-id>",
	Short: "Show one source with its latest snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		src, err := a.registry.Get(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("sources show", err)
		}

		out := struct {
			Source   *registry.Source   `json:"source"`
			Snapshot *registry.Snapshot `json:"latestSnapshot,omitempty"`
		}{Source: src}
		if snap, err := a.registry.LatestSnapshot(ctx, src.ID); err == nil {
			out.Snapshot = snap
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, out)
		}

		fmt.Printf("Source:     %s (%s)\n", src.ID, src.Name)
		fmt.Printf("URL:        %s\n", src.URL)
		fmt.Printf("Key:        %s/%s\n", src.CountryCode, src.Category)
		fmt.Printf("Status:     %s\n", src.LastStatus)
		if src.LastError != "" {
			fmt.Printf("Last error: %s\n", src.LastError)
		}
		if out.Snapshot != nil {
			fmt.Printf("Latest snapshot: %s (%d bytes raw, fetched %s)\n",
				out.Snapshot.ID, out.Snapshot.RawSize, out.Snapshot.FetchedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var sourcesRegisterFlags struct {
	name     string
	url      string
	country  string
	category string
	interval time.Duration
	priority int
}

var sourcesRegisterCmd = &cobra.Command{
	Use:   "register <source-id>",
	Short: "Register or update a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		src := &registry.Source{
			ID:            args[0],
			Name:          sourcesRegisterFlags.name,
			URL:           sourcesRegisterFlags.url,
			CountryCode:   sourcesRegisterFlags.country,
			Category:      sourcesRegisterFlags.category,
			FetchInterval: sourcesRegisterFlags.interval,
			Priority:      sourcesRegisterFlags.priority,
		}
		if err := a.registry.Register(context.Background(), src); err != nil {
			return cli.NewCommandError("sources register", err)
		}

		fmt.Printf("✓ Source %s registered\n", src.ID)
		return nil
	},
}

var sourcesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <source-id>",
	Short: "Deactivate a source",
	Long: `Stop scheduling a source without removing it.

The source and its snapshot history stay in the registry for audit;
re-registering the same ID reactivates it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.registry.Deactivate(context.Background(), args[0]); err != nil {
			return cli.NewCommandError("sources deactivate", err)
		}

		fmt.Printf("✓ Source %s deactivated\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	sourcesCmd.AddCommand(sourcesRegisterCmd)
	sourcesCmd.AddCommand(sourcesDeactivateCmd)

	sourcesRegisterCmd.Flags().StringVar(&sourcesRegisterFlags.name, "name", "", "human-readable source name")
	sourcesRegisterCmd.Flags().StringVar(&sourcesRegisterFlags.url, "url", "", "document URL to monitor")
	sourcesRegisterCmd.Flags().StringVar(&sourcesRegisterFlags.country, "country", "", "ISO 3166-1 alpha-2 country code")
	sourcesRegisterCmd.Flags().StringVar(&sourcesRegisterFlags.category, "category", "", "visa category (e.g. tourist, student)")
	sourcesRegisterCmd.Flags().DurationVar(&sourcesRegisterFlags.interval, "interval", 0, "fetch interval (default from config)")
	sourcesRegisterCmd.Flags().IntVar(&sourcesRegisterFlags.priority, "priority", 0, "pipeline ordering priority")
	_ = sourcesRegisterCmd.MarkFlagRequired("url")
	_ = sourcesRegisterCmd.MarkFlagRequired("country")
	_ = sourcesRegisterCmd.MarkFlagRequired("category")
}
