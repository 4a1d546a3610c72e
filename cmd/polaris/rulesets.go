package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lumina-hq/polaris/pkg/cli"
	"lumina-hq/polaris/pkg/rules"
)

var rulesetKeyFlags struct {
	country  string
	category string
}

func rulesetKey() rules.Key {
	return rules.Key{
		CountryCode: rulesetKeyFlags.country,
		Category:    rulesetKeyFlags.category,
	}
}

var rulesetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "Inspect approved rule sets",
	Long: `Inspect the versioned rule sets Polaris maintains.

Every country/category pair has at most one approved (active) version at
a time; older versions stay on record as superseded, and the change log
records the diff every approval applied.`,
}

var rulesetsActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active rule set for a country/category pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		rs, err := a.lifecycle.ActiveRuleSet(context.Background(), rulesetKey())
		if err != nil {
			return cli.NewCommandError("rulesets active", err)
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, rs)
		}

		fmt.Printf("Rule set:   %s\n", rs.ID)
		fmt.Printf("Key:        %s\n", rs.Key.String())
		fmt.Printf("Version:    %d\n", rs.Version)
		if rs.ApprovedAt != nil {
			fmt.Printf("Approved:   %s by %s\n", rs.ApprovedAt.Format(time.RFC3339), rs.ApprovedBy)
		}
		fmt.Printf("Requirements (%d):\n", len(rs.Data.Requirements))
		for _, req := range rs.Data.Requirements {
			line := fmt.Sprintf("  - %s [%s]", req.DocumentType, req.Category)
			if req.Condition != nil {
				line += " when " + req.Condition.String()
			}
			fmt.Println(line)
		}
		if rs.Data.Financial != nil {
			fmt.Printf("Financial:  minimum %.2f %s\n", rs.Data.Financial.MinimumBalance, rs.Data.Financial.Currency)
		}
		if rs.Data.Processing != nil {
			fmt.Printf("Processing: %d days\n", rs.Data.Processing.ProcessingDays)
		}
		if rs.Data.Fee != nil {
			fmt.Printf("Fee:        %.2f %s\n", rs.Data.Fee.VisaFee, rs.Data.Fee.Currency)
		}
		return nil
	},
}

var rulesetsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List every stored version for a country/category pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		sets, err := a.lifecycle.History(context.Background(), rulesetKey())
		if err != nil {
			return cli.NewCommandError("rulesets history", err)
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, sets)
		}

		rows := make([][]string, 0, len(sets))
		for _, rs := range sets {
			approved := ""
			if rs.ApprovedAt != nil {
				approved = rs.ApprovedAt.Format(time.RFC3339)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", rs.Version),
				string(rs.ApprovalState),
				rs.ApprovedBy,
				approved,
				fmt.Sprintf("%d", len(rs.Data.Requirements)),
			})
		}
		return cli.RenderTable(os.Stdout, []string{"VERSION", "STATE", "APPROVED BY", "APPROVED AT", "REQUIREMENTS"}, rows)
	},
}

var rulesetsChangelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Show the approval history for a country/category pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.lifecycle.ChangeLog(context.Background(), rulesetKey())
		if err != nil {
			return cli.NewCommandError("rulesets changelog", err)
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, entries)
		}

		for _, entry := range entries {
			fmt.Printf("v%d by %s at %s: %d added, %d removed, %d modified, %d scalar changes\n",
				entry.Version,
				entry.Actor,
				entry.CreatedAt.Format(time.RFC3339),
				len(entry.Diff.Added),
				len(entry.Diff.Removed),
				len(entry.Diff.Modified),
				len(entry.Diff.ScalarChanges),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesetsCmd)
	rulesetsCmd.AddCommand(rulesetsActiveCmd)
	rulesetsCmd.AddCommand(rulesetsHistoryCmd)
	rulesetsCmd.AddCommand(rulesetsChangelogCmd)

	rulesetsCmd.PersistentFlags().StringVar(&rulesetKeyFlags.country, "country", "", "ISO 3166-1 alpha-2 country code")
	rulesetsCmd.PersistentFlags().StringVar(&rulesetKeyFlags.category, "category", "", "visa category")
	_ = rulesetsCmd.MarkPersistentFlagRequired("country")
	_ = rulesetsCmd.MarkPersistentFlagRequired("category")
}
