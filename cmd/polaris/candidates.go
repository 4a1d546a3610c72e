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

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Review extracted rule candidates",
	Long: `Work the review queue of extracted rule candidates.

Every pipeline extraction lands here as a pending candidate. Approving a
candidate promotes it to the next active rule set version for its
country/category pair; rejecting it is terminal and leaves the active
rules untouched.`,
}

var candidatesListFlags struct {
	state string
}

var candidatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		state := rules.ApprovalState(candidatesListFlags.state)
		switch state {
		case "", rules.StatePending, rules.StateApproved, rules.StateRejected:
		default:
			return fmt.Errorf("unknown candidate state %q", candidatesListFlags.state)
		}

		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		candidates, err := a.lifecycle.Candidates(context.Background(), state)
		if err != nil {
			return cli.NewCommandError("candidates list", err)
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, candidates)
		}

		rows := make([][]string, 0, len(candidates))
		for _, c := range candidates {
			rows = append(rows, []string{
				c.ID,
				c.Key.String(),
				string(c.State),
				fmt.Sprintf("%.2f", c.Confidence),
				c.CreatedAt.Format(time.RFC3339),
			})
		}
		return cli.RenderTable(os.Stdout, []string{"ID", "KEY", "STATE", "CONFIDENCE", "CREATED"}, rows)
	},
}

var candidatesShowCmd = &cobra.Command{
	Use:   "show <candidate-id>",
	Short: "Show one candidate, including its diff against the active rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.lifecycle.GetCandidate(context.Background(), args[0])
		if err != nil {
			return cli.NewCommandError("candidates show", err)
		}

		format, err := cli.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		if format == cli.FormatJSON {
			return cli.NewFormatter(format).FormatTo(os.Stdout, c)
		}

		fmt.Printf("Candidate:  %s\n", c.ID)
		fmt.Printf("Key:        %s\n", c.Key.String())
		fmt.Printf("State:      %s\n", c.State)
		fmt.Printf("Confidence: %.2f\n", c.Confidence)
		fmt.Printf("Snapshot:   %s (source %s)\n", c.SnapshotID, c.SourceID)
		if c.RejectReason != "" {
			fmt.Printf("Reject reason: %s\n", c.RejectReason)
		}
		if c.Diff != nil {
			fmt.Printf("Diff: %d added, %d removed, %d modified\n",
				len(c.Diff.Added), len(c.Diff.Removed), len(c.Diff.Modified))
		}
		fmt.Printf("Requirements: %d\n", len(c.Data.Requirements))
		return nil
	},
}

var reviewFlags struct {
	actor  string
	reason string
}

var candidatesApproveCmd = &cobra.Command{
	Use:   "approve <candidate-id>",
	Short: "Approve a pending candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		rs, err := a.lifecycle.Approve(context.Background(), args[0], reviewFlags.actor)
		if err != nil {
			return cli.NewCommandError("candidates approve", err)
		}

		fmt.Printf("✓ Candidate approved: %s is now version %d\n", rs.Key.String(), rs.Version)
		return nil
	},
}

var candidatesRejectCmd = &cobra.Command{
	Use:   "reject <candidate-id>",
	Short: "Reject a pending candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgFile)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Reject(context.Background(), args[0], reviewFlags.actor, reviewFlags.reason); err != nil {
			return cli.NewCommandError("candidates reject", err)
		}

		fmt.Println("✓ Candidate rejected")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)
	candidatesCmd.AddCommand(candidatesListCmd)
	candidatesCmd.AddCommand(candidatesShowCmd)
	candidatesCmd.AddCommand(candidatesApproveCmd)
	candidatesCmd.AddCommand(candidatesRejectCmd)

	candidatesListCmd.Flags().StringVar(&candidatesListFlags.state, "state", "pending", "filter by state (pending, approved, rejected, empty for all)")

	candidatesApproveCmd.Flags().StringVar(&reviewFlags.actor, "actor", "", "reviewer identity recorded on the decision")
	_ = candidatesApproveCmd.MarkFlagRequired("actor")

	candidatesRejectCmd.Flags().StringVar(&reviewFlags.actor, "actor", "", "reviewer identity recorded on the decision")
	candidatesRejectCmd.Flags().StringVar(&reviewFlags.reason, "reason", "", "why the candidate is unusable")
	_ = candidatesRejectCmd.MarkFlagRequired("actor")
	_ = candidatesRejectCmd.MarkFlagRequired("reason")
}
