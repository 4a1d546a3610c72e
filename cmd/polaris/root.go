package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "polaris",
	Short: "Polaris - visa rule lifecycle and compliance engine",
	Long: `Polaris keeps visa requirement rules current and auditable.

It monitors official document sources, extracts structured requirement
rules through an LLM oracle, routes every extracted change through a
human review queue, and versions each approved rule set. A deterministic
evaluator grades submitted documents against the active rules.

Core commands:
  run         Start the HTTP API and the scheduled fetch/extract pipeline
  pipeline    Run the fetch/extract pipeline on demand
  sources     Manage the source registry
  candidates  Review extracted rule candidates
  rulesets    Inspect approved rule sets and their history`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
}
