package main

import (
	"testing"
)

func TestRootCommandWiring(t *testing.T) {
	wanted := map[string]bool{
		"run":        false,
		"pipeline":   false,
		"sources":    false,
		"candidates": false,
		"rulesets":   false,
		"version":    false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := wanted[cmd.Name()]; ok {
			wanted[cmd.Name()] = true
		}
	}
	for name, found := range wanted {
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestCandidateSubcommandFlags(t *testing.T) {
	for _, cmd := range candidatesCmd.Commands() {
		switch cmd.Name() {
		case "approve":
			if cmd.Flags().Lookup("actor") == nil {
				t.Error("approve is missing the --actor flag")
			}
		case "reject":
			if cmd.Flags().Lookup("actor") == nil || cmd.Flags().Lookup("reason") == nil {
				t.Error("reject is missing --actor or --reason")
			}
		}
	}
}
