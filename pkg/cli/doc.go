// Package cli provides shared helpers for the polaris command: output
// formatting, error types with useful exit messages, and signal-aware
// contexts for long-running commands.
package cli
