package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"surgerydesk/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Support chat relay for GP practice staff",
	Long: `Relay serves the NHS App support chat widget.

Each message passes through:
  - an empty-message check
  - a per-source fixed-window limiter
  - screening for patient-identifiable information
  - the upstream completion API

Upstream credentials are read from AI_API_URL, AI_API_KEY and AI_MODEL,
or from a .env file in the working directory.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()

	var exitErr *cli.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Err == nil) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional; environment overrides apply)")
}
