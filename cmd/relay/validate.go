package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"surgerydesk/relay/pkg/cli"
	"surgerydesk/relay/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration the way "relay run" would (file, .env,
environment) and report every problem found.

Warnings, such as missing upstream credentials, are printed but do not
fail validation.

Examples:
  relay validate
  relay validate --config /etc/relay/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewExitError(1, err)
	}

	printValid(cmd, cfg)
	return nil
}

func printValid(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  listen:  %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "  limiter: %d per %s (%s)\n", cfg.Limiter.Limit, cfg.Limiter.Window, cfg.Limiter.Backend)
	fmt.Fprintf(out, "  model:   %s\n", cfg.Upstream.Model)
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(out, "! %s\n", w)
	}
}
