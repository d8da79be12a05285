package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"surgerydesk/relay/pkg/cli"
	"surgerydesk/relay/pkg/config"
	"surgerydesk/relay/pkg/server"
	"surgerydesk/relay/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	noWatch       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The limiter trusts X-Forwarded-For and X-Real-IP by default. Run the relay
behind a reverse proxy that overwrites those headers, or set
server.trust_forwarded_headers to false.

Examples:
  # Start with defaults and credentials from the environment
  AI_API_URL=https://api.example.com/v1/chat/completions AI_API_KEY=... relay run

  # Start with a config file
  relay run --config /etc/relay/config.yaml

  # Override listen address
  relay run --listen 0.0.0.0:8080

  # Validate config without starting server
  relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to load config: %w", err))
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger, err := logging.New(logging.FromConfig(&cfg.Logging))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	slog.SetDefault(logger.Logger)

	if runFlags.dryRun {
		printValid(cmd, cfg)
		return nil
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithBuildInfo(server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		}),
	}
	if runFlags.logLevel != "" {
		opts = append(opts, server.WithLogLevelOverride(runFlags.logLevel))
	}
	if cfgFile != "" && !runFlags.noWatch {
		opts = append(opts, server.WithConfigWatch(cfgFile))
	}

	srv, err := server.New(ctx, cfg, opts...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
