package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/appengine-ltd/reactor/internal/config"
	"github.com/appengine-ltd/reactor/internal/logging"
	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

// version, commit, date are injected at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reactorsim",
		Short: "Headless reactor simulation tools",
		Long: `reactorsim runs reactor shifts without a window.

It can fly a shift to completion on the autopilot, serve a live session
over HTTP and websockets, and inspect the scoreboard of finished shifts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.reactor/config.yaml)")
	rootCmd.PersistentFlags().Int64("seed", 0, "Simulation seed (0 keeps the configured seed)")
	rootCmd.PersistentFlags().String("scoreboard", "", "Sqlite scoreboard path (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newScoresCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reactorsim %s (%s) %s\n", version, commit, date)
			return nil
		},
	}
}

// loadRuntime resolves the layered config plus command-line overrides and
// builds the logger the command writes to stderr.
func loadRuntime(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		cfg.Simulation.Seed = seed
	}
	if scores, _ := cmd.Flags().GetString("scoreboard"); scores != "" {
		cfg.Scoreboard.Path = scores
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return cfg, log, nil
}

// openScores returns nil without error when no scoreboard is configured.
func openScores(ctx context.Context, cfg *config.Config) (*scoreboard.Store, error) {
	if cfg.Scoreboard.Path == "" {
		return nil, nil
	}
	store, err := scoreboard.Open(ctx, cfg.Scoreboard.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scoreboard: %w", err)
	}
	return store, nil
}
