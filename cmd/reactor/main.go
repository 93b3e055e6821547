//go:build cgo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/appengine-ltd/reactor/internal/config"
	"github.com/appengine-ltd/reactor/internal/gui"
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
	var (
		showVersion bool
		configPath  string
		seed        int64
		autopilot   bool
		scoresPath  string
	)

	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&configPath, "config", "", "config file (default ~/.reactor/config.yaml)")
	flag.Int64Var(&seed, "seed", 0, "simulation seed (0 keeps the configured seed)")
	flag.BoolVar(&autopilot, "autopilot", false, "start every shift with the autopilot engaged")
	flag.StringVar(&scoresPath, "scoreboard", "", "sqlite scoreboard path (overrides config)")
	flag.Parse()

	if showVersion {
		fmt.Printf("Reactor %s (%s) %s\n", version, commit, date)
		return
	}

	if err := run(configPath, seed, autopilot, scoresPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, autopilot bool, scoresPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Simulation.Seed = seed
	}
	if scoresPath != "" {
		cfg.Scoreboard.Path = scoresPath
	}
	log := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	var scores *scoreboard.Store
	if cfg.Scoreboard.Path != "" {
		scores, err = scoreboard.Open(context.Background(), cfg.Scoreboard.Path)
		if err != nil {
			return fmt.Errorf("opening scoreboard: %w", err)
		}
		defer scores.Close()
	}

	app := gui.NewApp(gui.AppConfig{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		Config:    cfg,
		Logger:    log,
		Scores:    scores,
		Autopilot: autopilot,
	})
	return app.Run()
}
