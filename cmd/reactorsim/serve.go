package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/appengine-ltd/reactor/internal/autopilot"
	"github.com/appengine-ltd/reactor/internal/reactor"
	"github.com/appengine-ltd/reactor/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live session over HTTP and websockets",
		Long: `Run one session in real time and expose it to remote operators.

Routes:
  GET  /health                 liveness
  GET  /api/v1/snapshot        current snapshot
  POST /api/v1/commands        queue a control command
  POST /api/v1/console         run a console line
  POST /api/v1/pause           pause or resume
  POST /api/v1/abandon         end the shift
  GET  /api/v1/scores          scoreboard
  GET  /ws                     snapshot and game-over stream`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			useAutopilot, _ := cmd.Flags().GetBool("autopilot")

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			scores, err := openScores(ctx, cfg)
			if err != nil {
				return err
			}
			if scores != nil {
				defer scores.Close()
			}

			session, err := reactor.NewSession(cfg.Simulation, reactor.WithLogger(log))
			if err != nil {
				return fmt.Errorf("failed to start session: %w", err)
			}

			hub := telemetry.NewHub(log)
			opts := telemetry.RunnerOptions{
				FrameInterval:  cfg.Server.FrameInterval,
				BroadcastEvery: cfg.Server.BroadcastEvery,
				Pilot:          autopilot.New(cfg.Autopilot.Settings(), log),
				Autopilot:      useAutopilot,
				Hub:            hub,
				Logger:         log,
			}
			// A nil *Store must not become a non-nil interface.
			var lister telemetry.ScoreLister
			if scores != nil {
				opts.Recorder = scores
				lister = scores
			}
			runner := telemetry.NewRunner(session, opts)
			server := telemetry.NewServer(runner, hub, lister, log)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return runner.Run(gctx)
			})
			g.Go(func() error {
				log.Info("telemetry server listening", "addr", cfg.Server.Addr, "session", session.ID())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("telemetry server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down telemetry server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				err := srv.Shutdown(shutdownCtx)
				if cerr := hub.Close(); err == nil {
					err = cerr
				}
				return err
			})

			if err := g.Wait(); err != nil {
				return err
			}
			if over, ok := runner.Over(); ok {
				fmt.Fprintln(cmd.OutOrStdout(), over.Summary())
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmd.Flags().Bool("autopilot", false, "Start with the autopilot engaged")
	return cmd
}
