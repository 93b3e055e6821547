package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/appengine-ltd/reactor/internal/autopilot"
	"github.com/appengine-ltd/reactor/internal/reactor"
	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

type runResult struct {
	GameOver  reactor.GameOver  `json:"game_over"`
	Summary   string            `json:"summary"`
	TickLimit bool              `json:"tick_limit"`
	Score     *scoreboard.Entry `json:"score,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one shift headless",
		Long: `Run one shift as fast as the simulation allows.

The shift ends when the reactor fails or after --ticks ticks, in which case
the operator walks away. The result is recorded when a scoreboard is set.

Examples:
  reactorsim run --ticks 2000 --autopilot
  reactorsim run --seed 42 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			ticks, _ := cmd.Flags().GetInt("ticks")
			useAutopilot, _ := cmd.Flags().GetBool("autopilot")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if ticks < 1 {
				return fmt.Errorf("--ticks must be at least 1, got %d", ticks)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
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
			var entry *scoreboard.Entry
			session.OnGameOver(func(over reactor.GameOver) {
				if scores == nil {
					return
				}
				recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				e, err := scores.Record(recordCtx, over)
				if err != nil {
					log.Error("failed to record session", "err", err)
					return
				}
				entry = &e
			})

			var pilot *autopilot.Pilot
			if useAutopilot {
				pilot = autopilot.New(cfg.Autopilot.Settings(), log)
			}
			tickLimit := runShift(ctx, session, pilot, ticks)

			over, _ := session.Outcome()
			res := runResult{GameOver: over, Summary: over.Summary(), TickLimit: tickLimit, Score: entry}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s (seed %d)\n", over.SessionID, over.Seed)
			if tickLimit {
				fmt.Fprintf(out, "Tick limit of %d reached.\n", ticks)
			}
			fmt.Fprintf(out, "Shift ended after %d ticks (%s simulated): %s\n", over.Tick, over.SimTime, res.Summary)
			if entry != nil {
				fmt.Fprintf(out, "Recorded as run #%d.\n", entry.ID)
			}
			return nil
		},
	}
	cmd.Flags().Int("ticks", 2000, "Maximum ticks before the operator walks away")
	cmd.Flags().Bool("autopilot", false, "Fly the shift with the autopilot")
	return cmd
}

// runShift steps the session until it ends, the tick budget runs out or ctx
// is cancelled. It reports whether the budget ended the shift.
func runShift(ctx context.Context, session *reactor.Session, pilot *autopilot.Pilot, ticks int) bool {
	for i := 0; i < ticks; i++ {
		if _, over := session.Outcome(); over || ctx.Err() != nil {
			break
		}
		if pilot != nil {
			for _, cmd := range pilot.Plan(session.Snapshot()) {
				session.Enqueue(cmd)
			}
		}
		session.Step()
	}
	if _, over := session.Outcome(); over {
		return false
	}
	session.Abandon()
	return ctx.Err() == nil
}
