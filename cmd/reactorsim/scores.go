package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "List finished shifts from the scoreboard",
		Long: `List finished shifts, best power output first.

Examples:
  reactorsim scores --limit 5
  reactorsim scores --recent --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			recent, _ := cmd.Flags().GetBool("recent")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}

			store, err := openScores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("no scoreboard configured; set scoreboard.path or pass --scoreboard")
			}
			defer store.Close()

			var entries []scoreboard.Entry
			if recent {
				entries, err = store.Recent(cmd.Context(), limit)
			} else {
				entries, err = store.Top(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("failed to list scores: %w", err)
			}

			if jsonOut {
				if entries == nil {
					entries = []scoreboard.Entry{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"scores": entries,
					"count":  len(entries),
				})
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shifts recorded yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPOWER\tCAUSE\tTICKS\tSEED\tRECORDED")
			for i, e := range entries {
				fmt.Fprintf(w, "%d\t%.1f\t%s\t%d\t%d\t%s\n", i+1, e.PowerGenerated, e.Cause, e.Ticks, e.Seed, e.RecordedAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 10, "Number of entries to show")
	cmd.Flags().Bool("recent", false, "Order by most recent instead of power")
	return cmd
}
