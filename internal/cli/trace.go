package cli

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/homestead/internal/config"
	"github.com/roach88/homestead/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Tile string // optional - filter to one tile
}

// TraceEvent is one logged interaction.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Frame   int64  `json:"frame"`
	Tile    string `json:"tile"`
	Actor   string `json:"actor,omitempty"`
	Action  string `json:"action,omitempty"`
	Tier    string `json:"tier,omitempty"`
	Applied int    `json:"applied"`
	Skipped int    `json:"skipped"`
	Changed bool   `json:"changed"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Changed   int `json:"changed"`
	Skipped   int `json:"skipped_effects"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session string       `json:"session"`
	Events  []TraceEvent `json:"events"`
	Stats   TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the interaction log of a session",
		Long: `Show every interaction a session performed, in frame order: the tile,
the matched action and tier, and how many effects applied or were skipped.

Examples:
  homestead trace --db farm.db
  homestead trace --db farm.db --session 0192... --tile tile-0-0
  homestead trace --db farm.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().String(config.KeyDB, config.DefaultDB, "path to SQLite database")
	cmd.Flags().String(config.KeySession, "", "session to trace (default: latest)")
	cmd.Flags().StringVar(&opts.Tile, "tile", "", "filter to one tile")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := openExisting(opts.Config.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := resolveSession(ctx, st, opts.Config.Session)
	if err != nil {
		return err
	}
	records, err := st.ReadEvents(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := buildTrace(sess.ID, records, opts.Tile)

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Events) == 0 {
		fmt.Fprintf(w, "No events for session %s\n", sess.ID)
		return nil
	}

	rows := make([]table.Row, len(result.Events))
	for i, ev := range result.Events {
		rows[i] = table.Row{ev.Seq, ev.Frame, ev.Tile, orNone(ev.Actor), orNone(ev.Action), orNone(ev.Tier),
			ev.Applied, ev.Skipped, ev.Changed}
	}
	formatter.Table(table.Row{"Seq", "Frame", "Tile", "Actor", "Action", "Tier", "Applied", "Skipped", "Changed"}, rows)
	fmt.Fprintf(w, "%d event(s): %d matched, %d unmatched, %d changed a tile\n",
		result.Stats.Total, result.Stats.Matched, result.Stats.Unmatched, result.Stats.Changed)
	return nil
}

func buildTrace(session string, records []store.EventRecord, tile string) TraceResult {
	result := TraceResult{Session: session, Events: []TraceEvent{}}
	for _, r := range records {
		if tile != "" && r.TargetID != tile {
			continue
		}
		ev := TraceEvent{
			Seq:     r.Seq,
			Frame:   r.Frame,
			Tile:    r.TargetID,
			Actor:   r.ActorID,
			Action:  r.Action,
			Applied: r.Applied,
			Skipped: r.Skipped,
			Changed: r.Changed,
		}
		if r.Action != "" {
			ev.Tier = r.Tier.String()
			result.Stats.Matched++
		} else {
			result.Stats.Unmatched++
		}
		if r.Changed {
			result.Stats.Changed++
		}
		result.Stats.Skipped += r.Skipped
		result.Events = append(result.Events, ev)
	}
	result.Stats.Total = len(result.Events)
	return result
}
