package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/homestead/internal/config"
	"github.com/roach88/homestead/internal/store"
)

// TileView is the JSON form of a saved tile. A timer that never started
// is null.
type TileView struct {
	ID                string   `json:"id"`
	Tag               string   `json:"tag"`
	Visual            string   `json:"visual"`
	Stage             string   `json:"stage"`
	Species           string   `json:"species,omitempty"`
	Watered           bool     `json:"watered"`
	TimeInStage       float64  `json:"time_in_stage"`
	TimeSinceWatering *float64 `json:"time_since_watering"`
	X                 float64  `json:"x"`
	Y                 float64  `json:"y"`
	Components        []string `json:"components,omitempty"`
}

// InspectResult holds the inspect output.
type InspectResult struct {
	Session store.Session `json:"session"`
	Tiles   []TileView    `json:"tiles"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the saved tiles of a session",
		Long: `Show the tiles saved by a session: stage, visual, species and timers.

Examples:
  homestead inspect --db farm.db
  homestead inspect --db farm.db --session 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, cmd)
		},
	}

	cmd.Flags().String(config.KeyDB, config.DefaultDB, "path to SQLite database")
	cmd.Flags().String(config.KeySession, "", "session to show (default: latest)")

	return cmd
}

func runInspect(opts *RootOptions, cmd *cobra.Command) error {
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
	records, err := st.LoadTiles(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load tiles", err)
	}

	result := InspectResult{Session: sess, Tiles: make([]TileView, len(records))}
	for i, r := range records {
		result.Tiles[i] = tileView(r)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Session %s at frame %d\n", sess.ID, sess.Frame)
	rows := make([]table.Row, len(result.Tiles))
	for i, t := range result.Tiles {
		since := "never"
		if t.TimeSinceWatering != nil {
			since = fmt.Sprintf("%.2f", *t.TimeSinceWatering)
		}
		rows[i] = table.Row{t.ID, t.Tag, t.Visual, t.Stage, orNone(t.Species), t.Watered,
			fmt.Sprintf("%.2f", t.TimeInStage), since}
	}
	formatter.Table(table.Row{"Tile", "Tag", "Visual", "Stage", "Species", "Watered", "In stage", "Since watered"}, rows)
	return nil
}

func tileView(r store.TileRecord) TileView {
	v := TileView{
		ID:          r.ID,
		Tag:         r.Tag,
		Visual:      string(r.Visual),
		Stage:       string(r.State.Stage),
		Species:     r.State.Species,
		Watered:     r.State.Watered,
		TimeInStage: r.State.TimeInStage,
		X:           r.Position.X,
		Y:           r.Position.Y,
		Components:  r.Components,
	}
	if !math.IsInf(r.State.TimeSinceWatering, 1) {
		since := r.State.TimeSinceWatering
		v.TimeSinceWatering = &since
	}
	return v
}

// openExisting opens a database that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// resolveSession returns the session with id, or the latest one when id
// is empty.
func resolveSession(ctx context.Context, st *store.Store, id string) (store.Session, error) {
	if id != "" {
		sess, err := st.GetSession(ctx, id)
		if errors.Is(err, store.ErrSessionNotFound) {
			return store.Session{}, WrapExitError(ExitCommandError, "unknown session", err)
		}
		if err != nil {
			return store.Session{}, WrapExitError(ExitCommandError, "failed to read session", err)
		}
		return sess, nil
	}

	sess, ok, err := st.LatestSession(ctx)
	if err != nil {
		return store.Session{}, WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if !ok {
		return store.Session{}, NewExitError(ExitCommandError, "database holds no sessions")
	}
	return sess, nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
