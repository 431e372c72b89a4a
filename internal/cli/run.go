package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/compiler"
	"github.com/roach88/homestead/internal/config"
	"github.com/roach88/homestead/internal/diag"
	"github.com/roach88/homestead/internal/engine"
	"github.com/roach88/homestead/internal/growth"
	"github.com/roach88/homestead/internal/store"
	"github.com/roach88/homestead/internal/world"
)

// PlayerID is the id of the actor every --act request is performed by.
const PlayerID = "player"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Act   []string // tile ids acted on in the first frame
	Field string   // "COLSxROWS" field seeded into a new session

	// Sessions allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Sessions engine.SessionGenerator
}

// RunSummary describes a finished run.
type RunSummary struct {
	Session string `json:"session"`
	Resumed bool   `json:"resumed"`
	Frame   int64  `json:"frame"`
	Tiles   int    `json:"tiles"`
	Events  int    `json:"events"`
}

func (s RunSummary) String() string {
	verb := "started"
	if s.Resumed {
		verb = "resumed"
	}
	return fmt.Sprintf("Session %s %s: now at frame %d, %d tile(s) saved, %d event(s) logged",
		s.Session, verb, s.Frame, s.Tiles, s.Events)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [catalog-path]",
		Short: "Run the frame loop headless",
		Long: `Run the frame loop over a saved field and save it back.

A new session seeds a field of grass tiles; --session resumes a saved one
from its last frame. Each frame ticks every tile by --step seconds, then
performs the queued interactions. --act queues an interaction with a tile
in the first frame.

Examples:
  homestead run ./catalog --db farm.db --frames 600 --step 0.016
  homestead run ./catalog --db farm.db --act tile-0-0 --frames 1
  homestead run ./catalog --db farm.db --session 0192... --frames 3600`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args, cmd)
		},
	}

	cmd.Flags().String(config.KeyDB, config.DefaultDB, "path to SQLite database")
	cmd.Flags().Int(config.KeyFrames, config.DefaultFrames, "frames to run")
	cmd.Flags().Float64(config.KeyStep, config.DefaultStep, "seconds per frame")
	cmd.Flags().String(config.KeySession, "", "session to resume (default: start a new one)")
	cmd.Flags().StringSliceVar(&opts.Act, "act", nil, "tile ids to interact with in the first frame")
	cmd.Flags().StringVar(&opts.Field, "field", "4x3", "field size for a new session (COLSxROWS)")

	return cmd
}

func runEngine(opts *RunOptions, args []string, cmd *cobra.Command) error {
	cfg := opts.Config

	paths := catalogPaths(opts.RootOptions, args)
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no catalog path given")
	}
	cols, rows, err := parseField(opts.Field)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --field", err)
	}

	slog.Info("loading catalog", "path", paths[0])
	loaded, err := compiler.Load(paths...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	cat := loaded.Catalog
	for _, issue := range catalog.Validate(cat, catalog.ValidateOptions{}) {
		slog.Warn("catalog issue", "code", issue.Code, "subject", issue.Subject, "message", issue.Message)
	}

	slog.Info("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	summary := RunSummary{}
	var records []store.TileRecord
	var frames *engine.FrameCounter

	if cfg.Session != "" {
		sess, err := st.GetSession(ctx, cfg.Session)
		if errors.Is(err, store.ErrSessionNotFound) {
			return WrapExitError(ExitCommandError, "unknown session", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		if sess.CatalogHash != cat.Hash {
			slog.Warn("catalog changed since the session was saved", "session", sess.ID)
		}
		records, err = st.LoadTiles(ctx, sess.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load tiles", err)
		}
		summary.Session, summary.Resumed = sess.ID, true
		frames = engine.NewFrameCounterAt(sess.Frame)
	} else {
		gen := opts.Sessions
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		sess, err := st.BeginSession(ctx, gen.Generate(), cat.Hash)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin session", err)
		}
		records = seedField(cols, rows)
		summary.Session = sess.ID
		frames = engine.NewFrameCounter()
	}

	sink := diag.NewSlogSink(nil)
	w, err := buildWorld(cat, records, sink)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build world", err)
	}

	eng := engine.New(w, cat,
		engine.WithSink(sink),
		engine.WithEventLog(st, summary.Session),
		engine.WithFrameCounter(frames),
	)
	for _, id := range opts.Act {
		eng.Submit(engine.Request{TargetID: id, ActorID: PlayerID})
	}

	runErr := eng.Run(ctx, engine.FixedStep(cfg.Step), cfg.Frames)
	eng.Close()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", runErr)
	}

	// Save on cancellation too; the state is consistent between frames.
	saveCtx := context.WithoutCancel(ctx)
	tiles := w.Tiles()
	saved := make([]store.TileRecord, len(tiles))
	for i, t := range tiles {
		saved[i] = store.RecordTile(t)
	}
	if err := st.SaveTiles(saveCtx, summary.Session, eng.Frame(), saved); err != nil {
		return WrapExitError(ExitCommandError, "failed to save tiles", err)
	}
	events, err := st.ReadEvents(saveCtx, summary.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	summary.Frame = eng.Frame()
	summary.Tiles = len(saved)
	summary.Events = len(events)
	slog.Info("session saved", "session", summary.Session, "frame", summary.Frame)

	return opts.formatter(cmd).Success(summary)
}

// buildWorld recreates the saved tiles and adds the player.
func buildWorld(cat *catalog.Catalog, records []store.TileRecord, sink diag.Sink) (*world.World, error) {
	w := world.New()
	for _, r := range records {
		if err := w.Add(r.Build(cat, growth.WithSink(sink))); err != nil {
			return nil, err
		}
	}

	player := world.NewActor(PlayerID, world.Vec2{}).
		Attach(world.KindAnimation, world.AnimatorFunc(func(clip string) {
			slog.Debug("animation", "entity", PlayerID, "clip", clip)
		})).
		Attach(world.KindAudio, logAudio{})
	if err := w.Add(player); err != nil {
		return nil, err
	}
	return w, nil
}

// logAudio stands in for a sound device in headless runs.
type logAudio struct{}

func (logAudio) PlayAt(clip string, pos world.Vec2) {
	slog.Debug("sound", "clip", clip, "x", pos.X, "y", pos.Y)
}

// seedField lays out cols*rows grass tiles, row by row.
func seedField(cols, rows int) []store.TileRecord {
	records := make([]store.TileRecord, 0, cols*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			records = append(records, store.TileRecord{
				ID:       fmt.Sprintf("tile-%d-%d", x, y),
				Tag:      string(catalog.StageGrass),
				Position: world.Vec2{X: float64(x), Y: float64(y)},
				State: growth.Snapshot{
					Stage:             catalog.StageGrass,
					TimeSinceWatering: catalog.Never,
				},
			})
		}
	}
	return records
}

func parseField(s string) (cols, rows int, err error) {
	if _, err := fmt.Sscanf(s, "%dx%d", &cols, &rows); err != nil {
		return 0, 0, fmt.Errorf("%q: expected COLSxROWS", s)
	}
	if cols <= 0 || rows <= 0 {
		return 0, 0, fmt.Errorf("%q: both dimensions must be positive", s)
	}
	return cols, rows, nil
}
