package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
	"github.com/roach88/homestead/internal/growth"
	"github.com/roach88/homestead/internal/testutil"
	"github.com/roach88/homestead/internal/world"
)

type eventRecorder struct {
	events []Event
	err    error
}

func (r *eventRecorder) AppendEvent(_ context.Context, ev Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	engine *Engine
	tile   *world.Tile
	hover  *hoverRecorder
	diags  *diag.Recorder
	events *eventRecorder
}

func newFixture(t *testing.T, tag string, stage catalog.StageID) *fixture {
	t.Helper()
	cat := testutil.RoseCatalog()
	f := &fixture{
		hover:  &hoverRecorder{},
		diags:  &diag.Recorder{},
		events: &eventRecorder{},
	}

	var opts []growth.Option
	if stage != catalog.StageGrass && stage != catalog.StageSoilEmpty {
		rose, ok := cat.Plant("Rose")
		require.True(t, ok)
		opts = append(opts, growth.WithSpecies(rose))
	}

	w := world.New()
	f.tile = newTile(t, cat, "t1", tag, stage, f.diags, opts...)
	require.NoError(t, w.Add(f.tile))
	require.NoError(t, w.Add(world.NewActor("player", world.Vec2{})))

	x := NewExecutor(WithSelection(f.hover), WithDiagnostics(f.diags))
	f.engine = New(w, cat,
		WithExecutor(x),
		WithSink(f.diags),
		WithEventLog(f.events, "session-1"),
	)
	return f
}

func (f *fixture) act(t *testing.T, dt float64) Outcome {
	t.Helper()
	require.True(t, f.engine.Submit(Request{TargetID: "t1", ActorID: "player"}))
	res := f.engine.Step(context.Background(), dt)
	require.Len(t, res.Outcomes, 1)
	return res.Outcomes[0]
}

func TestEngine_FullLifecycle(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)
	g := f.tile.Growth()

	out := f.act(t, 0)
	assert.Equal(t, testutil.ActionTillSoil, out.Report.Action)
	assert.Equal(t, catalog.StageSoilEmpty, g.Stage())
	assert.Equal(t, "Soil", f.tile.Tag())

	out = f.act(t, 0)
	assert.Equal(t, testutil.ActionPlantSeed, out.Report.Action)
	assert.Equal(t, TierTagAndVisual, out.Tier)
	assert.Equal(t, catalog.StageSoilSeeded, g.Stage())
	assert.Equal(t, catalog.VisualID("rose_seed"), f.tile.VisualID())

	for _, next := range []catalog.StageID{testutil.StageRoseSprout, testutil.StageRoseBudding, testutil.StageRoseRipe} {
		out = f.act(t, 0)
		assert.Equal(t, testutil.ActionWater, out.Report.Action)
		assert.True(t, g.Watered())

		f.engine.Step(context.Background(), testutil.RoseStageDuration)
		assert.Equal(t, next, g.Stage())
		assert.False(t, g.Watered(), "a new stage starts dry")
	}
	assert.Equal(t, catalog.VisualID("rose_ripe"), f.tile.VisualID())

	out = f.act(t, 0)
	assert.Equal(t, testutil.ActionHarvest, out.Report.Action)
	assert.Equal(t, TierTagAndVisual, out.Tier)
	assert.Equal(t, catalog.StageSoilEmpty, g.Stage())
	assert.Nil(t, g.Species())
	assert.Equal(t, "Soil", f.tile.Tag())

	// Every perform cleared the hover and was recorded, in frame order.
	require.Len(t, f.events.events, 6)
	assert.Equal(t, 6, f.hover.calls)
	for i := 1; i < len(f.events.events); i++ {
		assert.Greater(t, f.events.events[i].Frame, f.events.events[i-1].Frame)
	}
	assert.Equal(t, "session-1", f.events.events[0].Session)
	assert.Equal(t, "player", f.events.events[0].ActorID)
}

func TestEngine_TickBeforeInteract(t *testing.T) {
	f := newFixture(t, "Planted", catalog.StageSoilSeeded)
	g := f.tile.Growth()
	require.True(t, g.Interact(testutil.ActionWater, nil))
	g.Tick(7)

	// The tick completes the seeded stage first, so the water lands on the sprout.
	out := f.act(t, 3)

	assert.True(t, out.Report.StateChanged)
	assert.Equal(t, testutil.StageRoseSprout, g.Stage())
	assert.True(t, g.Watered())
}

func TestEngine_NoMatchingAction(t *testing.T) {
	f := newFixture(t, "Rock", catalog.StageGrass)

	out := f.act(t, 0)

	assert.False(t, out.Matched)
	assert.Empty(t, out.Report.Action)
	assert.Equal(t, 1, f.hover.calls)
	require.True(t, f.diags.Has(diag.CodeInvalidAction))
	assert.Equal(t, diag.LevelInfo, f.diags.All()[0].Level)

	require.Len(t, f.events.events, 1)
	assert.Empty(t, f.events.events[0].Action)
}

func TestEngine_UnknownTarget(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)

	require.True(t, f.engine.Submit(Request{TargetID: "nowhere"}))
	res := f.engine.Step(context.Background(), 0)

	assert.Empty(t, res.Outcomes)
	assert.Equal(t, []diag.Code{diag.CodeDataError}, f.diags.Codes())
	assert.Empty(t, f.events.events)
}

func TestEngine_UnknownActorStillPerforms(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)

	require.True(t, f.engine.Submit(Request{TargetID: "t1", ActorID: "ghost"}))
	res := f.engine.Step(context.Background(), 0)

	require.Len(t, res.Outcomes, 1)
	assert.Empty(t, res.Outcomes[0].ActorID)
	assert.Equal(t, catalog.StageSoilEmpty, f.tile.Growth().Stage())
	assert.True(t, f.diags.Has(diag.CodeDataError))
}

func TestEngine_PerformImmediately(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)
	f.engine.Step(context.Background(), 1)

	out := f.engine.Perform(context.Background(), f.tile, nil)

	assert.True(t, out.Matched)
	assert.Equal(t, int64(1), out.Frame, "immediate performs carry the last completed frame")
	assert.Equal(t, catalog.StageSoilEmpty, f.tile.Growth().Stage())
}

func TestEngine_EventLogErrorDoesNotStopSimulation(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)
	f.events.err = errors.New("disk full")

	out := f.act(t, 0)

	assert.True(t, out.Matched)
	assert.Equal(t, catalog.StageSoilEmpty, f.tile.Growth().Stage())
}

func TestEngine_Run(t *testing.T) {
	f := newFixture(t, "Planted", catalog.StageSoilSeeded)
	g := f.tile.Growth()
	require.True(t, g.Interact(testutil.ActionWater, nil))

	clock := testutil.NewManualClock(1)
	clock.Queue(5, 5)
	require.NoError(t, f.engine.Run(context.Background(), clock, 3))

	assert.Equal(t, int64(3), f.engine.Frame())
	assert.Equal(t, int64(3), clock.Frames())
	assert.Equal(t, testutil.StageRoseSprout, g.Stage())
}

func TestEngine_RunCancelled(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.engine.Run(ctx, FixedStep(1), 5)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), f.engine.Frame())
}

func TestEngine_RunNilClock(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)
	assert.Error(t, f.engine.Run(context.Background(), nil, 1))
}

func TestEngine_CloseRejectsSubmit(t *testing.T) {
	f := newFixture(t, "Grass", catalog.StageGrass)
	require.True(t, f.engine.Submit(Request{TargetID: "t1"}))
	f.engine.Close()

	assert.False(t, f.engine.Submit(Request{TargetID: "t1"}))
	assert.Equal(t, 1, f.engine.Pending())
}
