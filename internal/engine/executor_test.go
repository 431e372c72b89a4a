package engine

import (
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

type hoverRecorder struct{ calls int }

func (h *hoverRecorder) ClearHover() { h.calls++ }

type played struct {
	clip string
	pos  world.Vec2
}

type audioRecorder struct{ played []played }

func (a *audioRecorder) PlayAt(clip string, pos world.Vec2) {
	a.played = append(a.played, played{clip: clip, pos: pos})
}

type animRecorder struct{ clips []string }

func (a *animRecorder) Play(clip string) { a.clips = append(a.clips, clip) }

func newTile(t *testing.T, cat *catalog.Catalog, id, tag string, stage catalog.StageID, sink diag.Sink, opts ...growth.Option) *world.Tile {
	t.Helper()
	return world.NewTile(world.TileConfig{
		ID:            id,
		Tag:           tag,
		Stage:         stage,
		Ground:        cat.Ground,
		GrowthOptions: append([]growth.Option{growth.WithSink(sink)}, opts...),
	})
}

func skippedCodes(r Report) []diag.Code {
	var out []diag.Code
	for _, s := range r.Skipped {
		out = append(out, s.Diagnostic.Code)
	}
	return out
}

func TestExecute_PartialFailure(t *testing.T) {
	hover := &hoverRecorder{}
	rec := &diag.Recorder{}
	x := NewExecutor(
		WithSelection(hover),
		WithCapabilities(NewCapabilityRegistry()),
		WithDiagnostics(rec),
	)

	target := world.NewObject("crate", world.Vec2{}).Attach(world.KindVisual, world.NewSprite("crate_closed"))
	action := &catalog.ActionDefinition{
		Name: "Open",
		Effects: []catalog.EffectDefinition{
			{Kind: catalog.EffectChangeVisual, Visual: "crate_open"},
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Lock", Method: "Release"},
		},
	}

	report := x.Execute(action, target, nil)

	assert.Equal(t, "Open", report.Action)
	assert.Equal(t, catalog.VisualID("crate_open"), world.VisualOf(target))
	require.Len(t, report.Applied, 1)
	assert.Equal(t, catalog.EffectChangeVisual, report.Applied[0].Kind)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 1, report.Skipped[0].Index)
	assert.Equal(t, diag.CodeCapabilityMissing, report.Skipped[0].Diagnostic.Code)
	assert.Equal(t, "invoke", report.Skipped[0].Diagnostic.Details["effect"])
	assert.Equal(t, "1", report.Skipped[0].Diagnostic.Details["index"])

	assert.Equal(t, []diag.Code{diag.CodeCapabilityMissing}, rec.Codes())
	assert.Equal(t, 1, hover.calls, "hover is cleared once per execution")
}

func TestExecute_TillSoilOnTile(t *testing.T) {
	cat := testutil.RoseCatalog()
	rec := &diag.Recorder{}
	audio := &audioRecorder{}
	anim := &animRecorder{}

	tile := newTile(t, cat, "t1", "Grass", catalog.StageGrass, rec)
	actor := world.NewActor("player", world.Vec2{X: 3, Y: 4}).
		Attach(world.KindAnimation, anim).
		Attach(world.KindAudio, audio)

	till, ok := cat.Actions.Named(testutil.ActionTillSoil)
	require.True(t, ok)

	report := NewExecutor(WithDiagnostics(rec)).Execute(till, tile, actor)

	assert.Len(t, report.Applied, 4)
	assert.Empty(t, report.Skipped)
	assert.True(t, report.StateChanged)

	assert.Equal(t, catalog.StageSoilEmpty, tile.Growth().Stage())
	assert.Equal(t, "Soil", tile.Tag())
	assert.Equal(t, catalog.VisualID("soil"), tile.VisualID())
	assert.Equal(t, []string{"swing_hoe"}, anim.clips)
	assert.Equal(t, []played{{clip: "till", pos: world.Vec2{X: 3, Y: 4}}}, audio.played)
	assert.Empty(t, rec.All())
}

func TestExecute_PlantSeedBindsSpecies(t *testing.T) {
	cat := testutil.RoseCatalog()
	tile := newTile(t, cat, "t1", "Soil", catalog.StageSoilEmpty, nil)
	require.Equal(t, catalog.VisualID("soil"), tile.VisualID())

	plant, ok := cat.Actions.Named(testutil.ActionPlantSeed)
	require.True(t, ok)

	report := NewExecutor().Execute(plant, tile, world.NewActor("player", world.Vec2{}))

	assert.True(t, report.StateChanged)
	assert.Equal(t, catalog.StageSoilSeeded, tile.Growth().Stage())
	require.NotNil(t, tile.Growth().Species())
	assert.Equal(t, "Rose", tile.Growth().Species().Name)
	assert.Equal(t, catalog.VisualID("rose_seed"), tile.VisualID())
	assert.Equal(t, "Planted", tile.Tag())

	// The actor has no animator: only that effect is skipped.
	assert.Equal(t, []diag.Code{diag.CodeCapabilityMissing}, skippedCodes(report))
	assert.Equal(t, catalog.EffectPlayActorAnimation, report.Skipped[0].Kind)
}

func TestExecute_MissingCollaboratorsAreSkipped(t *testing.T) {
	cat := testutil.RoseCatalog()
	tile := newTile(t, cat, "t1", "Grass", catalog.StageGrass, nil)
	till, _ := cat.Actions.Named(testutil.ActionTillSoil)

	report := NewExecutor().Execute(till, tile, world.NewActor("player", world.Vec2{}))

	assert.Len(t, report.Applied, 2)
	assert.Equal(t, []diag.Code{diag.CodeCapabilityMissing, diag.CodeCapabilityMissing}, skippedCodes(report))
	assert.Equal(t, catalog.StageSoilEmpty, tile.Growth().Stage(), "later failures do not undo earlier effects")
}

func TestExecute_SoundFallsBackToDefaultAudio(t *testing.T) {
	audio := &audioRecorder{}
	x := NewExecutor(WithAudio(audio))
	action := &catalog.ActionDefinition{
		Name:    "Ring",
		Effects: []catalog.EffectDefinition{{Kind: catalog.EffectPlaySound, Clip: "bell"}},
	}

	target := world.NewObject("bell", world.Vec2{X: 9, Y: 9})
	actor := world.NewActor("player", world.Vec2{X: 1, Y: 2})

	report := x.Execute(action, target, actor)
	require.Len(t, report.Applied, 1)
	assert.Equal(t, []played{{clip: "bell", pos: world.Vec2{X: 1, Y: 2}}}, audio.played)

	// Without an actor the sound plays at the target.
	x.Execute(action, target, nil)
	assert.Equal(t, world.Vec2{X: 9, Y: 9}, audio.played[1].pos)
}

func TestExecute_TargetAnimation(t *testing.T) {
	anim := &animRecorder{}
	target := world.NewObject("door", world.Vec2{}).Attach(world.KindAnimation, anim)
	action := &catalog.ActionDefinition{
		Name:    "Knock",
		Effects: []catalog.EffectDefinition{{Kind: catalog.EffectPlayTargetAnimation, Clip: "rattle"}},
	}

	report := NewExecutor().Execute(action, target, nil)
	assert.Len(t, report.Applied, 1)
	assert.Equal(t, []string{"rattle"}, anim.clips)
}

func TestExecute_InvalidPayloads(t *testing.T) {
	target := world.NewObject("thing", world.Vec2{}).
		Attach(world.KindVisual, world.NewSprite("a")).
		Attach(world.KindTag, world.NewLabel("b"))
	action := &catalog.ActionDefinition{
		Name: "Broken",
		Effects: []catalog.EffectDefinition{
			{Kind: catalog.EffectChangeVisual},
			{Kind: catalog.EffectChangeTag},
			{Kind: catalog.EffectPlaySound},
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Pump"},
			{Kind: catalog.EffectTriggerGrowthAction},
		},
	}

	report := NewExecutor().Execute(action, target, nil)

	assert.Empty(t, report.Applied)
	require.Len(t, report.Skipped, 5)
	for _, s := range report.Skipped {
		assert.Equal(t, diag.CodeInvalidPayload, s.Diagnostic.Code, "effect %d", s.Index)
	}
	assert.Equal(t, catalog.VisualID("a"), world.VisualOf(target))
	assert.Equal(t, "b", world.TagOf(target))
}

func TestExecute_StatusEffectIsUnimplemented(t *testing.T) {
	action := &catalog.ActionDefinition{
		Name: "Bless",
		Effects: []catalog.EffectDefinition{
			{Kind: catalog.EffectApplyStatusEffect, Status: "blessed"},
			{Kind: catalog.EffectChangeTag, Tag: "Blessed"},
		},
	}
	target := world.NewObject("shrine", world.Vec2{}).Attach(world.KindTag, world.NewLabel("Shrine"))

	report := NewExecutor().Execute(action, target, nil)

	assert.Equal(t, []diag.Code{diag.CodeUnimplementedEffect}, skippedCodes(report))
	assert.Equal(t, "Blessed", world.TagOf(target), "the pipeline continues after a skipped effect")
}

func TestExecute_UnknownEffectKind(t *testing.T) {
	action := &catalog.ActionDefinition{
		Name:    "Weird",
		Effects: []catalog.EffectDefinition{{Kind: "teleport"}},
	}

	report := NewExecutor().Execute(action, world.NewObject("x", world.Vec2{}), nil)
	assert.Equal(t, []diag.Code{diag.CodeDataError}, skippedCodes(report))
}

func TestExecute_InvokeNamedCapability(t *testing.T) {
	var invokedOn []string
	reg := NewCapabilityRegistry()
	reg.MustRegister("Pump", "Start", func(target world.Entity) error {
		invokedOn = append(invokedOn, target.ID())
		return nil
	})
	reg.MustRegister("Pump", "Jam", func(world.Entity) error {
		return errors.New("gears stuck")
	})
	reg.MustRegister("Pump", "Explode", func(world.Entity) error {
		panic("boom")
	})

	target := world.NewObject("well", world.Vec2{}).
		AddComponent("Pump").
		Attach(world.KindTag, world.NewLabel("Well"))
	action := &catalog.ActionDefinition{
		Name: "Operate",
		Effects: []catalog.EffectDefinition{
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Pump", Method: "Start"},
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Pump", Method: "Jam"},
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Pump", Method: "Explode"},
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Pump", Method: "Missing"},
			{Kind: catalog.EffectInvokeNamedCapability, Component: "Hose", Method: "Start"},
			{Kind: catalog.EffectChangeTag, Tag: "Running"},
		},
	}

	report := NewExecutor(WithCapabilities(reg)).Execute(action, target, nil)

	assert.Equal(t, []string{"well"}, invokedOn)
	assert.Equal(t, []diag.Code{
		diag.CodeEffectFailed,
		diag.CodeEffectFailed,
		diag.CodeCapabilityMissing,
		diag.CodeCapabilityMissing,
	}, skippedCodes(report))
	assert.Contains(t, report.Skipped[0].Diagnostic.Message, "gears stuck")
	assert.Contains(t, report.Skipped[1].Diagnostic.Message, "boom")
	assert.Equal(t, "Running", world.TagOf(target))
}

func TestExecute_GrowthWithoutInstanceIsNoOp(t *testing.T) {
	rec := &diag.Recorder{}
	action := &catalog.ActionDefinition{
		Name:    "Water",
		Effects: []catalog.EffectDefinition{{Kind: catalog.EffectTriggerGrowthAction, Action: "Water"}},
	}

	report := NewExecutor(WithDiagnostics(rec)).Execute(action, world.NewObject("rock", world.Vec2{}), nil)

	assert.Empty(t, report.Skipped)
	require.Len(t, report.Applied, 1)
	assert.Equal(t, catalog.EffectTriggerGrowthAction, report.Applied[0].Kind)
	assert.False(t, report.StateChanged)

	all := rec.All()
	require.Len(t, all, 1)
	assert.Equal(t, diag.CodeCapabilityMissing, all[0].Code)
	assert.Equal(t, diag.LevelDebug, all[0].Level)
	assert.Equal(t, "rock", all[0].Subject)
	assert.Equal(t, "0", all[0].Details["index"])
}

func TestExecute_GrowthWithoutTransitionLeavesStateUnchanged(t *testing.T) {
	cat := testutil.RoseCatalog()
	rec := &diag.Recorder{}
	tile := newTile(t, cat, "t1", "Grass", catalog.StageGrass, rec)
	action := &catalog.ActionDefinition{
		Name:    testutil.ActionWater,
		Effects: []catalog.EffectDefinition{{Kind: catalog.EffectTriggerGrowthAction, Action: testutil.ActionWater}},
	}

	report := NewExecutor().Execute(action, tile, nil)

	assert.Len(t, report.Applied, 1)
	assert.False(t, report.StateChanged)
	assert.Equal(t, catalog.StageGrass, tile.Growth().Stage())
	assert.True(t, rec.Has(diag.CodeNoTransition))
}

func TestExecute_NilActionClearsHover(t *testing.T) {
	hover := &hoverRecorder{}
	rec := &diag.Recorder{}

	report := NewExecutor(WithSelection(hover), WithDiagnostics(rec)).Execute(nil, nil, nil)

	assert.Empty(t, report.Applied)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 1, hover.calls)
	assert.Equal(t, []diag.Code{diag.CodeInvalidAction}, rec.Codes())
}
