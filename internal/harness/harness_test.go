package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
)

const roseCatalog = "testdata/catalog"

func ptr[T any](v T) *T { return &v }

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Till one tile",
		Catalog:     []string{roseCatalog},
		Tiles:       []TileSpec{{ID: "t1", Tag: "Grass"}},
		Steps: []Step{
			{Act: "t1", Expect: &Expect{Action: ptr("Till Soil"), Stage: ptr("Soil_Empty"), Tag: ptr("Soil"), Changed: ptr(true)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Issues)

	require.Len(t, result.Trace, 1)
	assert.Equal(t,
		"01 act t1 -> Till Soil (tag) applied=4 skipped=0 changed=true | t1 stage=Soil_Empty visual=soil tag=Soil species=- watered=false",
		result.Trace[0])
}

func TestRun_TilesAndEventsReadBack(t *testing.T) {
	scenario := &Scenario{
		Name:        "read_back",
		Description: "Saved state comes back from the store",
		Catalog:     []string{roseCatalog},
		Session:     "fixed-session",
		Tiles: []TileSpec{
			{ID: "t1", Tag: "Grass", X: 1, Y: 2},
			{ID: "t2", Tag: "Soil", Stage: "Soil_Empty"},
		},
		Steps: []Step{
			{Act: "t2"},
			{Tick: ptr(1.0)},
			{Act: "t1"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Tiles, 2)
	assert.Equal(t, "t1", result.Tiles[0].ID)
	assert.Equal(t, "t2", result.Tiles[1].ID)

	t2, ok := result.Tile("t2")
	require.True(t, ok)
	assert.Equal(t, catalog.StageSoilSeeded, t2.State.Stage)
	assert.Equal(t, "Rose", t2.State.Species)
	assert.Equal(t, catalog.VisualID("rose_seed"), t2.Visual)
	assert.Equal(t, 1.0, t2.State.TimeInStage)

	t1, ok := result.Tile("t1")
	require.True(t, ok)
	assert.Equal(t, 1.0, t1.Position.X)
	assert.Equal(t, 2.0, t1.Position.Y)

	require.Len(t, result.Events, 2)
	assert.Equal(t, "Plant Seed", result.Events[0].Action)
	assert.Equal(t, int64(1), result.Events[0].Frame)
	assert.Equal(t, "fixed-session", result.Events[0].Session)
	assert.Equal(t, "Till Soil", result.Events[1].Action)
	assert.Equal(t, int64(3), result.Events[1].Frame)
	assert.Equal(t, ActorID, result.Events[1].ActorID)
}

func TestRun_NoMatchingAction(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_match",
		Description: "A rock matches nothing",
		Catalog:     []string{roseCatalog},
		Tiles:       []TileSpec{{ID: "r1", Tag: "Rock"}},
		Steps: []Step{
			{Act: "r1", Expect: &Expect{Action: ptr(""), Tag: ptr("Rock")}},
		},
		Assertions: []Assertion{
			{Type: AssertDiagnosticCount, Code: string(diag.CodeInvalidAction), Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{
		"01 act r1 -> no action | r1 stage=Grass visual=grass tag=Rock species=- watered=false",
		`    info [invalid_action] r1: no action applies to tag "Rock" visual "grass"`,
	}, result.Trace)

	require.Len(t, result.Events, 1)
	assert.Empty(t, result.Events[0].Action)
}

func TestRun_InteractWithSeed(t *testing.T) {
	scenario := &Scenario{
		Name:        "interact_seed",
		Description: "Direct plant interaction binds the seed",
		Catalog:     []string{roseCatalog},
		Tiles:       []TileSpec{{ID: "t1", Tag: "Soil", Stage: "Soil_Empty"}},
		Steps: []Step{
			{
				Interact: &InteractStep{Tile: "t1", Action: "Plant Seed", Seed: "Rose"},
				Expect:   &Expect{Changed: ptr(true), Stage: ptr("Soil_Seeded"), Species: ptr("Rose"), Visual: ptr("rose_seed")},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t,
		"01 interact t1 Plant Seed seed=Rose -> changed=true | t1 stage=Soil_Seeded visual=rose_seed tag=Soil species=Rose watered=false",
		result.Trace[0])
	assert.Empty(t, result.Events)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Wrong expectation",
		Catalog:     []string{roseCatalog},
		Tiles:       []TileSpec{{ID: "t1", Tag: "Grass"}},
		Steps: []Step{
			{Act: "t1", Expect: &Expect{Stage: ptr("Soil_Seeded"), Changed: ptr(false)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		`steps[0]: t1: stage = "Soil_Empty", expected "Soil_Seeded"`,
		"steps[0]: t1: changed = true, expected false",
	}, result.Errors)
}

func TestRun_Capabilities(t *testing.T) {
	dir := t.TempDir()
	src := `
ground: stages: [{id: "Grass", visual: "grass"}]
actions: [{
	name: "Pump"
	tag:  "Well"
	effects: [
		{type: "invoke", call: "Pump.Start"},
		{type: "invoke", call: "Pump.Stop"},
	]
}]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "well.cue"), []byte(src), 0644))

	scenario := &Scenario{
		Name:         "capabilities",
		Description:  "Registered methods run, others are skipped",
		Catalog:      []string{dir},
		Capabilities: []string{"Pump.Start"},
		Tiles:        []TileSpec{{ID: "w1", Tag: "Well", Components: []string{"Pump"}}},
		Steps:        []Step{{Act: "w1"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"Pump.Start"}, result.Invocations)
	assert.Equal(t, []string{
		"01 act w1 -> Pump (tag) applied=1 skipped=1 changed=false | w1 stage=Grass visual=grass tag=Well species=- watered=false",
		`    warn [capability_missing] w1: method "Stop" not found on component "Pump"`,
	}, result.Trace)

	require.Len(t, result.Tiles, 1)
	assert.Equal(t, []string{"Pump"}, result.Tiles[0].Components)
	assert.NotEmpty(t, result.Issues)
}

func TestRun_BadCapabilityName(t *testing.T) {
	scenario := &Scenario{
		Name:         "bad_capability",
		Description:  "Malformed capability names are rejected",
		Catalog:      []string{roseCatalog},
		Capabilities: []string{"PumpStart"},
		Steps:        []Step{{Tick: ptr(1.0)}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capabilities")
}

func TestRun_UnknownSpecies(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown_species",
		Description: "Tiles must name a known species",
		Catalog:     []string{roseCatalog},
		Tiles:       []TileSpec{{ID: "t1", Tag: "Planted", Stage: "Soil_Seeded", Species: "Tulip"}},
		Steps:       []Step{{Tick: ptr(1.0)}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown species "Tulip"`)
}

func TestRun_CatalogError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(`actions: [{name: "X", effects: [{type: "dance"}]}]`), 0644))

	scenario := &Scenario{
		Name:        "catalog_error",
		Description: "Catalog load errors abort the run",
		Catalog:     []string{dir},
		Steps:       []Step{{Tick: ptr(1.0)}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load catalog")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rose_lifecycle.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Tiles, second.Tiles)
	assert.Equal(t, first.Events, second.Events)
}
