package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario file next to an empty catalog directory.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "catalog"), 0755))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validScenario = `
name: till_once
description: "Till a grass tile"
catalog:
  - catalog
tiles:
  - id: t1
    tag: Grass
steps:
  - act: t1
    expect:
      stage: Soil_Empty
  - tick: 2.5
    expect:
      tile: t1
      watered: false
assertions:
  - type: action_count
    action: Till Soil
    count: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, validScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "till_once", scenario.Name)
	assert.Equal(t, "Till a grass tile", scenario.Description)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "catalog")}, scenario.Catalog)
	require.Len(t, scenario.Tiles, 1)
	assert.Equal(t, "Grass", scenario.Tiles[0].Tag)

	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, "t1", scenario.Steps[0].Act)
	require.NotNil(t, scenario.Steps[0].Expect.Stage)
	assert.Equal(t, "Soil_Empty", *scenario.Steps[0].Expect.Stage)
	require.NotNil(t, scenario.Steps[1].Tick)
	assert.Equal(t, 2.5, *scenario.Steps[1].Tick)
	require.NotNil(t, scenario.Steps[1].Expect.Watered)
	assert.False(t, *scenario.Steps[1].Expect.Watered)

	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertActionCount, scenario.Assertions[0].Type)
	assert.Equal(t, 1, scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, validScenario+"assertion: []\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ncatalog: [catalog]\nsteps: [{tick: 1}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing catalog",
			content: "name: n\ndescription: d\nsteps: [{tick: 1}]\n",
			wantErr: "catalog list is required",
		},
		{
			name:    "catalog path not found",
			content: "name: n\ndescription: d\ncatalog: [elsewhere]\nsteps: [{tick: 1}]\n",
			wantErr: "catalog path not found",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\ncatalog: [catalog]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "reserved tile id",
			content: "name: n\ndescription: d\ncatalog: [catalog]\ntiles: [{id: player, tag: Grass}]\nsteps: [{tick: 1}]\n",
			wantErr: "reserved for the actor",
		},
		{
			name:    "duplicate tile",
			content: "name: n\ndescription: d\ncatalog: [catalog]\ntiles: [{id: a}, {id: a}]\nsteps: [{tick: 1}]\n",
			wantErr: `duplicate id "a"`,
		},
		{
			name:    "act unknown tile",
			content: "name: n\ndescription: d\ncatalog: [catalog]\nsteps: [{act: t9}]\n",
			wantErr: `act names unknown tile "t9"`,
		},
		{
			name:    "two step kinds",
			content: "name: n\ndescription: d\ncatalog: [catalog]\ntiles: [{id: t1}]\nsteps: [{act: t1, tick: 1}]\n",
			wantErr: "exactly one of tick, act, interact",
		},
		{
			name:    "negative tick",
			content: "name: n\ndescription: d\ncatalog: [catalog]\nsteps: [{tick: -1}]\n",
			wantErr: "tick must be >= 0",
		},
		{
			name:    "tick expect without tile",
			content: "name: n\ndescription: d\ncatalog: [catalog]\nsteps: [{tick: 1, expect: {stage: Grass}}]\n",
			wantErr: "tile is required after a tick",
		},
		{
			name:    "interact without action",
			content: "name: n\ndescription: d\ncatalog: [catalog]\ntiles: [{id: t1}]\nsteps: [{interact: {tile: t1}}]\n",
			wantErr: "interact action is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\ncatalog: [catalog]\nsteps: [{tick: 1}]\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "action_order without actions",
			content: "name: n\ndescription: d\ncatalog: [catalog]\nsteps: [{tick: 1}]\nassertions: [{type: action_order}]\n",
			wantErr: "actions list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.content)

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_RoseLifecycle(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rose_lifecycle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "rose_lifecycle", scenario.Name)
	assert.Len(t, scenario.Steps, 14)
	assert.Len(t, scenario.Assertions, 4)
}
