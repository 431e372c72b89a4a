// Package harness runs farm scenarios against the real engine and checks
// them against expectations and golden traces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog:
//	  - path/to/catalog_dir      # relative to the scenario file
//	tiles:
//	  - id: t1
//	    tag: Grass
//	    stage: Grass
//	steps:
//	  - act: t1                  # match and execute the best action
//	    expect: { stage: Soil_Empty, action: Till Soil }
//	  - tick: 10                 # advance one frame by 10 seconds
//	  - interact: { tile: t1, action: Water }
//	    expect: { changed: false }
//	assertions:
//	  - type: tile_state
//	    tile: t1
//	    stage: Soil_Empty
//
// # Determinism
//
// Each scenario runs on a fresh in-memory store with a fixed session id.
// The trace is plain text: one line per step with the state of the tiles
// after it, followed by the diagnostics the step produced.
package harness
