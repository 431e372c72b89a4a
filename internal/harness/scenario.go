package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSession is the session id used when a scenario names none.
const DefaultSession = "test-session-default"

// ActorID is the id of the actor every act step is performed by.
const ActorID = "player"

// Scenario defines a farm scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog lists CUE files or directories making up the catalog.
	// Paths are relative to the scenario file location.
	Catalog []string `yaml:"catalog"`

	// Capabilities lists "Component.Method" names registered as no-op
	// handlers, so invoke effects can succeed.
	Capabilities []string `yaml:"capabilities,omitempty"`

	// Tiles are created in order before the first step.
	Tiles []TileSpec `yaml:"tiles"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state, the event log and diagnostics.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Session is an optional fixed session id.
	// If empty, DefaultSession is used.
	Session string `yaml:"session,omitempty"`
}

// TileSpec describes an initial tile.
type TileSpec struct {
	ID         string   `yaml:"id"`
	Tag        string   `yaml:"tag"`
	Stage      string   `yaml:"stage,omitempty"`
	Species    string   `yaml:"species,omitempty"`
	Visual     string   `yaml:"visual,omitempty"`
	Components []string `yaml:"components,omitempty"`
	X          float64  `yaml:"x,omitempty"`
	Y          float64  `yaml:"y,omitempty"`
}

// Step is one scenario step. Exactly one of Tick, Act and Interact is set.
type Step struct {
	// Tick advances one frame by the given seconds.
	Tick *float64 `yaml:"tick,omitempty"`

	// Act submits the tile to the engine as the player's target and runs a
	// zero-length frame.
	Act string `yaml:"act,omitempty"`

	// Interact calls the tile's growth instance directly, bypassing the matcher.
	Interact *InteractStep `yaml:"interact,omitempty"`

	// Expect checks state right after the step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// InteractStep names a direct growth interaction.
type InteractStep struct {
	Tile   string `yaml:"tile"`
	Action string `yaml:"action"`

	// Seed names the species carried by the action.
	Seed string `yaml:"seed,omitempty"`
}

// Expect is a subset match on one tile after a step. Unset fields are not
// checked.
type Expect struct {
	// Tile defaults to the step's tile. Required for tick steps.
	Tile    string  `yaml:"tile,omitempty"`
	Stage   *string `yaml:"stage,omitempty"`
	Tag     *string `yaml:"tag,omitempty"`
	Visual  *string `yaml:"visual,omitempty"`
	Species *string `yaml:"species,omitempty"`
	Watered *bool   `yaml:"watered,omitempty"`

	// Action is the matched action of an act step; "" expects no match.
	Action *string `yaml:"action,omitempty"`

	// Changed is whether the step changed growth state (act, interact).
	Changed *bool `yaml:"changed,omitempty"`
}

// Assertion validates the outcome of a whole scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "tile_state": subset match on a saved tile
	// - "action_order": matched actions appear in order
	// - "action_count": matched action appears exactly Count times
	// - "diagnostic_count": diagnostic Code was reported exactly Count times
	Type string `yaml:"type"`

	Tile    string  `yaml:"tile,omitempty"`
	Stage   *string `yaml:"stage,omitempty"`
	Tag     *string `yaml:"tag,omitempty"`
	Visual  *string `yaml:"visual,omitempty"`
	Species *string `yaml:"species,omitempty"`
	Watered *bool   `yaml:"watered,omitempty"`

	Action  string   `yaml:"action,omitempty"`
	Actions []string `yaml:"actions,omitempty"`
	Code    string   `yaml:"code,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTileState       = "tile_state"
	AssertActionOrder     = "action_order"
	AssertActionCount     = "action_count"
	AssertDiagnosticCount = "diagnostic_count"
)

// LoadScenario reads and parses a scenario YAML file, resolving catalog
// paths relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving catalog paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve catalog paths relative to base path BEFORE validation
	for i, p := range scenario.Catalog {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Catalog[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Catalog) == 0 {
		return fmt.Errorf("catalog list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, p := range s.Catalog {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("catalog path not found: %s", p)
		}
	}

	tiles := make(map[string]bool)
	for i, t := range s.Tiles {
		if t.ID == "" {
			return fmt.Errorf("tiles[%d]: id is required", i)
		}
		if t.ID == ActorID {
			return fmt.Errorf("tiles[%d]: id %q is reserved for the actor", i, ActorID)
		}
		if tiles[t.ID] {
			return fmt.Errorf("tiles[%d]: duplicate id %q", i, t.ID)
		}
		tiles[t.ID] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, tiles); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step, tiles map[string]bool) error {
	set := 0
	if step.Tick != nil {
		set++
		if *step.Tick < 0 {
			return fmt.Errorf("steps[%d]: tick must be >= 0", index)
		}
	}
	if step.Act != "" {
		set++
		if !tiles[step.Act] {
			return fmt.Errorf("steps[%d]: act names unknown tile %q", index, step.Act)
		}
	}
	if step.Interact != nil {
		set++
		if !tiles[step.Interact.Tile] {
			return fmt.Errorf("steps[%d]: interact names unknown tile %q", index, step.Interact.Tile)
		}
		if step.Interact.Action == "" {
			return fmt.Errorf("steps[%d]: interact action is required", index)
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of tick, act, interact is required", index)
	}

	if step.Expect != nil {
		if step.Tick != nil && step.Expect.Tile == "" {
			return fmt.Errorf("steps[%d].expect: tile is required after a tick", index)
		}
		if step.Expect.Tile != "" && !tiles[step.Expect.Tile] {
			return fmt.Errorf("steps[%d].expect: unknown tile %q", index, step.Expect.Tile)
		}
		if step.Tick != nil && (step.Expect.Action != nil || step.Expect.Changed != nil) {
			return fmt.Errorf("steps[%d].expect: action and changed apply to act and interact steps", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTileState:
		if a.Tile == "" {
			return fmt.Errorf("assertions[%d]: tile is required for tile_state", index)
		}
	case AssertActionOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for action_order", index)
		}
	case AssertActionCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for action_count", index)
		}
	case AssertDiagnosticCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
