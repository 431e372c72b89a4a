package harness

import (
	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
	"github.com/roach88/homestead/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause and assertion holds.
	Pass bool `json:"pass"`

	// Trace holds one line per step, each followed by that step's
	// diagnostics (indented). Used for golden comparison.
	Trace []string `json:"trace"`

	// Errors contains failed expectations and assertions.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Issues are the catalog validator's findings. They do not fail the
	// scenario.
	Issues []catalog.Issue `json:"issues,omitempty"`

	// Invocations lists "Component.Method" calls made through invoke effects.
	Invocations []string `json:"invocations,omitempty"`

	// Diagnostics are every diagnostic reported while running, in order.
	Diagnostics []diag.Diagnostic `json:"-"`

	// Tiles and Events are read back from the scenario's store after the
	// last step.
	Tiles  []store.TileRecord  `json:"-"`
	Events []store.EventRecord `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Tile returns the saved tile with id.
func (r *Result) Tile(id string) (store.TileRecord, bool) {
	for _, t := range r.Tiles {
		if t.ID == id {
			return t, true
		}
	}
	return store.TileRecord{}, false
}
