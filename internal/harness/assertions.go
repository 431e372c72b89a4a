package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/homestead/internal/diag"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, line := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

func evaluateAssertion(a Assertion, r *Result) error {
	switch a.Type {
	case AssertTileState:
		return assertTileState(a, r)
	case AssertActionOrder:
		return assertActionOrder(a, r)
	case AssertActionCount:
		return assertActionCount(a, r)
	case AssertDiagnosticCount:
		return assertDiagnosticCount(a, r)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertTileState checks the saved tile, as read back from the store.
func assertTileState(a Assertion, r *Result) error {
	rec, ok := r.Tile(a.Tile)
	if !ok {
		return &AssertionError{
			Type:     AssertTileState,
			Expected: fmt.Sprintf("saved tile %s", a.Tile),
			Actual:   "no such tile",
		}
	}
	errs := compareState(a.Tile, recordState(rec), a.Stage, a.Tag, a.Visual, a.Species, a.Watered)
	if len(errs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTileState,
		Expected: "tile state to match",
		Actual:   strings.Join(errs, "; "),
		Trace:    r.Trace,
	}
}

// assertActionOrder checks that the matched actions appear in order in the
// event log. Actions don't need to be consecutive.
func assertActionOrder(a Assertion, r *Result) error {
	next := 0
	for _, ev := range r.Events {
		if next < len(a.Actions) && ev.Action == a.Actions[next] {
			next++
		}
	}
	if next == len(a.Actions) {
		return nil
	}
	return &AssertionError{
		Type:     AssertActionOrder,
		Expected: strings.Join(a.Actions, " -> "),
		Actual:   fmt.Sprintf("order broke at %q; log: %s", a.Actions[next], strings.Join(eventActions(r), ", ")),
		Trace:    r.Trace,
	}
}

// assertActionCount checks that an action was matched exactly Count times.
func assertActionCount(a Assertion, r *Result) error {
	count := 0
	for _, ev := range r.Events {
		if ev.Action == a.Action {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertActionCount,
		Expected: fmt.Sprintf("%s matched %d times", a.Action, a.Count),
		Actual:   fmt.Sprintf("matched %d times", count),
		Trace:    r.Trace,
	}
}

// assertDiagnosticCount checks how often a diagnostic code was reported.
func assertDiagnosticCount(a Assertion, r *Result) error {
	count := 0
	for _, d := range r.Diagnostics {
		if d.Code == diag.Code(a.Code) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertDiagnosticCount,
		Expected: fmt.Sprintf("%s reported %d times", a.Code, a.Count),
		Actual:   fmt.Sprintf("reported %d times", count),
		Trace:    r.Trace,
	}
}

func eventActions(r *Result) []string {
	out := make([]string, len(r.Events))
	for i, ev := range r.Events {
		if ev.Action == "" {
			out[i] = "<none>"
			continue
		}
		out[i] = ev.Action
	}
	return out
}
