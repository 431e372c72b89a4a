package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Golden traces live in GoldenDir as <scenario name><GoldenSuffix>.
const (
	GoldenDir    = "testdata/golden"
	GoldenSuffix = ".golden"
)

// TraceBytes renders a trace as golden file content: one line per entry,
// newline terminated. An empty trace renders as no bytes.
func TraceBytes(trace []string) []byte {
	if len(trace) == 0 {
		return nil
	}
	return []byte(strings.Join(trace, "\n") + "\n")
}

// RunWithGolden runs scenario and fails t when its trace differs from the
// golden file. Regenerate with `go test ./internal/harness -update`.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's trace with the golden file
// for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(GoldenSuffix),
	).Assert(t, name, TraceBytes(result.Trace))
}
