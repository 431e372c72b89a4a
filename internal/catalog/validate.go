package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// IssueCode categorizes validation findings.
type IssueCode string

const (
	IssueDanglingStage     IssueCode = "dangling_stage"
	IssueMissingGround     IssueCode = "missing_ground_stage"
	IssueUnreachableStage  IssueCode = "unreachable_stage"
	IssueUnusedSeed        IssueCode = "unused_seed"
	IssueUnknownTrigger    IssueCode = "unknown_trigger"
	IssueUnknownCapability IssueCode = "unknown_capability"
)

// Issue is one validation finding. Issues never stop a catalog from loading;
// the runtime falls back to safe defaults for every one of them.
type Issue struct {
	Code       IssueCode `json:"code"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
}

func (i Issue) String() string {
	s := fmt.Sprintf("%s: %s: %s", i.Code, i.Subject, i.Message)
	if i.Suggestion != "" {
		s += fmt.Sprintf(" (did you mean %q?)", i.Suggestion)
	}
	return s
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	// Capabilities lists registered "Component.Method" names. When nil,
	// invoke effects are not checked.
	Capabilities []string
}

// Validate inspects a compiled catalog for references the runtime can only
// resolve through fallbacks. The result is ordered by plant, then action.
func Validate(c *Catalog, opts ValidateOptions) []Issue {
	if c == nil {
		return nil
	}
	var issues []Issue

	for _, stage := range []StageID{StageGrass, StageSoilEmpty} {
		if !c.Ground.HasStage(stage) {
			issues = append(issues, Issue{
				Code:    IssueMissingGround,
				Subject: groundName(c),
				Message: fmt.Sprintf("ground does not define stage %q", stage),
			})
		}
	}

	plants := make([]*PlantDefinition, 0, len(c.Plants)+1)
	if c.Ground != nil {
		plants = append(plants, c.Ground)
	}
	plants = append(plants, c.Plants...)

	triggers := map[string]bool{}
	for _, p := range plants {
		for _, s := range p.Stages {
			for _, t := range s.Triggers() {
				triggers[t] = true
			}
			for _, next := range s.NextStages() {
				if p.HasStage(next) || c.Ground.HasStage(next) {
					continue
				}
				issues = append(issues, Issue{
					Code:    IssueDanglingStage,
					Subject: fmt.Sprintf("%s/%s", p.Name, s.Stage),
					Message: fmt.Sprintf("next stage %q is not defined", next),
				})
			}
		}
	}

	for _, p := range c.Plants {
		issues = append(issues, unreachable(p)...)
	}

	triggerNames := sortedKeys(triggers)
	capabilities := map[string]bool{}
	for _, name := range opts.Capabilities {
		capabilities[name] = true
	}

	for _, a := range c.Actions.List() {
		if a == nil {
			continue
		}
		hasGrowth := false
		for _, e := range a.Effects {
			switch e.Kind {
			case EffectTriggerGrowthAction:
				hasGrowth = true
				if e.Action != "" && !triggers[e.Action] {
					issues = append(issues, Issue{
						Code:       IssueUnknownTrigger,
						Subject:    a.Name,
						Message:    fmt.Sprintf("no stage is triggered by growth action %q", e.Action),
						Suggestion: closest(e.Action, triggerNames),
					})
				}
			case EffectInvokeNamedCapability:
				if opts.Capabilities == nil {
					continue
				}
				name := e.Component + "." + e.Method
				if !capabilities[name] {
					issues = append(issues, Issue{
						Code:       IssueUnknownCapability,
						Subject:    a.Name,
						Message:    fmt.Sprintf("capability %q is not registered", name),
						Suggestion: closest(name, opts.Capabilities),
					})
				}
			}
		}
		if a.Seed != nil && !hasGrowth {
			issues = append(issues, Issue{
				Code:    IssueUnusedSeed,
				Subject: a.Name,
				Message: fmt.Sprintf("seed %q is never delivered: action has no growth effect", a.Seed.Name),
			})
		}
	}

	return issues
}

// unreachable reports species stages with no path from Soil_Seeded.
// Species without a seeded stage are skipped.
func unreachable(p *PlantDefinition) []Issue {
	if !p.HasStage(StageSoilSeeded) {
		return nil
	}
	seen := map[StageID]bool{StageSoilSeeded: true}
	queue := []StageID{StageSoilSeeded}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		def, _ := p.find(cur)
		for _, next := range def.NextStages() {
			if !seen[next] && p.HasStage(next) {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	var issues []Issue
	for _, s := range p.Stages {
		if !seen[s.Stage] {
			issues = append(issues, Issue{
				Code:    IssueUnreachableStage,
				Subject: fmt.Sprintf("%s/%s", p.Name, s.Stage),
				Message: fmt.Sprintf("stage is not reachable from %s", StageSoilSeeded),
			})
		}
	}
	return issues
}

// closest returns the candidate nearest to name within an edit budget that
// grows with the candidate's length, or "" when nothing is close.
func closest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	lower := strings.ToLower(name)
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(lower, strings.ToLower(cand))
		if dist > suggestionLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

func suggestionLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

func groundName(c *Catalog) string {
	if c.Ground == nil {
		return "<ground>"
	}
	return c.Ground.Name
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
