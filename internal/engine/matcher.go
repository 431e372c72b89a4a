package engine

import (
	"github.com/roach88/homestead/internal/catalog"
)

// Tier is the match tier an action was selected in. Lower tiers are more
// specific and are tried first.
type Tier int

const (
	// TierTagAndVisual: tag filter equals the target tag and visual filter
	// equals the target visual.
	TierTagAndVisual Tier = iota + 1
	// TierTagOnly: tag filter equals the target tag, no visual filter.
	TierTagOnly
	// TierVisualOnly: no tag filter, visual filter equals the target visual.
	TierVisualOnly
)

func (t Tier) String() string {
	switch t {
	case TierTagAndVisual:
		return "tag+visual"
	case TierTagOnly:
		return "tag"
	case TierVisualOnly:
		return "visual"
	default:
		return "none"
	}
}

// tiers holds the tier predicates in evaluation order.
//
// A filter is present when non-empty. An empty target tag or visual never
// satisfies a present filter, so a target without a visual can only match
// in TierTagOnly.
var tiers = []struct {
	tier  Tier
	match func(a *catalog.ActionDefinition, tag string, visual catalog.VisualID) bool
}{
	{
		tier: TierTagAndVisual,
		match: func(a *catalog.ActionDefinition, tag string, visual catalog.VisualID) bool {
			return a.TargetTag != "" && a.TargetTag == tag &&
				a.TargetVisual != "" && a.TargetVisual == visual
		},
	},
	{
		tier: TierTagOnly,
		match: func(a *catalog.ActionDefinition, tag string, _ catalog.VisualID) bool {
			return a.TargetTag != "" && a.TargetTag == tag && a.TargetVisual == ""
		},
	},
	{
		tier: TierVisualOnly,
		match: func(a *catalog.ActionDefinition, _ string, visual catalog.VisualID) bool {
			return a.TargetTag == "" && a.TargetVisual != "" && a.TargetVisual == visual
		},
	},
}

// Match is a matcher result.
type Match struct {
	Action *catalog.ActionDefinition
	Tier   Tier
}

// MatchAction selects the best action for a target with the given tag and
// visual. Tiers are evaluated in order and the first tier with a candidate
// wins. Within a tier the candidate with the highest Priority wins; equal
// priorities resolve to the earliest catalog entry.
//
// Returns false when no tier has a candidate. That is "no applicable
// action", not an error.
func MatchAction(tag string, visual catalog.VisualID, cat *catalog.ActionCatalog) (Match, bool) {
	actions := cat.List()
	for _, t := range tiers {
		var best *catalog.ActionDefinition
		for _, a := range actions {
			if a == nil || !t.match(a, tag, visual) {
				continue
			}
			if best == nil || a.Priority > best.Priority {
				best = a
			}
		}
		if best != nil {
			return Match{Action: best, Tier: t.tier}, true
		}
	}
	return Match{}, false
}

// FindBestMatch returns the best action for the target, or (nil, false).
func FindBestMatch(tag string, visual catalog.VisualID, cat *catalog.ActionCatalog) (*catalog.ActionDefinition, bool) {
	m, ok := MatchAction(tag, visual, cat)
	return m.Action, ok
}
