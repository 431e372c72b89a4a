package catalog

import "github.com/roach88/homestead/internal/diag"

// HasStage reports whether the plant defines stage. A nil plant defines nothing.
func (p *PlantDefinition) HasStage(stage StageID) bool {
	_, ok := p.find(stage)
	return ok
}

// LookupStage returns the definition of stage.
//
// The lookup is total: when the stage is missing (or p is nil) it reports a
// data_error to sink and returns DefaultStage(stage).
func (p *PlantDefinition) LookupStage(stage StageID, sink diag.Sink) StageDefinition {
	if def, ok := p.find(stage); ok {
		return def
	}

	name := "<none>"
	if p != nil {
		name = p.Name
	}
	diag.OrDiscard(sink).Report(
		diag.New(diag.CodeDataError, name, "no data for stage %q, using safe default", stage).
			With("stage", string(stage)),
	)
	return DefaultStage(stage)
}

// DefaultStage is the safe record returned for an unknown stage: no duration,
// no watering, and every next-stage pointing back at itself.
func DefaultStage(stage StageID) StageDefinition {
	return StageDefinition{
		Stage:              stage,
		NextAuto:           stage,
		NextOnWater:        stage,
		NextOnPlayerAction: stage,
	}
}

func (p *PlantDefinition) find(stage StageID) (StageDefinition, bool) {
	if p == nil {
		return StageDefinition{}, false
	}
	if p.index != nil {
		i, ok := p.index[stage]
		if !ok {
			return StageDefinition{}, false
		}
		return p.Stages[i], true
	}
	// Literal construction without NewPlant: fall back to a scan.
	for _, s := range p.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageDefinition{}, false
}

// NextStages returns the non-empty next-stage references of s in field order.
func (s StageDefinition) NextStages() []StageID {
	out := make([]StageID, 0, 3)
	for _, next := range []StageID{s.NextAuto, s.NextOnWater, s.NextOnPlayerAction} {
		if next != "" {
			out = append(out, next)
		}
	}
	return out
}

// Triggers returns the non-empty trigger action names of s.
func (s StageDefinition) Triggers() []string {
	out := make([]string, 0, 4)
	for _, name := range []string{s.TillSoilAction, s.PlantSeedAction, s.WaterAction, s.HarvestAction} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
