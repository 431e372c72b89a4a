package growth

import (
	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
)

// rule is one row of the transition table: when the current stage's trigger
// field names the action, apply runs.
type rule struct {
	field func(catalog.StageDefinition) string
	apply func(i *Instance, seed *catalog.PlantDefinition) bool
}

// transitions is the single authoritative interaction table. Rows are
// evaluated in order and the first row whose trigger field equals the action
// name handles it, so a stage that reuses one action name for two triggers
// resolves to the earlier row:
//  1. till    - any stage declaring TillSoilAction moves to Soil_Empty
//  2. plant   - binds the seed carried by the action, moves to Soil_Seeded
//  3. water   - sets the watered flag once the cooldown has elapsed
//  4. harvest - returns to Soil_Empty and drops the species
var transitions = []rule{
	{func(s catalog.StageDefinition) string { return s.TillSoilAction }, tillSoil},
	{func(s catalog.StageDefinition) string { return s.PlantSeedAction }, plantSeed},
	{func(s catalog.StageDefinition) string { return s.WaterAction }, water},
	{func(s catalog.StageDefinition) string { return s.HarvestAction }, harvest},
}

func lookupRule(def catalog.StageDefinition, action string) (rule, bool) {
	for _, r := range transitions {
		if name := r.field(def); name != "" && name == action {
			return r, true
		}
	}
	return rule{}, false
}

func tillSoil(i *Instance, _ *catalog.PlantDefinition) bool {
	i.TransitionToStage(catalog.StageSoilEmpty)
	return true
}

func plantSeed(i *Instance, seed *catalog.PlantDefinition) bool {
	// The seed comes from the action, never from the stage.
	if seed == nil {
		i.sink.Report(diag.New(diag.CodeInvalidPayload, i.name,
			"plant action %q carries no seed", i.def.PlantSeedAction))
		return false
	}
	i.species = seed
	i.TransitionToStage(catalog.StageSoilSeeded)
	return true
}

func water(i *Instance, _ *catalog.PlantDefinition) bool {
	// A stage may name the water action without needing water.
	if !i.def.RequiresWatering {
		i.sink.Report(diag.New(diag.CodeNoTransition, i.name,
			"stage %q does not need watering", i.stage))
		return false
	}
	if i.timeSinceWatering < i.def.WateringCooldown {
		i.sink.Report(diag.New(diag.CodeCooldownNotElapsed, i.name,
			"watering cooldown not elapsed (%.2f of %.2f)", i.timeSinceWatering, i.def.WateringCooldown))
		return false
	}

	// Watering resets only the watering timer; the stage timer keeps running.
	i.watered = true
	i.timeSinceWatering = 0
	i.notify()
	return true
}

// harvest returns the tile to empty soil and clears the species binding:
// a species is bound only from the seeded stage onward.
func harvest(i *Instance, _ *catalog.PlantDefinition) bool {
	i.species = nil
	i.TransitionToStage(catalog.StageSoilEmpty)
	return true
}
