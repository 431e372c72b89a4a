package catalog

import "math"

// StageID identifies a growth stage. The set is open and defined by the catalog.
type StageID string

// VisualID identifies a visual appearance (a sprite, in a renderer's terms).
type VisualID string

// Well-known stages every catalog is expected to use.
const (
	StageGrass      StageID = "Grass"
	StageSoilEmpty  StageID = "Soil_Empty"
	StageSoilSeeded StageID = "Soil_Seeded"
)

// Never is the value of a watering timer that has not started.
var Never = math.Inf(1)

// DeteriorationFactor scales a stage's watering cooldown into the grace
// period after which a watered tile dries out.
const DeteriorationFactor = 1.5

// StageDefinition is one growth stage of one plant species.
type StageDefinition struct {
	Stage            StageID
	Visual           VisualID
	WateredVisual    VisualID
	RequiresWatering bool
	Duration         float64 // 0 disables auto-progress
	WateringCooldown float64

	NextAuto           StageID
	NextOnWater        StageID
	NextOnPlayerAction StageID

	// Trigger action names. Empty means the field triggers nothing.
	PlantSeedAction string
	WaterAction     string
	HarvestAction   string
	TillSoilAction  string
}

// PlantDefinition is a species: its name, seed visual and ordered stages.
type PlantDefinition struct {
	Name       string
	SeedVisual VisualID
	Stages     []StageDefinition

	index map[StageID]int
}

// NewPlant builds a plant definition and indexes its stages.
// Later duplicates of a stage id are ignored by lookups; the compiler
// rejects them before this point.
func NewPlant(name string, seedVisual VisualID, stages []StageDefinition) *PlantDefinition {
	p := &PlantDefinition{
		Name:       name,
		SeedVisual: seedVisual,
		Stages:     stages,
		index:      make(map[StageID]int, len(stages)),
	}
	for i, s := range stages {
		if _, dup := p.index[s.Stage]; !dup {
			p.index[s.Stage] = i
		}
	}
	return p
}

// EffectKind discriminates EffectDefinition variants.
type EffectKind string

const (
	EffectChangeVisual          EffectKind = "change_visual"
	EffectChangeTag             EffectKind = "change_tag"
	EffectPlayActorAnimation    EffectKind = "actor_animation"
	EffectPlayTargetAnimation   EffectKind = "target_animation"
	EffectPlaySound             EffectKind = "sound"
	EffectApplyStatusEffect     EffectKind = "status_effect"
	EffectInvokeNamedCapability EffectKind = "invoke"
	EffectTriggerGrowthAction   EffectKind = "growth"
)

// EffectKinds lists every known kind in declaration order.
var EffectKinds = []EffectKind{
	EffectChangeVisual,
	EffectChangeTag,
	EffectPlayActorAnimation,
	EffectPlayTargetAnimation,
	EffectPlaySound,
	EffectApplyStatusEffect,
	EffectInvokeNamedCapability,
	EffectTriggerGrowthAction,
}

// Valid reports whether k is a known effect kind.
func (k EffectKind) Valid() bool {
	for _, known := range EffectKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EffectDefinition is one typed consequence of an action. Only the payload
// fields of its Kind are meaningful.
type EffectDefinition struct {
	Kind EffectKind

	Visual VisualID // change_visual
	Tag    string   // change_tag
	Clip   string   // actor_animation, target_animation, sound
	Status string   // status_effect

	Component string // invoke
	Method    string // invoke

	Action string // growth
}

// ActionDefinition is a declarative, player-invocable rule.
type ActionDefinition struct {
	Name         string
	TargetTag    string   // empty = no tag filter
	TargetVisual VisualID // empty = no visual filter
	Seed         *PlantDefinition
	Effects      []EffectDefinition

	// Priority orders actions within one match tier. Higher wins; equal
	// priorities keep catalog order.
	Priority int
}

// ActionCatalog is the insertion-ordered list of actions.
type ActionCatalog struct {
	Actions []*ActionDefinition
}

// Len returns the number of actions.
func (c *ActionCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Actions)
}

// Named returns the first action called name.
func (c *ActionCatalog) Named(name string) (*ActionDefinition, bool) {
	if c == nil {
		return nil, false
	}
	for _, a := range c.Actions {
		if a != nil && a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Catalog is a fully loaded rule set.
type Catalog struct {
	// Ground defines the species-independent stages (Grass, Soil_Empty).
	Ground *PlantDefinition

	// Plants in declaration order.
	Plants []*PlantDefinition

	Actions *ActionCatalog

	// Hash identifies the catalog content; see ComputeHash.
	Hash string
}

// Plant returns the species called name.
func (c *Catalog) Plant(name string) (*PlantDefinition, bool) {
	if c == nil {
		return nil, false
	}
	for _, p := range c.Plants {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// List returns the actions in catalog order. A nil catalog has none.
func (c *ActionCatalog) List() []*ActionDefinition {
	if c == nil {
		return nil
	}
	return c.Actions
}
