package growth

import (
	"fmt"
	"math"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
)

// Observer is told about the derived visual after every transition and
// every change of the watered flag.
type Observer interface {
	VisualChanged(inst *Instance, visual catalog.VisualID)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(inst *Instance, visual catalog.VisualID)

// VisualChanged calls f.
func (f ObserverFunc) VisualChanged(inst *Instance, visual catalog.VisualID) { f(inst, visual) }

// Instance is the growth state of one tile.
type Instance struct {
	name     string
	ground   *catalog.PlantDefinition
	species  *catalog.PlantDefinition
	sink     diag.Sink
	observer Observer

	stage             catalog.StageID
	def               catalog.StageDefinition
	watered           bool
	timeInStage       float64
	timeSinceWatering float64
}

// Option configures an Instance.
type Option func(*Instance)

// WithSink sets the diagnostic sink. The default discards.
func WithSink(s diag.Sink) Option {
	return func(i *Instance) { i.sink = diag.OrDiscard(s) }
}

// WithObserver sets the visual observer.
func WithObserver(o Observer) Option {
	return func(i *Instance) { i.observer = o }
}

// WithName sets the subject used in diagnostics (usually the tile id).
func WithName(name string) Option {
	return func(i *Instance) { i.name = name }
}

// WithSpecies binds a species at construction, for tiles that start planted.
func WithSpecies(p *catalog.PlantDefinition) Option {
	return func(i *Instance) { i.species = p }
}

// New creates an instance in the initial stage. ground supplies the
// species-independent stages; it may be nil, in which case those stages
// resolve to safe defaults.
func New(ground *catalog.PlantDefinition, initial catalog.StageID, opts ...Option) *Instance {
	if initial == "" {
		initial = catalog.StageGrass
	}
	i := &Instance{
		ground:            ground,
		sink:              diag.Discard,
		stage:             initial,
		timeSinceWatering: catalog.Never,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.def = i.resolve(initial)
	return i
}

// Stage returns the current stage.
func (i *Instance) Stage() catalog.StageID { return i.stage }

// StageData returns the resolved definition of the current stage.
func (i *Instance) StageData() catalog.StageDefinition { return i.def }

// Species returns the bound species, or nil.
func (i *Instance) Species() *catalog.PlantDefinition { return i.species }

// Watered reports the watered flag.
func (i *Instance) Watered() bool { return i.watered }

// TimeInStage returns seconds spent in the current stage.
func (i *Instance) TimeInStage() float64 { return i.timeInStage }

// TimeSinceWatering returns seconds since the last successful watering,
// or catalog.Never.
func (i *Instance) TimeSinceWatering() float64 { return i.timeSinceWatering }

// Name returns the diagnostic subject.
func (i *Instance) Name() string { return i.name }

// Tick advances the timers by dt and applies at most one time-based change:
// auto-progress when the stage has run its duration (and is watered, if it
// needs to be), otherwise deterioration of the watered flag once
// WateringCooldown*DeteriorationFactor has passed since the last watering.
func (i *Instance) Tick(dt float64) {
	if dt < 0 || math.IsNaN(dt) {
		i.sink.Report(diag.Diagnostic{
			Code:    diag.CodeDataError,
			Level:   diag.LevelWarn,
			Subject: i.name,
			Message: fmt.Sprintf("invalid tick delta %v, treated as 0", dt),
		})
		dt = 0
	}

	i.timeInStage += dt
	i.timeSinceWatering += dt

	def := i.def
	if def.Duration > 0 && i.timeInStage >= def.Duration && (!def.RequiresWatering || i.watered) {
		next := def.NextAuto
		if next == "" {
			next = i.stage
		}
		i.TransitionToStage(next)
		return
	}

	if def.RequiresWatering && i.watered &&
		i.timeSinceWatering >= def.WateringCooldown*catalog.DeteriorationFactor {
		i.watered = false
		i.notify()
	}
}

// Interact applies a player action to the tile and reports whether its
// state changed. seed is the species carried by the action, if any; it is
// only consumed by a plant-seed transition.
func (i *Instance) Interact(action string, seed *catalog.PlantDefinition) bool {
	if action != "" {
		if r, ok := lookupRule(i.def, action); ok {
			return r.apply(i, seed)
		}
	}

	i.sink.Report(diag.New(diag.CodeNoTransition, i.name,
		"action %q has no transition from stage %q", action, i.stage))
	return false
}

// TransitionToStage moves to stage: timers and the watered flag reset and
// the stage data is re-resolved.
func (i *Instance) TransitionToStage(stage catalog.StageID) {
	i.stage = stage
	i.timeInStage = 0
	i.watered = false
	i.timeSinceWatering = catalog.Never
	i.def = i.resolve(stage)
	i.notify()
}

// VisualID derives the visual for the current state:
//  1. a stage that needs water shows its watered visual while watered,
//  2. otherwise the stage's own visual,
//  3. a seeded stage without stage data of its own (the safe default)
//     falls back to the bound species' seed visual.
func (i *Instance) VisualID() catalog.VisualID {
	if i.def.RequiresWatering && i.watered && i.def.WateredVisual != "" {
		return i.def.WateredVisual
	}
	if i.def.Visual != "" {
		return i.def.Visual
	}
	if i.stage == catalog.StageSoilSeeded && i.species != nil {
		return i.species.SeedVisual
	}
	return ""
}

// resolve finds stage data in the species, then the ground, and otherwise
// falls back to the safe default through LookupStage (which reports it).
func (i *Instance) resolve(stage catalog.StageID) catalog.StageDefinition {
	if i.species.HasStage(stage) {
		return i.species.LookupStage(stage, i.sink)
	}
	if i.ground.HasStage(stage) {
		return i.ground.LookupStage(stage, i.sink)
	}
	owner := i.species
	if owner == nil {
		owner = i.ground
	}
	return owner.LookupStage(stage, i.sink)
}

func (i *Instance) notify() {
	if i.observer != nil {
		i.observer.VisualChanged(i, i.VisualID())
	}
}
