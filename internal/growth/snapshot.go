package growth

import (
	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
)

// Snapshot is the persistent part of an Instance.
type Snapshot struct {
	Stage             catalog.StageID
	Species           string // empty when unbound
	Watered           bool
	TimeInStage       float64
	TimeSinceWatering float64 // catalog.Never when never watered
}

// Snapshot captures the mutable state.
func (i *Instance) Snapshot() Snapshot {
	s := Snapshot{
		Stage:             i.stage,
		Watered:           i.watered,
		TimeInStage:       i.timeInStage,
		TimeSinceWatering: i.timeSinceWatering,
	}
	if i.species != nil {
		s.Species = i.species.Name
	}
	return s
}

// Restore replaces the state with s. Species names are resolved with
// lookup; an unknown species is reported and left unbound.
func (i *Instance) Restore(s Snapshot, lookup func(name string) (*catalog.PlantDefinition, bool)) {
	i.species = nil
	if s.Species != "" {
		if p, ok := lookup(s.Species); ok {
			i.species = p
		} else {
			i.sink.Report(diag.New(diag.CodeDataError, i.name, "unknown species %q in snapshot", s.Species).
				With("species", s.Species))
		}
	}

	i.stage = s.Stage
	if i.stage == "" {
		i.stage = catalog.StageGrass
	}
	i.watered = s.Watered
	i.timeInStage = s.TimeInStage
	i.timeSinceWatering = s.TimeSinceWatering
	i.def = i.resolve(i.stage)
	i.notify()
}
