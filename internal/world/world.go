package world

import (
	"fmt"

	"github.com/roach88/homestead/internal/growth"
)

// World is the ordered set of live entities. Registration order is the
// order the driver ticks growth instances in.
type World struct {
	order    []string
	entities map[string]Entity
}

// New creates an empty world.
func New() *World {
	return &World{entities: make(map[string]Entity)}
}

// Add registers e. Ids are unique.
func (w *World) Add(e Entity) error {
	if e == nil {
		return fmt.Errorf("add entity: nil entity")
	}
	if _, exists := w.entities[e.ID()]; exists {
		return fmt.Errorf("add entity: duplicate id %q", e.ID())
	}
	w.entities[e.ID()] = e
	w.order = append(w.order, e.ID())
	return nil
}

// Remove unregisters the entity with id. Unknown ids are ignored.
func (w *World) Remove(id string) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	delete(w.entities, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Get returns the entity with id.
func (w *World) Get(id string) (Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Len returns the number of entities.
func (w *World) Len() int { return len(w.order) }

// Entities returns the entities in registration order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.entities[id])
	}
	return out
}

// Tiles returns the registered tiles in registration order.
func (w *World) Tiles() []*Tile {
	var out []*Tile
	for _, id := range w.order {
		if t, ok := w.entities[id].(*Tile); ok {
			out = append(out, t)
		}
	}
	return out
}

// GrowthInstances returns every live growth instance in registration order.
func (w *World) GrowthInstances() []*growth.Instance {
	var out []*growth.Instance
	for _, id := range w.order {
		if g, ok := Growth(w.entities[id]); ok {
			out = append(out, g)
		}
	}
	return out
}
