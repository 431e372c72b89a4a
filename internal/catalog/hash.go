package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashDomain separates catalog hashes from any other sha256 use.
const hashDomain = "homestead/catalog/v1"

type plantView struct {
	Name       string            `json:"name"`
	SeedVisual VisualID          `json:"seed_visual,omitempty"`
	Stages     []StageDefinition `json:"stages"`
}

type actionView struct {
	Name         string             `json:"name"`
	TargetTag    string             `json:"tag,omitempty"`
	TargetVisual VisualID           `json:"visual,omitempty"`
	Seed         string             `json:"seed,omitempty"`
	Priority     int                `json:"priority,omitempty"`
	Effects      []EffectDefinition `json:"effects"`
}

type catalogView struct {
	Ground  *plantView   `json:"ground,omitempty"`
	Plants  []plantView  `json:"plants"`
	Actions []actionView `json:"actions"`
}

// ComputeHash returns a hex sha256 of the catalog content. Two catalogs with
// the same ground, plants and actions in the same order hash equal.
// Saves record it so a session can detect that its catalog changed.
func ComputeHash(c *Catalog) (string, error) {
	view := catalogView{}
	if c.Ground != nil {
		view.Ground = &plantView{Name: c.Ground.Name, SeedVisual: c.Ground.SeedVisual, Stages: c.Ground.Stages}
	}
	for _, p := range c.Plants {
		view.Plants = append(view.Plants, plantView{Name: p.Name, SeedVisual: p.SeedVisual, Stages: p.Stages})
	}
	for _, a := range c.Actions.List() {
		av := actionView{
			Name:         a.Name,
			TargetTag:    a.TargetTag,
			TargetVisual: a.TargetVisual,
			Priority:     a.Priority,
			Effects:      a.Effects,
		}
		if a.Seed != nil {
			av.Seed = a.Seed.Name
		}
		view.Actions = append(view.Actions, av)
	}

	data, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("marshal catalog: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
