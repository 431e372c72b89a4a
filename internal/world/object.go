package world

import (
	"sort"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/growth"
)

// Object is the general Entity: an id, a position, a capability set and a
// set of named components.
type Object struct {
	id         string
	pos        Vec2
	caps       map[Kind]any
	components map[string]bool
}

// NewObject creates an object with no capabilities.
func NewObject(id string, pos Vec2) *Object {
	return &Object{
		id:         id,
		pos:        pos,
		caps:       make(map[Kind]any),
		components: make(map[string]bool),
	}
}

func (o *Object) ID() string     { return o.id }
func (o *Object) Position() Vec2 { return o.pos }

// Capability implements Entity.
func (o *Object) Capability(k Kind) (any, bool) {
	c, ok := o.caps[k]
	return c, ok
}

// Attach sets the capability of kind k, replacing any previous one.
func (o *Object) Attach(k Kind, c any) *Object {
	o.caps[k] = c
	return o
}

// AddComponent attaches named components.
func (o *Object) AddComponent(names ...string) *Object {
	for _, n := range names {
		o.components[n] = true
	}
	return o
}

// HasComponent implements Entity.
func (o *Object) HasComponent(name string) bool {
	return o.components[name]
}

// Components returns the attached component names, sorted.
func (o *Object) Components() []string {
	out := make([]string, 0, len(o.components))
	for n := range o.components {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Tile is an interactable ground tile hosting a growth instance. The tile's
// visual follows the instance's derived visual.
type Tile struct {
	*Object
	sprite *Sprite
	label  *Label
	growth *growth.Instance
}

// TileConfig describes a new tile.
type TileConfig struct {
	ID       string
	Position Vec2
	Tag      string
	Stage    catalog.StageID
	Ground   *catalog.PlantDefinition

	// Visual is the initial visual. When empty, the growth instance's
	// derived visual is used.
	Visual catalog.VisualID

	GrowthOptions []growth.Option
}

// NewTile creates a tile with visual, tag and growth capabilities.
func NewTile(cfg TileConfig) *Tile {
	t := &Tile{
		Object: NewObject(cfg.ID, cfg.Position),
		sprite: NewSprite(cfg.Visual),
		label:  NewLabel(cfg.Tag),
	}

	opts := append([]growth.Option{growth.WithName(cfg.ID)}, cfg.GrowthOptions...)
	opts = append(opts, growth.WithObserver(growth.ObserverFunc(t.visualChanged)))
	t.growth = growth.New(cfg.Ground, cfg.Stage, opts...)
	if cfg.Visual == "" {
		t.sprite.SetVisualID(t.growth.VisualID())
	}

	t.Attach(KindVisual, t.sprite)
	t.Attach(KindTag, t.label)
	t.Attach(KindGrowth, t.growth)
	return t
}

// Growth returns the tile's growth instance.
func (t *Tile) Growth() *growth.Instance { return t.growth }

// VisualID returns the tile's current visual.
func (t *Tile) VisualID() catalog.VisualID { return t.sprite.VisualID() }

// Tag returns the tile's current tag.
func (t *Tile) Tag() string { return t.label.Tag() }

// SetTag replaces the tile's tag.
func (t *Tile) SetTag(tag string) { t.label.SetTag(tag) }

// visualChanged keeps the sprite in step with the growth state. An empty
// derived visual leaves the sprite as it is.
func (t *Tile) visualChanged(_ *growth.Instance, v catalog.VisualID) {
	if v != "" {
		t.sprite.SetVisualID(v)
	}
}

// NewActor creates an actor (the player) at pos. Attach an Animator or an
// AudioPlayer to it as the environment provides them.
func NewActor(id string, pos Vec2) *Object {
	return NewObject(id, pos)
}
