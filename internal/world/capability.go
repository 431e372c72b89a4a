package world

import (
	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/growth"
)

// Kind names a capability.
type Kind string

const (
	KindVisual    Kind = "visual"
	KindTag       Kind = "tag"
	KindAnimation Kind = "animation"
	KindAudio     Kind = "audio"
	KindGrowth    Kind = "growth"
)

// VisualProvider gets and sets an entity's visual identity.
type VisualProvider interface {
	VisualID() catalog.VisualID
	SetVisualID(v catalog.VisualID)
}

// TagStore gets and sets an entity's tag.
type TagStore interface {
	Tag() string
	SetTag(tag string)
}

// Animator plays a named clip on an entity.
type Animator interface {
	Play(clip string)
}

// AudioPlayer plays a clip at a world position.
type AudioPlayer interface {
	PlayAt(clip string, pos Vec2)
}

// Vec2 is a world position.
type Vec2 struct {
	X, Y float64
}

// Entity is anything an action can target or be performed by.
type Entity interface {
	ID() string
	Position() Vec2

	// Capability returns the capability of kind k, if attached.
	Capability(k Kind) (any, bool)

	// HasComponent reports whether a named component is attached, for
	// named capability invocation.
	HasComponent(name string) bool
}

// As queries e for capability k and asserts it to T.
func As[T any](e Entity, k Kind) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	c, ok := e.Capability(k)
	if !ok || c == nil {
		return zero, false
	}
	typed, ok := c.(T)
	return typed, ok
}

// Visual returns the visual capability of e.
func Visual(e Entity) (VisualProvider, bool) { return As[VisualProvider](e, KindVisual) }

// Tags returns the tag capability of e.
func Tags(e Entity) (TagStore, bool) { return As[TagStore](e, KindTag) }

// Animation returns the animation capability of e.
func Animation(e Entity) (Animator, bool) { return As[Animator](e, KindAnimation) }

// Audio returns the audio capability of e.
func Audio(e Entity) (AudioPlayer, bool) { return As[AudioPlayer](e, KindAudio) }

// Growth returns the growth instance hosted by e.
func Growth(e Entity) (*growth.Instance, bool) { return As[*growth.Instance](e, KindGrowth) }

// TagOf returns e's tag, or "" without a tag capability.
func TagOf(e Entity) string {
	if t, ok := Tags(e); ok {
		return t.Tag()
	}
	return ""
}

// VisualOf returns e's visual, or "" without a visual capability.
func VisualOf(e Entity) catalog.VisualID {
	if v, ok := Visual(e); ok {
		return v.VisualID()
	}
	return ""
}

// Sprite is a plain VisualProvider.
type Sprite struct {
	id catalog.VisualID
}

// NewSprite returns a sprite showing v.
func NewSprite(v catalog.VisualID) *Sprite { return &Sprite{id: v} }

func (s *Sprite) VisualID() catalog.VisualID     { return s.id }
func (s *Sprite) SetVisualID(v catalog.VisualID) { s.id = v }

// Label is a plain TagStore.
type Label struct {
	tag string
}

// NewLabel returns a label carrying tag.
func NewLabel(tag string) *Label { return &Label{tag: tag} }

func (l *Label) Tag() string       { return l.tag }
func (l *Label) SetTag(tag string) { l.tag = tag }

// AnimatorFunc adapts a function to Animator.
type AnimatorFunc func(clip string)

// Play calls f(clip).
func (f AnimatorFunc) Play(clip string) { f(clip) }
