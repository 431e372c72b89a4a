package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/homestead/internal/world"
)

// Handler is a registered named capability method. It receives the target
// the effect runs against.
type Handler func(target world.Entity) error

type capabilityKey struct {
	component string
	method    string
}

// CapabilityRegistry maps (component, method) names to handlers. It replaces
// reflective method lookup: only registered names can be invoked, and the
// catalog validator checks effect names against Names at load time.
//
// Populate the registry at startup; it is not safe for concurrent mutation.
type CapabilityRegistry struct {
	handlers map[capabilityKey]Handler
}

// NewCapabilityRegistry creates an empty registry.
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{handlers: make(map[capabilityKey]Handler)}
}

// Register adds a handler for component.method.
func (r *CapabilityRegistry) Register(component, method string, h Handler) error {
	if component == "" || method == "" {
		return NewRegistryError(ErrCodeInvalidName, component, method, "component and method must be non-empty")
	}
	if h == nil {
		return NewRegistryError(ErrCodeInvalidName, component, method, "handler must be non-nil")
	}
	key := capabilityKey{component: component, method: method}
	if _, exists := r.handlers[key]; exists {
		return NewRegistryError(ErrCodeDuplicateCapability, component, method, "already registered")
	}
	r.handlers[key] = h
	return nil
}

// MustRegister is Register that panics on error, for static startup tables.
func (r *CapabilityRegistry) MustRegister(component, method string, h Handler) {
	if err := r.Register(component, method, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for component.method.
func (r *CapabilityRegistry) Lookup(component, method string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[capabilityKey{component: component, method: method}]
	return h, ok
}

// HasComponent reports whether any method is registered for component.
func (r *CapabilityRegistry) HasComponent(component string) bool {
	if r == nil {
		return false
	}
	for key := range r.handlers {
		if key.component == component {
			return true
		}
	}
	return false
}

// Names returns every registered "Component.Method", sorted.
func (r *CapabilityRegistry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.handlers))
	for key := range r.handlers {
		out = append(out, key.component+"."+key.method)
	}
	sort.Strings(out)
	return out
}

// ParseCall splits "Component.Method".
func ParseCall(call string) (component, method string, err error) {
	parts := strings.Split(call, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid call %q: expected Component.Method", call)
	}
	return parts[0], parts[1], nil
}
