// Package world models the entities the engine acts on: tiles hosting a
// growth instance, and actors performing actions.
//
// Entities expose behavior through an explicit capability query instead of
// type switches on concrete types. A missing capability is a normal
// condition; callers report it and carry on.
package world
