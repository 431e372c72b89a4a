// Package growth implements the per-tile plant lifecycle state machine.
//
// An Instance owns the current stage of one tile, its watered flag and two
// timers. It advances on Tick (elapsed time) and on Interact (a player
// action name). Stage data is resolved against the bound species, then the
// catalog's ground definition, then the catalog safe default, so every stage
// identifier is defined.
//
// Instances are exclusively owned by their tile and are not safe for
// concurrent use. The driver ticks every live instance before delivering
// the interactions of the same frame.
package growth
