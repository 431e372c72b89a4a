// Package engine implements the farm interaction engine.
//
// The engine receives interaction requests, matches each target against the
// action catalog, and runs the matched action's effects against the target
// and the acting entity.
//
// ARCHITECTURE:
//
// Frame-Driven Driver:
// The engine owns an explicit driver loop. Step(dt) is one simulated frame:
//  1. Every live growth instance is ticked, in world registration order
//  2. Requests queued since the last frame are drained in FIFO order
//  3. Each request is matched (FindBestMatch) and executed (Executor.Execute)
//  4. Each outcome is appended to the event log, if one is configured
//
// Ticking before draining guarantees that interactions of a frame see the
// growth state of that same frame.
//
// Matching:
// Actions are matched in three tiers (tag+visual, tag only, visual only).
// Within a tier the highest Priority wins and catalog order breaks ties.
//
// Effect Pipeline:
// Effects run strictly in declaration order. A failing effect is diagnosed
// and skipped; it never aborts the rest of the pipeline. The selection
// collaborator's ClearHover runs after every execution.
//
// Nothing in this package blocks and nothing mutates state outside Step,
// Perform and Execute. Only Submit is safe to call from other goroutines.
package engine
