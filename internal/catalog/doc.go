// Package catalog holds the immutable rule data of the farm simulation:
// plant species with their growth stages, and the player actions that can
// be matched against world targets.
//
// Catalog values are built once by the compiler and never mutated. They are
// shared by pointer across every tile and need no synchronization.
//
// Stage lookups are total. A stage missing from a species resolves to a
// self-looping safe default and a data_error diagnostic, so a partial catalog
// degrades a running session instead of stopping it.
package catalog
