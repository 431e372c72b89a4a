// Package store provides SQLite-backed durable storage for farm sessions.
//
// A session is one simulation run. The store keeps:
//   - Sessions: id, catalog hash and the last saved frame
//   - Tiles: the saved growth state of every tile of a session
//   - Events: one record per performed interaction, an append-only log
//
// # Ordering
//
// Events are ordered by logical frame and insertion sequence, never by
// wall-clock time, so a replayed session reads back identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Tiles and events belong to a session
//
// Timers that are "never" (catalog.Never, +Inf) are stored as NULL.
package store
