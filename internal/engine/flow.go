package engine

import (
	"github.com/google/uuid"
)

// SessionGenerator generates session ids. A session groups the events and
// saves of one simulation run.
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids, so sessions
// sort by creation time in the store. It is stateless and safe for
// concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7. It panics if the system random source
// fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
