package store

import (
	"context"
	"fmt"

	"github.com/roach88/homestead/internal/engine"
)

// EventRecord is a stored engine event with its log position.
type EventRecord struct {
	Seq int64 `json:"seq"`
	engine.Event
}

// AppendEvent appends ev to the event log. It implements engine.EventLog.
func (s *Store) AppendEvent(ctx context.Context, ev engine.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, frame, tile_id, actor_id, action, tier, applied, skipped, changed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.Session,
		ev.Frame,
		ev.TargetID,
		ev.ActorID,
		ev.Action,
		int(ev.Tier),
		ev.Applied,
		ev.Skipped,
		ev.Changed,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ReadEvents returns the events of session ordered by frame, then log order.
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadEvents(ctx context.Context, session string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, session_id, frame, tile_id, actor_id, action, tier, applied, skipped, changed
		FROM events
		WHERE session_id = ?
		ORDER BY frame ASC, seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var (
			ev   EventRecord
			tier int
		)
		err := rows.Scan(
			&ev.Seq, &ev.Session, &ev.Frame, &ev.TargetID, &ev.ActorID,
			&ev.Action, &tier, &ev.Applied, &ev.Skipped, &ev.Changed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Tier = engine.Tier(tier)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

var _ engine.EventLog = (*Store)(nil)
