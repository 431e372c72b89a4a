package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id is not in the store.
var ErrSessionNotFound = errors.New("session not found")

// Session is one simulation run.
type Session struct {
	ID          string `json:"id"`
	CatalogHash string `json:"catalog_hash"`

	// Frame is the frame of the last save.
	Frame int64 `json:"frame"`
}

// BeginSession records a new session for a catalog.
func (s *Store) BeginSession(ctx context.Context, id, catalogHash string) (Session, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, catalog_hash, frame)
		VALUES (?, ?, 0)
	`, id, catalogHash)
	if err != nil {
		return Session{}, fmt.Errorf("begin session %s: %w", id, err)
	}
	return Session{ID: id, CatalogHash: catalogHash}, nil
}

// GetSession returns the session with id, or an error wrapping
// ErrSessionNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, catalog_hash, frame FROM sessions WHERE id = ?
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// LatestSession returns the most recently begun session.
// Returns false if the store holds no sessions.
func (s *Store) LatestSession(ctx context.Context) (Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, catalog_hash, frame FROM sessions ORDER BY seq DESC LIMIT 1
	`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("latest session: %w", err)
	}
	return sess, true, nil
}

// Sessions returns every session in the order they were begun.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, catalog_hash, frame FROM sessions ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var sess Session
	err := r.Scan(&sess.ID, &sess.CatalogHash, &sess.Frame)
	return sess, err
}
