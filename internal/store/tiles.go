package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/growth"
	"github.com/roach88/homestead/internal/world"
)

// TileRecord is the saved form of a world tile.
type TileRecord struct {
	ID         string           `json:"id"`
	Tag        string           `json:"tag"`
	Visual     catalog.VisualID `json:"visual"`
	Position   world.Vec2       `json:"position"`
	Components []string         `json:"components,omitempty"`
	State      growth.Snapshot  `json:"state"`
}

// RecordTile captures t for saving.
func RecordTile(t *world.Tile) TileRecord {
	return TileRecord{
		ID:         t.ID(),
		Tag:        t.Tag(),
		Visual:     t.VisualID(),
		Position:   t.Position(),
		Components: t.Components(),
		State:      t.Growth().Snapshot(),
	}
}

// Build recreates the tile against cat. The saved visual wins over the
// derived one, since effects may have changed it.
func (r TileRecord) Build(cat *catalog.Catalog, opts ...growth.Option) *world.Tile {
	if p, ok := cat.Plant(r.State.Species); ok {
		opts = append([]growth.Option{growth.WithSpecies(p)}, opts...)
	}
	t := world.NewTile(world.TileConfig{
		ID:            r.ID,
		Position:      r.Position,
		Tag:           r.Tag,
		Stage:         r.State.Stage,
		Ground:        cat.Ground,
		GrowthOptions: opts,
	})
	t.AddComponent(r.Components...)
	t.Growth().Restore(r.State, cat.Plant)
	if r.Visual != "" {
		if v, ok := world.Visual(t); ok {
			v.SetVisualID(r.Visual)
		}
	}
	return t
}

// SaveTiles replaces the saved tiles of session and records frame as the
// session's last saved frame. Tiles keep the given order.
func (s *Store) SaveTiles(ctx context.Context, session string, frame int64, tiles []TileRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var hash string
		err := tx.QueryRowContext(ctx, `SELECT catalog_hash FROM sessions WHERE id = ?`, session).Scan(&hash)
		if err == sql.ErrNoRows {
			return fmt.Errorf("save tiles: session %s: %w", session, ErrSessionNotFound)
		}
		if err != nil {
			return fmt.Errorf("save tiles: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tiles WHERE session_id = ?`, session); err != nil {
			return fmt.Errorf("save tiles: clear: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tiles
			(session_id, id, ord, tag, visual, stage, species, watered,
			 time_in_stage, time_since_watering, pos_x, pos_y, components, catalog_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("save tiles: prepare: %w", err)
		}
		defer stmt.Close()

		for i, t := range tiles {
			_, err := stmt.ExecContext(ctx,
				session,
				t.ID,
				i,
				t.Tag,
				string(t.Visual),
				string(t.State.Stage),
				t.State.Species,
				t.State.Watered,
				t.State.TimeInStage,
				nullableSeconds(t.State.TimeSinceWatering),
				t.Position.X,
				t.Position.Y,
				strings.Join(t.Components, ","),
				hash,
			)
			if err != nil {
				return fmt.Errorf("save tile %s: %w", t.ID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET frame = ? WHERE id = ?`, frame, session); err != nil {
			return fmt.Errorf("save tiles: update frame: %w", err)
		}
		return nil
	})
}

// LoadTiles returns the saved tiles of session in save order.
// Returns an empty slice (not nil) when nothing was saved.
func (s *Store) LoadTiles(ctx context.Context, session string) ([]TileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tag, visual, stage, species, watered, time_in_stage,
		       time_since_watering, pos_x, pos_y, components
		FROM tiles
		WHERE session_id = ?
		ORDER BY ord ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query tiles: %w", err)
	}
	defer rows.Close()

	tiles := []TileRecord{}
	for rows.Next() {
		var (
			t          TileRecord
			visual     string
			stage      string
			since      sql.NullFloat64
			components string
		)
		err := rows.Scan(
			&t.ID, &t.Tag, &visual, &stage, &t.State.Species, &t.State.Watered,
			&t.State.TimeInStage, &since, &t.Position.X, &t.Position.Y, &components,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tile: %w", err)
		}
		t.Visual = catalog.VisualID(visual)
		t.State.Stage = catalog.StageID(stage)
		t.State.TimeSinceWatering = secondsOrNever(since)
		if components != "" {
			t.Components = strings.Split(components, ",")
		}
		tiles = append(tiles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiles: %w", err)
	}
	return tiles, nil
}

// nullableSeconds maps catalog.Never to NULL; SQLite has no infinity.
func nullableSeconds(v float64) sql.NullFloat64 {
	if math.IsInf(v, 1) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func secondsOrNever(v sql.NullFloat64) float64 {
	if !v.Valid {
		return catalog.Never
	}
	return v.Float64
}
