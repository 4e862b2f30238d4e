// Package progress persists and resumes the single-row-per-identity
// height checkpoint that backfill and follow runs use to resume.
package progress

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and upserts core.indexer_progress rows.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the progress table if it does not already
// exist. Called once at start-up, before any reads or writes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS core;
		CREATE TABLE IF NOT EXISTS core.indexer_progress (
			id           TEXT PRIMARY KEY,
			last_height  BIGINT NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("progress: ensure schema: %w", err)
	}
	return nil
}

// Get returns the last committed height for id. ok is false if no row
// exists yet (a fresh progress_id).
func (s *Store) Get(ctx context.Context, id string) (height uint64, ok bool, err error) {
	row := s.pool.QueryRow(ctx, `SELECT last_height FROM core.indexer_progress WHERE id = $1`, id)
	var h int64
	err = row.Scan(&h)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("progress: get %q: %w", id, err)
	}
	return uint64(h), true, nil
}

// Upsert writes last_height within an existing transaction so progress
// updates share the block-atomic or batch transaction. last_height is
// only ever increased, never decreased.
func Upsert(ctx context.Context, tx pgx.Tx, id string, height uint64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO core.indexer_progress (id, last_height, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET last_height = GREATEST(core.indexer_progress.last_height, EXCLUDED.last_height),
		    updated_at = now()`,
		id, int64(height))
	if err != nil {
		return fmt.Errorf("progress: upsert %q: %w", id, err)
	}
	return nil
}
