// Package store persists hand and match results to Postgres. Persistence
// is optional: rooms hold a nil *Store when no DATABASE_URL is configured
// and every save call is skipped.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/baizegames/parlor/engine"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool. Safe on nil.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS hand_results (
	id          BIGSERIAL   PRIMARY KEY,
	table_id    TEXT        NOT NULL,
	game_kind   TEXT        NOT NULL,
	hand_no     INTEGER     NOT NULL,
	scoreboards JSONB       NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS hand_results_table_idx ON hand_results (table_id);

CREATE TABLE IF NOT EXISTS match_results (
	table_id    TEXT        PRIMARY KEY,
	game_kind   TEXT        NOT NULL,
	winner      TEXT        NOT NULL,
	scoreboards JSONB       NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the result tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// HandResult is one completed deal's scoreboard snapshot.
type HandResult struct {
	TableID     string
	GameKind    string
	HandNo      int
	Scoreboards []engine.Scoreboard
}

// MatchResult is the final outcome of a table.
type MatchResult struct {
	TableID     string
	GameKind    string
	Winner      string
	Scoreboards []engine.Scoreboard
}

// SaveHandResult inserts one hand row. No-op on a nil store.
func (s *Store) SaveHandResult(ctx context.Context, r HandResult) error {
	if s == nil {
		return nil
	}
	boards, err := json.Marshal(r.Scoreboards)
	if err != nil {
		return fmt.Errorf("store: marshal scoreboards: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO hand_results (table_id, game_kind, hand_no, scoreboards)
		 VALUES ($1, $2, $3, $4::jsonb)`,
		r.TableID, r.GameKind, r.HandNo, string(boards))
	if err != nil {
		return fmt.Errorf("store: save hand result: %w", err)
	}
	return nil
}

// SaveMatchResult upserts the table's final outcome. No-op on a nil store.
func (s *Store) SaveMatchResult(ctx context.Context, r MatchResult) error {
	if s == nil {
		return nil
	}
	boards, err := json.Marshal(r.Scoreboards)
	if err != nil {
		return fmt.Errorf("store: marshal scoreboards: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_results (table_id, game_kind, winner, scoreboards)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (table_id) DO UPDATE
		 SET winner = EXCLUDED.winner, scoreboards = EXCLUDED.scoreboards,
		     recorded_at = now()`,
		r.TableID, r.GameKind, r.Winner, string(boards))
	if err != nil {
		return fmt.Errorf("store: save match result: %w", err)
	}
	return nil
}

// SaveAsync runs save on a background goroutine, logging failures. The
// room layer uses it so persistence never blocks a turn.
func SaveAsync(tableID string, save func(ctx context.Context) error) {
	go func() {
		if err := save(context.Background()); err != nil {
			log.WithField("table", tableID).WithError(err).Warn("result save failed")
		}
	}()
}
