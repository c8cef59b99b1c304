// Package statsarchive keeps a history of system statistics in PostgreSQL.
//
// It uses a `system_stats_snapshots` table, created on demand:
//
//	CREATE TABLE system_stats_snapshots (
//	    id          BIGSERIAL PRIMARY KEY,
//	    data        JSONB NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
package statsarchive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

const schema = `CREATE TABLE IF NOT EXISTS system_stats_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	data        JSONB NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store is a gateway stats sink backed by PostgreSQL.
type Store struct {
	db        *postgres.Client
	retention time.Duration
	logger    *slog.Logger
}

// New returns a store that prunes rows older than retention on each save.
// A zero retention keeps everything.
func New(db *postgres.Client, retention time.Duration) *Store {
	return &Store{
		db:        db,
		retention: retention,
		logger:    slog.Default().With("component", "stats-archive"),
	}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating stats table: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

// Publish stores one snapshot and prunes expired ones in a transaction.
func (s *Store) Publish(ctx context.Context, stats proto.SystemStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	now := time.Now().UTC()
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO system_stats_snapshots (data, captured_at) VALUES ($1, $2)`,
			data, now,
		); err != nil {
			return fmt.Errorf("saving stats snapshot: %w", err)
		}
		if s.retention > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM system_stats_snapshots WHERE captured_at < $1`,
				now.Add(-s.retention),
			); err != nil {
				return fmt.Errorf("pruning stats snapshots: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("stats snapshot saved", "shards", len(stats.Shards), "top_queries", len(stats.TopQueries))
	return nil
}

// Latest loads the most recent snapshot. It returns nil, nil when the table
// is empty.
func (s *Store) Latest(ctx context.Context) (*proto.SystemStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM system_stats_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats proto.SystemStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}
