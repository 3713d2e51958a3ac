// Package postgres provides the Postgres-backed source and signal stores.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oculusre/signalharvest/internal/signal"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements signal.SourceStore and signal.SignalStore over Postgres.
type Store struct {
	pool querier
	ids  signal.IDGenerator
}

var (
	_ signal.SourceStore = (*Store)(nil)
	_ signal.SignalStore = (*Store)(nil)
)

// New creates a Store with its own connection pool.
func New(ctx context.Context, cfg Config, ids signal.IDGenerator) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, ids: ids}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for tests).
func NewWithPool(pool querier, ids signal.IDGenerator) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool, ids: ids}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

const listActiveSourcesSQL = `
SELECT id, name, slug, kind, requires_auth, excluded_from_scheduled_run,
       COALESCE(config, '{}'::jsonb), last_success_at,
       COALESCE(last_error, ''), consecutive_failures
FROM sources
WHERE active = true
ORDER BY id`

// ListActiveSources loads the configured sources due for this run.
func (s *Store) ListActiveSources(ctx context.Context) ([]signal.Source, error) {
	rows, err := s.pool.Query(ctx, listActiveSourcesSQL)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []signal.Source
	for rows.Next() {
		var (
			src       signal.Source
			configRaw []byte
		)
		src.Active = true
		if err := rows.Scan(
			&src.ID,
			&src.Name,
			&src.Slug,
			&src.Kind,
			&src.RequiresAuth,
			&src.ExcludedFromScheduledRun,
			&configRaw,
			&src.LastSuccessAt,
			&src.LastError,
			&src.ConsecutiveFailures,
		); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if len(configRaw) > 0 {
			if err := json.Unmarshal(configRaw, &src.Config); err != nil {
				return nil, fmt.Errorf("decode config for source %s: %w", src.Slug, err)
			}
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

const signalExistsSQL = `SELECT EXISTS (SELECT 1 FROM signals WHERE fingerprint = $1)`

// SignalExists reports whether a fingerprint is already stored.
func (s *Store) SignalExists(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, signalExistsSQL, fingerprint).Scan(&exists); err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return exists, nil
}

const insertSignalSQL = `
INSERT INTO signals (
	id, source_id, url, title, published_at, kind, body,
	fingerprint, processed, collected_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (fingerprint) DO NOTHING`

// InsertSignalIfAbsent stores a signal unless its fingerprint already exists.
// Returns whether a row was actually inserted.
func (s *Store) InsertSignalIfAbsent(ctx context.Context, sig signal.Signal) (bool, error) {
	if sig.Fingerprint == "" {
		return false, fmt.Errorf("signal fingerprint is required")
	}
	id := sig.ID
	if id == "" && s.ids != nil {
		var err error
		id, err = s.ids.NewID()
		if err != nil {
			return false, fmt.Errorf("generate signal id: %w", err)
		}
	}
	tag, err := s.pool.Exec(ctx, insertSignalSQL,
		id,
		sig.SourceID,
		sig.URL,
		sig.Title,
		sig.PublishedAt,
		sig.Kind,
		sig.Body,
		sig.Fingerprint,
		sig.Processed,
		sig.CollectedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert signal: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

const markSuccessSQL = `
UPDATE sources
SET last_success_at = $2, last_error = '', consecutive_failures = 0
WHERE id = $1`

// MarkSourceSuccess resets the health fields after a clean pass.
func (s *Store) MarkSourceSuccess(ctx context.Context, sourceID int64, at time.Time) error {
	if _, err := s.pool.Exec(ctx, markSuccessSQL, sourceID, at); err != nil {
		return fmt.Errorf("mark source %d success: %w", sourceID, err)
	}
	return nil
}

const markFailureSQL = `
UPDATE sources
SET last_error = $2, consecutive_failures = consecutive_failures + 1
WHERE id = $1`

// MarkSourceFailure records the error text and bumps the failure streak.
func (s *Store) MarkSourceFailure(ctx context.Context, sourceID int64, errText string) error {
	if _, err := s.pool.Exec(ctx, markFailureSQL, sourceID, errText); err != nil {
		return fmt.Errorf("mark source %d failure: %w", sourceID, err)
	}
	return nil
}
