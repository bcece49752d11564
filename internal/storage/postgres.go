package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createFeedStateSQL = `CREATE TABLE IF NOT EXISTS feed_state (
        feed_key   TEXT PRIMARY KEY,
        state      JSONB NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	getFeedStateSQL = `SELECT state FROM feed_state WHERE feed_key = $1;`

	upsertFeedStateSQL = `INSERT INTO feed_state (feed_key, state, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (feed_key) DO UPDATE
    SET state      = EXCLUDED.state,
        updated_at = EXCLUDED.updated_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// querier is the part of pgxpool.Pool the state queries use.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists feed state as JSONB rows keyed by feed name.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore wires a pgx pool into a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	store := &PostgresStore{pool: pool}
	if pool != nil {
		store.db = pool
	}
	return store
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

func (s *PostgresStore) getDB() (querier, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	return s.db, nil
}

// EnsureSchema creates the feed_state table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, createFeedStateSQL); err != nil {
		return fmt.Errorf("create feed_state: %w", err)
	}
	return nil
}

// GetState implements StateStore.
func (s *PostgresStore) GetState(ctx context.Context, feed string) (FeedState, error) {
	db, err := s.getDB()
	if err != nil {
		return FeedState{}, err
	}

	var raw []byte
	if err := db.QueryRow(ctx, getFeedStateSQL, feed).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FeedState{}, ErrNotFound
		}
		return FeedState{}, fmt.Errorf("get feed state %q: %w", feed, err)
	}

	var state FeedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return FeedState{}, fmt.Errorf("decode feed state %q: %w", feed, err)
	}
	return state, nil
}

// PutState implements StateStore.
func (s *PostgresStore) PutState(ctx context.Context, feed string, state FeedState) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode feed state %q: %w", feed, err)
	}
	if _, err := db.Exec(ctx, upsertFeedStateSQL, feed, raw); err != nil {
		return fmt.Errorf("upsert feed state %q: %w", feed, err)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *PostgresStore) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// best effort; the lock is released with the session anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

var (
	_ StateStore     = (*PostgresStore)(nil)
	_ AdvisoryLocker = (*PostgresStore)(nil)
)
