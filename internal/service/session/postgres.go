package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
)

const schema = `
CREATE TABLE IF NOT EXISTS dialogue_sessions (
	namespace  TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, id)
)`

// PostgresStore persists sessions as JSON documents. Stores with different
// namespaces share the table without seeing each other's sessions.
// Update takes a transaction scoped advisory lock on the session key, so turns
// for one session are serialized across every process sharing the database.
type PostgresStore struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresStore wraps an open pool and makes sure the table exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, namespace string) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create dialogue_sessions: %w", err)
	}
	return &PostgresStore{pool: pool, namespace: namespace}, nil
}

// Get loads a session.
func (s *PostgresStore) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	return s.load(ctx, s.pool, id)
}

// Put upserts a session.
func (s *PostgresStore) Put(ctx context.Context, sess *dialogue.Session) error {
	return s.save(ctx, s.pool, sess)
}

// Delete removes a session.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM dialogue_sessions WHERE namespace = $1 AND id = $2`, s.namespace, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Update runs fn inside a transaction holding the advisory lock of id.
func (s *PostgresStore) Update(ctx context.Context, id string, fn dialogue.UpdateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`, s.namespace, id); err != nil {
		return fmt.Errorf("lock session %s: %w", id, err)
	}

	current, err := s.load(ctx, tx, id)
	if err != nil && !errors.Is(err, dialogue.ErrSessionNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if err := s.save(ctx, tx, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Sweep deletes sessions idle for longer than maxIdle.
func (s *PostgresStore) Sweep(ctx context.Context, maxIdle time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM dialogue_sessions WHERE namespace = $1 AND updated_at < $2`,
		s.namespace, time.Now().Add(-maxIdle))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PostgresStore) load(ctx context.Context, q querier, id string) (*dialogue.Session, error) {
	var payload string
	err := q.QueryRow(ctx, `SELECT payload::text FROM dialogue_sessions WHERE namespace = $1 AND id = $2`,
		s.namespace, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dialogue.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var sess dialogue.Session
	if err := sonic.UnmarshalString(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *PostgresStore) save(ctx context.Context, q querier, sess *dialogue.Session) error {
	payload, err := sonic.MarshalString(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	_, err = q.Exec(ctx, `
INSERT INTO dialogue_sessions (namespace, id, payload, updated_at) VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (namespace, id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.namespace, sess.ID, payload, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}
