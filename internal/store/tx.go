// Package store is the persistence layer: connection pool, transactions,
// row-level locking, LISTEN/NOTIFY, and CRUD for every control plane entity.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query method
// in this package can run either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store wraps the connection pool and exposes transaction helpers.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore creates a Store over an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Queries is the CRUD layer, constructed over either a pool or a
// transaction so callers can compose multi-entity writes atomically — e.g.
// `q := store.New(tx)` inside a Store.WithTx callback.
type Queries struct {
	db DBTX
}

// New creates a Queries over any DBTX (a *pgxpool.Pool or a pgx.Tx).
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic. All multi-statement sequences that affect more
// than one entity must go through this.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", classify(err))
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", classify(err))
	}
	committed = true
	return nil
}

// Listen subscribes to a Postgres notification channel and returns a
// channel of payloads. The returned cancel func releases the underlying
// connection back to the pool. Workers call this to wake on enqueue instead
// of polling continuously.
func (s *Store) Listen(ctx context.Context, channel string) (<-chan string, func(), error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, fmt.Sprintf("LISTEN %s", pgx.Identifier{channel}.Sanitize())); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("listening on %s: %w", channel, err)
	}

	out := make(chan string, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			select {
			case out <- n.Payload:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		close(done)
		conn.Release()
	}

	return out, cancel, nil
}

// Notify sends a payload-less (or lightly-tagged) notification on channel.
// Producers call this in the same transaction that enqueues work so
// consumers wake promptly.
func Notify(ctx context.Context, db DBTX, channel, payload string) error {
	_, err := db.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload)
	if err != nil {
		return fmt.Errorf("notifying %s: %w", channel, classify(err))
	}
	return nil
}
