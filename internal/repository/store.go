package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tallybank/ledger-service/internal/errs"
)

// atomicAttempts bounds the retries on serialization/deadlock failures before
// the conflict is surfaced to the caller.
const atomicAttempts = 3

// Store owns the PostgreSQL handle and the atomic-scope discipline. Every
// mutation touching more than one row goes through RunAtomic so partial
// writes are never observable.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func NewStore(db *sql.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// DB exposes the underlying handle for read paths that need no scope.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunAtomic executes fn inside a database transaction: rollback on error or
// panic, durable commit otherwise. Deadlock and serialization failures are
// retried up to atomicAttempts times, then reported as ErrTransientConflict.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; attempt <= atomicAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		s.log.Warn("atomic scope conflict, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
	}
	return fmt.Errorf("%w: %v", errs.ErrTransientConflict, err)
}

func (s *Store) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isRetryable matches PostgreSQL serialization_failure and deadlock_detected.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// CheckBalances returns the IDs of users whose stored balance has drifted
// from the sum of their transaction values. An empty result means the ledger
// reconciles.
func (s *Store) CheckBalances(ctx context.Context) ([]string, error) {
	query := `
		SELECT u.id
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.id
		GROUP BY u.id, u.balance
		HAVING u.balance <> COALESCE(SUM(t.value), 0)
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check balances: %w", err)
	}
	defer rows.Close()

	var drifted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		drifted = append(drifted, id)
	}
	return drifted, rows.Err()
}
