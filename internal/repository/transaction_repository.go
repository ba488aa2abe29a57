package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/models"
)

// TransactionWriteRepository handles all state-mutating operations for
// transactions. The ledger is append-only: rows are inserted inside an atomic
// scope and never changed afterwards, except for the deferred write-back of
// the first leg's double_entry_id once the second leg's ID is known.
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

func (r *TransactionWriteRepository) Insert(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, value, double_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query,
		transaction.ID, transaction.UserID, transaction.Value,
		transaction.DoubleEntryID, transaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// SetDoubleEntryID links a persisted leg to its counterpart. Only ever called
// for the first leg of a transfer, inside the same atomic scope that created
// both legs.
func (r *TransactionWriteRepository) SetDoubleEntryID(ctx context.Context, tx *sql.Tx, id, doubleEntryID string) error {
	query := `UPDATE transactions SET double_entry_id = $2 WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id, doubleEntryID)
	if err != nil {
		return fmt.Errorf("failed to link transaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", errs.ErrTransactionNotFound, id)
	}
	return nil
}
