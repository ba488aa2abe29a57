package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/models"
)

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
// Balance-touching methods take the *sql.Tx of the enclosing atomic scope.
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, mail_address, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, nullString(user.MailAddress),
		user.Balance, user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", errs.ErrDuplicateUser, user.Name)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetForUpdate locks the user row for the remainder of the enclosing atomic
// scope, serializing concurrent balance updates on the same user. Inactive
// users are still resolvable; only listings filter on the active flag.
func (r *UserWriteRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*models.User, error) {
	query := `
		SELECT id, name, mail_address, balance, active, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	var user models.User
	var mail sql.NullString

	err := tx.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &mail, &user.Balance, &user.Active,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", errs.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if mail.Valid {
		user.MailAddress = mail.String
	}
	return &user, nil
}

// ApplyBalanceDelta adds delta to the user's balance inside the enclosing
// atomic scope and returns the new balance.
func (r *UserWriteRepository) ApplyBalanceDelta(ctx context.Context, tx *sql.Tx, id string, delta int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`
	var balance int64
	err := tx.QueryRowContext(ctx, query, id, delta).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", errs.ErrUserNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}
	return balance, nil
}

// Deactivate soft-disables a user. The row and its transactions are kept; the
// user simply drops out of active listings.
func (r *UserWriteRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active = TRUE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", errs.ErrUserNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
