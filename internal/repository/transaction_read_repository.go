package repository

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/models"
	sharedredis "github.com/tallybank/ledger-service/internal/redis"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionReadRepository handles all read operations for transactions.
// Point reads go through the Redis view cache with a PostgreSQL fallback;
// listings always come from PostgreSQL.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.TransactionView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, log *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.TransactionView](redisClient, 0, log),
	}
}

// GetByID returns a TransactionView by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id string) (*models.TransactionView, error) {
	cacheKey := transactionViewKeyPrefix + id
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	// Fallback: PostgreSQL
	query := `
		SELECT id, user_id, value, double_entry_id, created_at
		FROM transactions
		WHERE id = $1
	`
	var view models.TransactionView
	var doubleEntryID sql.NullString

	pgErr := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.UserID, &view.Value, &doubleEntryID, &view.CreatedAt,
	)
	if pgErr == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", errs.ErrTransactionNotFound, id)
	}
	if pgErr != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", pgErr)
	}
	if doubleEntryID.Valid {
		view.DoubleEntryID = &doubleEntryID.String
	}

	// Warm the cache
	r.CacheTransactionView(ctx, &view)
	return &view, nil
}

// GetByIDForUser returns a transaction only when it belongs to the given
// user; a transaction outside the user's scope reads as not found.
func (r *TransactionReadRepository) GetByIDForUser(ctx context.Context, id, userID string) (*models.TransactionView, error) {
	view, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != userID {
		return nil, fmt.Errorf("%w: %s", errs.ErrTransactionNotFound, id)
	}
	return view, nil
}

// ListByUser returns a page of the user's transactions, newest first, plus
// the overall count for that user.
func (r *TransactionReadRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.TransactionView, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT id, user_id, value, double_entry_id, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	views, err := scanTransactionViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// List returns a page of all transactions, newest first, plus the overall count.
func (r *TransactionReadRepository) List(ctx context.Context, limit, offset int) ([]models.TransactionView, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT id, user_id, value, double_entry_id, created_at
		FROM transactions
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	views, err := scanTransactionViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func scanTransactionViews(rows *sql.Rows) ([]models.TransactionView, error) {
	var views []models.TransactionView
	for rows.Next() {
		var view models.TransactionView
		var doubleEntryID sql.NullString

		if err := rows.Scan(&view.ID, &view.UserID, &view.Value, &doubleEntryID, &view.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if doubleEntryID.Valid {
			view.DoubleEntryID = &doubleEntryID.String
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// CacheTransactionView stores the read model for a transaction in Redis.
// Called by the command service immediately after a successful commit.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, transactionViewKeyPrefix+view.ID, view)
}
