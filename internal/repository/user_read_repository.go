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

const userViewKeyPrefix = "user:view:"

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, log *zap.Logger) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, 0, log),
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
// Inactive users resolve too; only List filters on the active flag.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	cacheKey := userViewKeyPrefix + id

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	// Fallback: PostgreSQL
	query := `
		SELECT id, name, mail_address, balance, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var view models.UserView
	var mail sql.NullString

	pgErr := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Name, &mail, &view.Balance, &view.Active,
		&view.CreatedAt, &view.UpdatedAt,
	)
	if pgErr == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", errs.ErrUserNotFound, id)
	}
	if pgErr != nil {
		return nil, fmt.Errorf("failed to get user: %w", pgErr)
	}
	if mail.Valid {
		view.MailAddress = mail.String
	}

	// Warm the cache
	r.CacheUserView(ctx, &view)
	return &view, nil
}

// List returns a page of active users as summary views, plus the overall
// count of active users. Listings always come from PostgreSQL so pagination
// stays consistent.
func (r *UserReadRepository) List(ctx context.Context, limit, offset int) ([]models.UserSummaryView, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE active = TRUE`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `
		SELECT id, name, balance, active
		FROM users
		WHERE active = TRUE
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var views []models.UserSummaryView
	for rows.Next() {
		var view models.UserSummaryView
		if err := rows.Scan(&view.ID, &view.Name, &view.Balance, &view.Active); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		views = append(views, view)
	}
	return views, total, rows.Err()
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command services after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, userViewKeyPrefix+view.ID, view)
}

// InvalidateUserView removes the Redis read model entry so the next read
// refetches the authoritative balance from PostgreSQL.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) {
	r.cache.Delete(ctx, userViewKeyPrefix+userID)
}
