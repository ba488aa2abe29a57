package query

import (
	"context"

	"github.com/tallybank/ledger-service/internal/config"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/repository"
)

// UserQueryService serves user reads: full views for point lookups, summary
// views (no mail_address) for listings.
type UserQueryService struct {
	readRepo   *repository.UserReadRepository
	pagination config.Pagination
}

func NewUserQueryService(readRepo *repository.UserReadRepository, pagination config.Pagination) *UserQueryService {
	return &UserQueryService{readRepo: readRepo, pagination: pagination}
}

func (s *UserQueryService) GetUser(ctx context.Context, userID string) (*models.UserView, error) {
	return s.readRepo.GetByID(ctx, userID)
}

// ListUsers returns a page of active users wrapped in the standard envelope.
func (s *UserQueryService) ListUsers(ctx context.Context, q ListUsersQuery) (*models.Page, error) {
	limit, offset := s.pagination.Clamp(q.Limit, q.Offset)

	views, total, err := s.readRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]any, len(views))
	for i, v := range views {
		entries[i] = v
	}
	return &models.Page{
		Entries:      entries,
		Limit:        limit,
		Offset:       offset,
		OverallCount: total,
	}, nil
}
