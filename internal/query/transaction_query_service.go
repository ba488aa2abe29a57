package query

import (
	"context"

	"github.com/tallybank/ledger-service/internal/config"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/repository"
)

// TransactionQueryService serves transaction reads. User-scoped operations
// resolve the user first so an unknown user reads as not found rather than an
// empty page.
type TransactionQueryService struct {
	readRepo   *repository.TransactionReadRepository
	userReads  *repository.UserReadRepository
	pagination config.Pagination
}

func NewTransactionQueryService(
	readRepo *repository.TransactionReadRepository,
	userReads *repository.UserReadRepository,
	pagination config.Pagination,
) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo, userReads: userReads, pagination: pagination}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	return s.readRepo.GetByID(ctx, transactionID)
}

func (s *TransactionQueryService) GetUserTransaction(ctx context.Context, q GetUserTransactionQuery) (*models.TransactionView, error) {
	if _, err := s.userReads.GetByID(ctx, q.UserID); err != nil {
		return nil, err
	}
	return s.readRepo.GetByIDForUser(ctx, q.TransactionID, q.UserID)
}

// ListUserTransactions returns a page of one user's transactions.
func (s *TransactionQueryService) ListUserTransactions(ctx context.Context, q ListUserTransactionsQuery) (*models.Page, error) {
	if _, err := s.userReads.GetByID(ctx, q.UserID); err != nil {
		return nil, err
	}

	limit, offset := s.pagination.Clamp(q.Limit, q.Offset)
	views, total, err := s.readRepo.ListByUser(ctx, q.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactionPage(views, total, limit, offset), nil
}

// ListTransactions returns a page over the whole ledger.
func (s *TransactionQueryService) ListTransactions(ctx context.Context, q ListTransactionsQuery) (*models.Page, error) {
	limit, offset := s.pagination.Clamp(q.Limit, q.Offset)
	views, total, err := s.readRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactionPage(views, total, limit, offset), nil
}

func transactionPage(views []models.TransactionView, total, limit, offset int) *models.Page {
	entries := make([]any, len(views))
	for i, v := range views {
		entries[i] = v
	}
	return &models.Page{
		Entries:      entries,
		Limit:        limit,
		Offset:       offset,
		OverallCount: total,
	}
}
