package command

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/events"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/utils"
	"github.com/tallybank/ledger-service/internal/validation"
)

// Ledger is the atomic-scope contract of the storage layer.
type Ledger interface {
	RunAtomic(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// UserStore covers the user rows touched inside an atomic scope.
type UserStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*models.User, error)
	ApplyBalanceDelta(ctx context.Context, tx *sql.Tx, id string, delta int64) (int64, error)
}

// TransactionStore covers the append-only transaction rows.
type TransactionStore interface {
	Insert(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error
	SetDoubleEntryID(ctx context.Context, tx *sql.Tx, id, doubleEntryID string) error
}

// TransactionViewCache warms the read model after a commit.
type TransactionViewCache interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
}

// UserViewCache drops stale user projections after a balance change.
type UserViewCache interface {
	InvalidateUserView(ctx context.Context, userID string)
}

// EventPublisher emits domain events after a commit.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// TransactionCommandService creates ledger entries. Validation runs before
// any mutation; all row writes for one request happen inside a single atomic
// scope, so either every write persists or none does.
type TransactionCommandService struct {
	store     Ledger
	users     UserStore
	txns      TransactionStore
	txnViews  TransactionViewCache
	userViews UserViewCache
	validator *validation.Validator
	publisher EventPublisher
	log       *zap.Logger
}

func NewTransactionCommandService(
	store Ledger,
	users UserStore,
	txns TransactionStore,
	txnViews TransactionViewCache,
	userViews UserViewCache,
	validator *validation.Validator,
	publisher EventPublisher,
	log *zap.Logger,
) *TransactionCommandService {
	return &TransactionCommandService{
		store:     store,
		users:     users,
		txns:      txns,
		txnViews:  txnViews,
		userViews: userViews,
		validator: validator,
		publisher: publisher,
		log:       log,
	}
}

// CreateSingleEntry records one entry for a user and moves the balance by
// value. The insert and the balance update commit together or not at all.
func (s *TransactionCommandService) CreateSingleEntry(ctx context.Context, cmd CreateSingleEntryCommand) (*models.Transaction, error) {
	if err := s.validator.Validate(cmd.Value); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		ID:        utils.GenerateID("txn"),
		UserID:    cmd.UserID,
		Value:     cmd.Value,
		CreatedAt: time.Now().UTC(),
	}

	var newBalance int64
	err := s.store.RunAtomic(ctx, func(tx *sql.Tx) error {
		if _, err := s.users.GetForUpdate(ctx, tx, cmd.UserID); err != nil {
			return err
		}
		if err := s.txns.Insert(ctx, tx, transaction); err != nil {
			return err
		}
		balance, err := s.users.ApplyBalanceDelta(ctx, tx, cmd.UserID, cmd.Value)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.txnViews.CacheTransactionView(ctx, txnToView(transaction))
	s.userViews.InvalidateUserView(ctx, cmd.UserID)
	s.publishEntry(ctx, transaction, cmd.UserID, newBalance, cmd.Value)

	return transaction, nil
}

// CreateDoubleEntry records a transfer as two linked entries: the initiating
// user is credited with Value, the destination debited by the same amount.
// Both legs, their mutual linkage and both balance updates form one atomic
// scope; no reader ever observes a half-linked pair.
func (s *TransactionCommandService) CreateDoubleEntry(ctx context.Context, cmd CreateDoubleEntryCommand) (*models.Transaction, error) {
	if cmd.SrcUserID == cmd.DstUserID {
		return nil, errs.ErrSelfTransfer
	}
	// Each leg is validated independently: the credited leg carries Value,
	// the debited leg carries -Value, and with asymmetric bounds one can
	// fail while the other passes.
	if err := s.validator.Validate(cmd.Value); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(-cmd.Value); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leg1 := &models.Transaction{
		ID:        utils.GenerateID("txn"),
		UserID:    cmd.SrcUserID,
		Value:     cmd.Value,
		CreatedAt: now,
	}
	leg2 := &models.Transaction{
		ID:            utils.GenerateID("txn"),
		UserID:        cmd.DstUserID,
		Value:         -cmd.Value,
		DoubleEntryID: &leg1.ID,
		CreatedAt:     now,
	}

	var srcBalance, dstBalance int64
	err := s.store.RunAtomic(ctx, func(tx *sql.Tx) error {
		// Lock both user rows in a stable order so transfers over
		// overlapping pairs cannot deadlock on each other.
		for _, id := range lockOrder(cmd.SrcUserID, cmd.DstUserID) {
			if _, err := s.users.GetForUpdate(ctx, tx, id); err != nil {
				return err
			}
		}
		if err := s.txns.Insert(ctx, tx, leg1); err != nil {
			return err
		}
		if err := s.txns.Insert(ctx, tx, leg2); err != nil {
			return err
		}
		if err := s.txns.SetDoubleEntryID(ctx, tx, leg1.ID, leg2.ID); err != nil {
			return err
		}
		balance, err := s.users.ApplyBalanceDelta(ctx, tx, cmd.SrcUserID, cmd.Value)
		if err != nil {
			return err
		}
		srcBalance = balance
		balance, err = s.users.ApplyBalanceDelta(ctx, tx, cmd.DstUserID, -cmd.Value)
		if err != nil {
			return err
		}
		dstBalance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	leg1.DoubleEntryID = &leg2.ID

	s.txnViews.CacheTransactionView(ctx, txnToView(leg1))
	s.txnViews.CacheTransactionView(ctx, txnToView(leg2))
	s.userViews.InvalidateUserView(ctx, cmd.SrcUserID)
	s.userViews.InvalidateUserView(ctx, cmd.DstUserID)
	s.publishEntry(ctx, leg1, cmd.SrcUserID, srcBalance, cmd.Value)
	s.publishEntry(ctx, leg2, cmd.DstUserID, dstBalance, -cmd.Value)

	return leg1, nil
}

// publishEntry emits transaction.created and balance.updated. Event delivery
// is best effort: the ledger write has already committed.
func (s *TransactionCommandService) publishEntry(ctx context.Context, t *models.Transaction, userID string, newBalance, change int64) {
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Value:         t.Value,
		DoubleEntryID: t.DoubleEntryID,
	}); err != nil {
		s.log.Warn("failed to publish transaction.created", zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		UserID:     userID,
		NewBalance: newBalance,
		Change:     change,
	}); err != nil {
		s.log.Warn("failed to publish balance.updated", zap.Error(err))
	}
}

func lockOrder(a, b string) []string {
	if strings.Compare(a, b) <= 0 {
		return []string{a, b}
	}
	return []string{b, a}
}

// txnToView converts the write model to a read view model.
func txnToView(t *models.Transaction) *models.TransactionView {
	return &models.TransactionView{
		ID:            t.ID,
		UserID:        t.UserID,
		Value:         t.Value,
		DoubleEntryID: t.DoubleEntryID,
		CreatedAt:     t.CreatedAt,
	}
}
