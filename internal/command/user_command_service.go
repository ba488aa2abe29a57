package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tallybank/ledger-service/internal/errs"
	"github.com/tallybank/ledger-service/internal/events"
	"github.com/tallybank/ledger-service/internal/models"
	"github.com/tallybank/ledger-service/internal/repository"
	"github.com/tallybank/ledger-service/internal/utils"
)

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date. Balances are out of its reach: only the transaction
// command service moves them.
type UserCommandService struct {
	writeRepo *repository.UserWriteRepository
	readRepo  *repository.UserReadRepository
	publisher EventPublisher
	log       *zap.Logger
}

func NewUserCommandService(
	writeRepo *repository.UserWriteRepository,
	readRepo *repository.UserReadRepository,
	publisher EventPublisher,
	log *zap.Logger,
) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		publisher: publisher,
		log:       log,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd CreateUserCommand) (*models.User, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("%w: name", errs.ErrMissingField)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:          utils.GenerateID("usr"),
		Name:        cmd.Name,
		MailAddress: cmd.MailAddress,
		Balance:     0,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.readRepo.CacheUserView(ctx, userToView(user))
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Name:   user.Name,
	}); err != nil {
		s.log.Warn("failed to publish user.created", zap.Error(err))
	}
	return user, nil
}

// DeactivateUser soft-disables a user. The ledger history stays intact; the
// user just drops out of active listings.
func (s *UserCommandService) DeactivateUser(ctx context.Context, userID string) error {
	if err := s.writeRepo.Deactivate(ctx, userID); err != nil {
		return err
	}

	s.readRepo.InvalidateUserView(ctx, userID)
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserDeactivated, events.UserDeactivatedEvent{
		UserID: userID,
	}); err != nil {
		s.log.Warn("failed to publish user.deactivated", zap.Error(err))
	}
	return nil
}

func userToView(u *models.User) *models.UserView {
	return &models.UserView{
		ID:          u.ID,
		Name:        u.Name,
		MailAddress: u.MailAddress,
		Balance:     u.Balance,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
