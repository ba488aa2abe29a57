// Package projector keeps the Redis read model coherent across service
// instances by reacting to ledger events: whichever instance committed a
// balance change, every instance's next read refetches the fresh projection.
package projector

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tallybank/ledger-service/internal/events"
	"github.com/tallybank/ledger-service/internal/repository"
)

type Projector struct {
	userReads *repository.UserReadRepository
	log       *zap.Logger
}

func New(userReads *repository.UserReadRepository, log *zap.Logger) *Projector {
	return &Projector{userReads: userReads, log: log}
}

// HandleLedgerEvent is the subscriber handler for the ledger event stream.
func (p *Projector) HandleLedgerEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.BalanceUpdated:
		dataBytes, _ := json.Marshal(event.Data)
		var data events.BalanceUpdatedEvent
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			return fmt.Errorf("failed to unmarshal balance.updated event: %w", err)
		}
		p.userReads.InvalidateUserView(ctx, data.UserID)
		p.log.Debug("invalidated user view",
			zap.String("user_id", data.UserID),
			zap.Int64("new_balance", data.NewBalance))
	case events.TransactionCreated:
		// Transaction views are immutable once written; nothing to refresh.
	}
	return nil
}
