package events

import "time"

// Event types
const (
	UserCreated     = "user.created"
	UserDeactivated = "user.deactivated"

	TransactionCreated = "transaction.created"
	BalanceUpdated     = "balance.updated"
)

// Stream names
const (
	UserEventsStream   = "user.events"
	LedgerEventsStream = "ledger.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserCreatedEvent struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type UserDeactivatedEvent struct {
	UserID string `json:"user_id"`
}

// Ledger events
type TransactionCreatedEvent struct {
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	Value         int64   `json:"value"`
	DoubleEntryID *string `json:"double_entry_id,omitempty"`
}

type BalanceUpdatedEvent struct {
	UserID     string `json:"user_id"`
	NewBalance int64  `json:"new_balance"`
	Change     int64  `json:"change"`
}
