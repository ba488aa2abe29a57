package models

import "time"

// User is the write model for an account holder. Balance is held in cents and
// is only ever mutated by the transaction command service; it always equals
// the sum of the values of the user's transactions.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MailAddress string    `json:"mail_address,omitempty"`
	Balance     int64     `json:"balance"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transaction is a single ledger entry. Value is signed: positive entries
// credit the user, negative entries debit. DoubleEntryID links the two legs of
// a transfer and is nil for single entries; once both legs are persisted the
// references are mutually symmetric and the values are exact negations.
type Transaction struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Value         int64     `json:"value"`
	DoubleEntryID *string   `json:"double_entry_id"`
	CreatedAt     time.Time `json:"created_at"`
}
