package models

import "time"

// UserView is the full read projection of a user, including the mail address.
type UserView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MailAddress string    `json:"mail_address,omitempty"`
	Balance     int64     `json:"balance"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserSummaryView is the listing projection; it never exposes mail_address.
type UserSummaryView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
	Active  bool   `json:"active"`
}

// TransactionView is the read projection of a transaction.
type TransactionView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Value         int64     `json:"value"`
	DoubleEntryID *string   `json:"double_entry_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Page is the envelope returned by every list endpoint.
type Page struct {
	Entries      []any `json:"entries"`
	Limit        int   `json:"limit"`
	Offset       int   `json:"offset"`
	OverallCount int   `json:"overall_count"`
}
