package query

// ListUsersQuery fetches a page of active users.
type ListUsersQuery struct {
	Limit  int
	Offset int
}

// ListUserTransactionsQuery fetches a page of one user's transactions.
type ListUserTransactionsQuery struct {
	UserID string
	Limit  int
	Offset int
}

// GetUserTransactionQuery fetches a single transaction scoped to a user.
type GetUserTransactionQuery struct {
	UserID        string
	TransactionID string
}

// ListTransactionsQuery fetches a page of all transactions.
type ListTransactionsQuery struct {
	Limit  int
	Offset int
}
