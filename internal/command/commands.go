package command

// CreateUserCommand registers a new account holder.
type CreateUserCommand struct {
	Name        string
	MailAddress string
}

// CreateSingleEntryCommand records one balance-affecting entry for a user.
type CreateSingleEntryCommand struct {
	UserID string
	Value  int64
}

// CreateDoubleEntryCommand records a transfer as two linked entries.
// The initiating user's leg carries +Value, the destination's leg carries
// -Value; the sign convention is part of the wire contract.
type CreateDoubleEntryCommand struct {
	SrcUserID string
	DstUserID string
	Value     int64
}
