// Package errs defines the sentinel errors shared across the service.
// Handlers map them to HTTP statuses with errors.Is; lower layers wrap them
// with context but never invent parallel variants.
package errs

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateUser       = errors.New("user already exists")
	ErrMissingField        = errors.New("required field missing")
	ErrValueZero           = errors.New("transaction value must not be zero")
	ErrValueOutOfRange     = errors.New("transaction value outside allowed bounds")
	ErrSelfTransfer        = errors.New("transfer source and destination must differ")
	ErrTransientConflict   = errors.New("storage conflict persisted across retries")
)
