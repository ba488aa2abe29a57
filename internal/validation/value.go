// Package validation holds the transaction value policy checks that run
// before any mutation begins.
package validation

import "github.com/tallybank/ledger-service/internal/errs"

// Validator enforces the configured bounds on transaction values.
// It has no side effects.
type Validator struct {
	MinValue int64
	MaxValue int64
}

func New(minValue, maxValue int64) *Validator {
	return &Validator{MinValue: minValue, MaxValue: maxValue}
}

// Validate rejects zero values and values outside [MinValue, MaxValue].
// A zero value is a malformed request; an out-of-range value breaches the
// configured policy limit and is reported as a distinct error.
func (v *Validator) Validate(value int64) error {
	if value == 0 {
		return errs.ErrValueZero
	}
	if value < v.MinValue || value > v.MaxValue {
		return errs.ErrValueOutOfRange
	}
	return nil
}
