package services

import (
	"errors"
	"fmt"
)

// ValidationError is a local, pre-network rejection (empty feedback, zero
// rating score, bad amount). Handlers surface it as 422 and nothing is
// written to any store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a local validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrInFlight is returned when the same operation is already running for
// the same bounty. Replaces the client's reliance on disabled-button timing.
var ErrInFlight = errors.New("operation already in progress for this bounty")

// ErrForbidden is returned when the actor is not allowed to perform the
// operation on this bounty.
var ErrForbidden = errors.New("not allowed to perform this action")
