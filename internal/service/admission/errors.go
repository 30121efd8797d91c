package admission

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTime          = errors.New("reservation time is required")
	ErrInvalidGuestCount    = errors.New("guests count must be greater than zero")
	ErrInvalidStatus        = errors.New("unknown reservation status")
	ErrUnknownUser          = errors.New("user does not exist")
	ErrVenueUnavailable     = errors.New("venue is unavailable")
	ErrNoCapacityConfigured = errors.New("venue has no active table capacity")
	ErrCapacityExceeded     = errors.New("not enough free seats")
	ErrTransactionFailure   = errors.New("reservation transaction failed")
)

// ValidationError reports which request field failed a static check.
type ValidationError struct {
	Field string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// CapacityExceededError is returned when the party does not fit. AvailableSeats
// is never negative.
type CapacityExceededError struct {
	Requested      int
	AvailableSeats int
}

func (e CapacityExceededError) Error() string {
	return fmt.Sprintf("not enough free seats: requested %d, available %d", e.Requested, e.AvailableSeats)
}

func (e CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// TransactionError wraps a store failure that happened inside the admission
// transaction. Nothing was persisted.
type TransactionError struct {
	Err error
}

func (e TransactionError) Error() string {
	return fmt.Sprintf("reservation transaction failed: %v", e.Err)
}

func (e TransactionError) Unwrap() error {
	return e.Err
}

func (e TransactionError) Is(target error) bool {
	return target == ErrTransactionFailure
}

// isRejection reports whether err is a decision taken by the admission rules
// rather than a store failure.
func isRejection(err error) bool {
	var valErr ValidationError

	return errors.As(err, &valErr) ||
		errors.Is(err, ErrVenueUnavailable) ||
		errors.Is(err, ErrNoCapacityConfigured) ||
		errors.Is(err, ErrCapacityExceeded)
}
