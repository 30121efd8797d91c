package reservations

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/reserveme/internal/domain"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidStatus       = errors.New("unknown reservation status")
)

// TransitionError names the rejected status change.
type TransitionError struct {
	From domain.ReservationStatus
	To   domain.ReservationStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot move reservation from %s to %s", e.From, e.To)
}

func (e TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
