package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	"github.com/kirinyoku/reserveme/internal/uow"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Store interface {
	ListByVenue(ctx context.Context, venueID int64, from, to time.Time, limit, offset int) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ClientReservation, error)
}

// Tx is the reservation store bound to a running transaction.
type Tx interface {
	GetForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) error
}

type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error) error
}

type ChangeNotifier interface {
	VenueChanged(ctx context.Context, venueID int64)
}

type Service struct {
	store    Store
	tx       Transactor
	notifier ChangeNotifier
}

func New(store Store, tx Transactor, notifier ChangeNotifier) *Service {
	return &Service{
		store:    store,
		tx:       tx,
		notifier: notifier,
	}
}

// UpdateStatus moves a reservation through the staff workflow.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the reservation.
//   - status: the new status.
//
// Returns:
//   - error: reservations.ErrInvalidStatus if status is unknown.
//   - error: reservations.ErrReservationNotFound if the reservation is not found.
//   - error: TransitionError (matches reservations.ErrInvalidTransition) if
//     the workflow does not allow the change.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) error {
	const op = "service.reservations.UpdateStatus"

	if !status.Valid() {
		return fmt.Errorf("%s:%w", op, ErrInvalidStatus)
	}

	err := s.tx.Do(ctx, func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error {
		res, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if !res.Status.CanTransitionTo(status) {
			return TransitionError{From: res.Status, To: status}
		}

		if err := tx.UpdateStatus(ctx, id, status); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			if s.notifier != nil {
				s.notifier.VenueChanged(ctx, res.VenueID)
			}
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// ListByVenue lists a venue's reservations ordered by reservation time. Zero
// from or to leave that side of the range open.
func (s *Service) ListByVenue(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	limit, offset int,
) ([]domain.Reservation, error) {
	const op = "service.reservations.ListByVenue"

	limit, offset = page(limit, offset)

	out, err := s.store.ListByVenue(ctx, venueID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ListByUser lists a client's reservations, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ClientReservation, error) {
	const op = "service.reservations.ListByUser"

	limit, offset = page(limit, offset)

	out, err := s.store.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
