package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	postgresrepo "github.com/kirinyoku/reserveme/internal/repository/postgres"
)

type ChangeNotifier interface {
	VenueChanged(ctx context.Context, venueID int64)
}

// StaffDirectory records which venue a staff user works at.
type StaffDirectory interface {
	SetVenue(ctx context.Context, userID string, venueID *int64) error
}

type Service struct {
	store    *postgresrepo.Store
	staff    StaffDirectory
	notifier ChangeNotifier
}

func New(store *postgresrepo.Store, notifier ChangeNotifier) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
	}
	if store != nil {
		s.staff = store.Users()
	}
	return s
}

// CreateVenue creates an active venue and returns its ID.
//
// Parameters:
//   - ctx: request-scoped context.
//   - name: venue name.
//   - description: optional free text.
//   - venueTypeID: optional venue type.
//
// Returns:
//   - int64: the created venue ID on success.
//   - error: admin.ErrInvalidName if name is blank.
//   - error: admin.ErrVenueTypeNotFound if venueTypeID does not exist.
func (s *Service) CreateVenue(
	ctx context.Context,
	name string,
	description *string,
	venueTypeID *int64,
) (int64, error) {
	const op = "service.admin.CreateVenue"

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%s:%w", op, ErrInvalidName)
	}

	id, err := s.store.Venues().Create(ctx, name, description, venueTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s:%w", op, ErrVenueTypeNotFound)
		}
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return id, nil
}

// CreateTable adds an active table to a venue.
//
// Returns:
//   - error: admin.ErrInvalidTableNumber or admin.ErrInvalidCapacity on bad input.
//   - error: admin.ErrTableConflict if the venue already has this table number.
//   - error: admin.ErrVenueNotFound if the venue does not exist.
func (s *Service) CreateTable(ctx context.Context, venueID int64, tableNumber, capacity int) (*domain.Table, error) {
	const op = "service.admin.CreateTable"

	if tableNumber <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidTableNumber)
	}

	if capacity <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidCapacity)
	}

	t, err := s.store.Tables().Create(ctx, venueID, tableNumber, capacity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%s:%w", op, ErrTableConflict)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		default:
			return nil, fmt.Errorf("%s:%w", op, err)
		}
	}

	s.venueChanged(ctx, venueID)

	return t, nil
}

// SetTableActive toggles whether a table counts towards its venue's capacity.
//
// Returns:
//   - error: admin.ErrTableNotFound if the table does not exist.
func (s *Service) SetTableActive(ctx context.Context, tableID int64, active bool) error {
	const op = "service.admin.SetTableActive"

	venueID, err := s.store.Tables().SetActive(ctx, tableID, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTableNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	s.venueChanged(ctx, venueID)

	return nil
}

// SetVenueActive opens or closes a venue for new reservations.
//
// Returns:
//   - error: admin.ErrVenueNotFound if the venue does not exist or was deleted.
func (s *Service) SetVenueActive(ctx context.Context, venueID int64, active bool) error {
	const op = "service.admin.SetVenueActive"

	if err := s.store.Venues().SetActive(ctx, venueID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	s.venueChanged(ctx, venueID)

	return nil
}

// DeleteVenue soft-deletes a venue. Existing reservations are kept.
//
// Returns:
//   - error: admin.ErrVenueNotFound if the venue does not exist or was deleted.
func (s *Service) DeleteVenue(ctx context.Context, venueID int64) error {
	const op = "service.admin.DeleteVenue"

	if err := s.store.Venues().SoftDelete(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	s.venueChanged(ctx, venueID)

	return nil
}

// AssignStaffVenue sets the venue a staff user works at. A nil venueID
// unassigns the user.
//
// Returns:
//   - error: admin.ErrInvalidUserID if userID is blank.
//   - error: admin.ErrUserNotFound if the user does not exist.
//   - error: admin.ErrVenueNotFound if venueID does not exist.
func (s *Service) AssignStaffVenue(ctx context.Context, userID string, venueID *int64) error {
	const op = "service.admin.AssignStaffVenue"

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%s:%w", op, ErrInvalidUserID)
	}

	if err := s.staff.SetVenue(ctx, userID, venueID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%s:%w", op, ErrUserNotFound)
		case errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%s:%w", op, ErrVenueNotFound)
		default:
			return fmt.Errorf("%s:%w", op, err)
		}
	}

	return nil
}

func (s *Service) venueChanged(ctx context.Context, venueID int64) {
	if s.notifier != nil {
		s.notifier.VenueChanged(ctx, venueID)
	}
}
