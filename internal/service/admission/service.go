package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	"github.com/kirinyoku/reserveme/internal/uow"
)

// DefaultWindow is the radius of the admission window around a requested time.
const DefaultWindow = 120 * time.Minute

// Outcome labels passed to a Recorder.
const (
	OutcomeAdmitted         = "admitted"
	OutcomeInvalid          = "invalid"
	OutcomeVenueUnavailable = "venue_unavailable"
	OutcomeNoCapacity       = "no_capacity"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeError            = "error"
)

// Store is the read side used outside a transaction.
type Store interface {
	VenueExistsActive(ctx context.Context, venueID int64) (bool, error)
	SumActiveTableCapacity(ctx context.Context, venueID int64) (int, error)
	SumOverlappingGuests(
		ctx context.Context,
		venueID int64,
		from, to time.Time,
		statuses []domain.ReservationStatus,
	) (int, error)
}

// Tx is the store bound to a running transaction.
type Tx interface {
	// LockVenue serialises admissions for a venue until the transaction ends.
	// It returns repository.ErrNotFound when the venue is no longer eligible.
	LockVenue(ctx context.Context, venueID int64) error
	SumActiveTableCapacity(ctx context.Context, venueID int64) (int, error)
	SumOverlappingGuests(
		ctx context.Context,
		venueID int64,
		from, to time.Time,
		statuses []domain.ReservationStatus,
	) (int, error)
	InsertReservation(ctx context.Context, res *domain.Reservation) (int64, error)
}

// Transactor runs fn inside one transaction and calls the registered hooks
// after a successful commit.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error) error
}

type UserDirectory interface {
	LookupUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

type ChangeNotifier interface {
	VenueChanged(ctx context.Context, venueID int64)
}

type Recorder interface {
	ObserveAdmission(outcome string, took time.Duration)
}

type Config struct {
	Window time.Duration
}

type Option func(*Service)

func WithUserDirectory(users UserDirectory) Option {
	return func(s *Service) { s.users = users }
}

func WithNotifier(n ChangeNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	store    Store
	tx       Transactor
	users    UserDirectory
	notifier ChangeNotifier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	cfg      Config
}

func New(store Store, tx Transactor, cfg Config, opts ...Option) *Service {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	s := &Service{
		store: store,
		tx:    tx,
		cfg:   cfg,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

type Request struct {
	VenueID         int64
	TableNumber     *int
	GuestsCount     int
	ContactName     *string
	ContactPhone    *string
	ContactEmail    *string
	ReservationTime *time.Time
	Status          domain.ReservationStatus
	UserID          *string
}

// Window returns the exclusive bounds of the admission window around at.
func Window(at time.Time, radius time.Duration) (from, to time.Time) {
	return at.Add(-radius), at.Add(radius)
}

// Admit validates the request and, if the venue still has room for the party
// inside the admission window, stores the reservation.
//
// Parameters:
//   - ctx: request-scoped context; cancelling it before commit aborts the
//     transaction.
//   - req: the reservation request.
//
// Returns:
//   - int64: the ID of the stored reservation.
//   - error: ValidationError wrapping ErrMissingTime, ErrInvalidGuestCount,
//     ErrInvalidStatus or, when the insert finds no such user, ErrUnknownUser.
//   - error: admission.ErrVenueUnavailable if the venue is missing, inactive or deleted.
//   - error: admission.ErrNoCapacityConfigured if the venue has no active capacity.
//   - error: CapacityExceededError if the party does not fit.
//   - error: TransactionError if the store failed inside the transaction.
func (s *Service) Admit(ctx context.Context, req Request) (int64, error) {
	start := time.Now()

	id, err := s.admit(ctx, req)

	if s.recorder != nil {
		s.recorder.ObserveAdmission(outcomeOf(err), time.Since(start))
	}

	return id, err
}

func (s *Service) admit(ctx context.Context, req Request) (int64, error) {
	const op = "service.admission.Admit"

	if err := validate(req); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	ok, err := s.store.VenueExistsActive(ctx, req.VenueID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if !ok {
		return 0, fmt.Errorf("%s:%w", op, ErrVenueUnavailable)
	}

	s.backfillContact(ctx, &req)

	res := &domain.Reservation{
		UserID:          req.UserID,
		VenueID:         req.VenueID,
		TableNumber:     req.TableNumber,
		GuestsCount:     req.GuestsCount,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		ContactEmail:    req.ContactEmail,
		ReservationTime: req.ReservationTime,
		Status:          req.Status,
		CreatedAt:       s.now().UTC(),
	}

	from, to := Window(*req.ReservationTime, s.cfg.Window)

	var id int64

	err = s.tx.Do(ctx, func(
		ctx context.Context,
		tx Tx,
		after func(uow.AfterCommit),
	) error {
		if err := tx.LockVenue(ctx, req.VenueID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrVenueUnavailable
			}

			return err
		}

		capacity, err := tx.SumActiveTableCapacity(ctx, req.VenueID)
		if err != nil {
			return err
		}

		if capacity <= 0 {
			return ErrNoCapacityConfigured
		}

		if req.GuestsCount > capacity {
			return CapacityExceededError{Requested: req.GuestsCount, AvailableSeats: 0}
		}

		occupied, err := tx.SumOverlappingGuests(ctx, req.VenueID, from, to, domain.HoldingStatuses())
		if err != nil {
			return err
		}

		available := capacity - occupied
		if req.GuestsCount > available {
			return CapacityExceededError{Requested: req.GuestsCount, AvailableSeats: max(0, available)}
		}

		rid, err := tx.InsertReservation(ctx, res)
		if err != nil {
			// The venue row is locked, so a missing reference here is the user.
			if req.UserID != nil && errors.Is(err, repository.ErrNotFound) {
				return ValidationError{Field: "user_id", Err: ErrUnknownUser}
			}
			return err
		}

		id = rid

		after(func(ctx context.Context) {
			if s.notifier != nil {
				s.notifier.VenueChanged(ctx, req.VenueID)
			}
		})

		return nil
	})
	if err != nil {
		if isRejection(err) {
			s.logger.Debug("reservation rejected",
				"venue_id", req.VenueID,
				"guests", req.GuestsCount,
				"reason", err,
			)
			return 0, fmt.Errorf("%s:%w", op, err)
		}

		return 0, fmt.Errorf("%s:%w", op, TransactionError{Err: err})
	}

	return id, nil
}

// Availability reports free seats around at using the same window and status
// rules as Admit. It reads outside a transaction and takes no locks.
//
// Returns:
//   - error: admission.ErrVenueUnavailable if the venue is missing, inactive or deleted.
//   - error: admission.ErrNoCapacityConfigured if the venue has no active capacity.
func (s *Service) Availability(ctx context.Context, venueID int64, at time.Time) (*domain.VenueAvailability, error) {
	const op = "service.admission.Availability"

	ok, err := s.store.VenueExistsActive(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if !ok {
		return nil, fmt.Errorf("%s:%w", op, ErrVenueUnavailable)
	}

	capacity, err := s.store.SumActiveTableCapacity(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if capacity <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrNoCapacityConfigured)
	}

	from, to := Window(at, s.cfg.Window)

	occupied, err := s.store.SumOverlappingGuests(ctx, venueID, from, to, domain.HoldingStatuses())
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.VenueAvailability{
		VenueID:     venueID,
		At:          at,
		WindowStart: from,
		WindowEnd:   to,
		Capacity:    capacity,
		Occupied:    occupied,
		Available:   max(0, capacity-occupied),
	}, nil
}

func validate(req Request) error {
	if req.ReservationTime == nil || req.ReservationTime.IsZero() {
		return ValidationError{Field: "reservation_time", Err: ErrMissingTime}
	}

	if req.GuestsCount <= 0 {
		return ValidationError{Field: "guests_count", Err: ErrInvalidGuestCount}
	}

	if !req.Status.Valid() {
		return ValidationError{Field: "status", Err: ErrInvalidStatus}
	}

	return nil
}

// backfillContact fills empty contact fields from the user's profile. Lookup
// failures are logged and ignored.
func (s *Service) backfillContact(ctx context.Context, req *Request) {
	if s.users == nil || blank(req.UserID) {
		return
	}

	if !blank(req.ContactName) && !blank(req.ContactPhone) && !blank(req.ContactEmail) {
		return
	}

	p, err := s.users.LookupUserProfile(ctx, *req.UserID)
	if err != nil {
		s.logger.Warn("contact backfill skipped", "user_id", *req.UserID, "error", err)
		return
	}

	if p == nil {
		return
	}

	if blank(req.ContactName) {
		req.ContactName = nonEmpty(strings.TrimSpace(p.FirstName + " " + p.LastName))
	}

	if blank(req.ContactPhone) {
		req.ContactPhone = nonEmpty(p.Phone)
	}

	if blank(req.ContactEmail) {
		req.ContactEmail = nonEmpty(p.Email)
	}
}

func outcomeOf(err error) string {
	var capErr CapacityExceededError
	var valErr ValidationError

	switch {
	case err == nil:
		return OutcomeAdmitted
	case errors.As(err, &valErr):
		return OutcomeInvalid
	case errors.Is(err, ErrVenueUnavailable):
		return OutcomeVenueUnavailable
	case errors.Is(err, ErrNoCapacityConfigured):
		return OutcomeNoCapacity
	case errors.As(err, &capErr):
		return OutcomeCapacityExceeded
	default:
		return OutcomeError
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
