package admission

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/reserveme/internal/domain"
	postgresrepo "github.com/kirinyoku/reserveme/internal/repository/postgres"
	"github.com/kirinyoku/reserveme/internal/uow"
)

// PostgresStore serves the admission reads and transactions from PostgreSQL.
type PostgresStore struct {
	venues       *postgresrepo.VenueRepo
	tables       *postgresrepo.TableRepo
	reservations *postgresrepo.ReservationRepo
}

func NewPostgresStore(store *postgresrepo.Store) *PostgresStore {
	return &PostgresStore{
		venues:       store.Venues(),
		tables:       store.Tables(),
		reservations: store.Reservations(),
	}
}

// NewPostgresTransactor runs admissions at READ COMMITTED. LockVenue's row lock
// orders concurrent admissions for a venue, and each statement after it sees
// what the previous lock holder committed.
func NewPostgresTransactor(store *postgresrepo.Store) *uow.UoW[Tx] {
	ps := NewPostgresStore(store)

	return uow.New(store, func(db postgresrepo.DB) Tx {
		return &postgresTx{
			venues:       ps.venues.With(db),
			tables:       ps.tables.With(db),
			reservations: ps.reservations.With(db),
		}
	}, uow.WithTxOptions(pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}))
}

func (s *PostgresStore) VenueExistsActive(ctx context.Context, venueID int64) (bool, error) {
	return s.venues.ExistsActive(ctx, venueID)
}

func (s *PostgresStore) SumActiveTableCapacity(ctx context.Context, venueID int64) (int, error) {
	return s.tables.SumActiveCapacity(ctx, venueID)
}

func (s *PostgresStore) SumOverlappingGuests(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	statuses []domain.ReservationStatus,
) (int, error) {
	return s.reservations.SumOverlappingGuests(ctx, venueID, from, to, statuses)
}

type postgresTx struct {
	venues       *postgresrepo.VenueRepo
	tables       *postgresrepo.TableRepo
	reservations *postgresrepo.ReservationRepo
}

func (t *postgresTx) LockVenue(ctx context.Context, venueID int64) error {
	return t.venues.LockForAdmission(ctx, venueID)
}

func (t *postgresTx) SumActiveTableCapacity(ctx context.Context, venueID int64) (int, error) {
	return t.tables.SumActiveCapacity(ctx, venueID)
}

func (t *postgresTx) SumOverlappingGuests(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	statuses []domain.ReservationStatus,
) (int, error) {
	return t.reservations.SumOverlappingGuests(ctx, venueID, from, to, statuses)
}

func (t *postgresTx) InsertReservation(ctx context.Context, res *domain.Reservation) (int64, error) {
	return t.reservations.Insert(ctx, res)
}

// UserProfiles looks up contact details for the backfill.
type UserProfiles struct {
	users *postgresrepo.UserRepo
}

func NewUserProfiles(store *postgresrepo.Store) *UserProfiles {
	return &UserProfiles{users: store.Users()}
}

func (u *UserProfiles) LookupUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return u.users.Profile(ctx, userID)
}
