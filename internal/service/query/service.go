package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
	postgresrepo "github.com/kirinyoku/reserveme/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/reserveme/internal/repository/redis"
	"github.com/kirinyoku/reserveme/internal/service/admission"
)

type Config struct {
	VenueSummaryTTL time.Duration
	TablesTTL       time.Duration
	AvailabilityTTL time.Duration
	VenueListTTL    time.Duration
	VenueTypesTTL   time.Duration
}

// catalog loads the venue listings behind the cache.
type catalog interface {
	ListVenues(ctx context.Context) ([]domain.VenueListing, error)
	ListVenueTypes(ctx context.Context) ([]domain.VenueType, error)
}

type storeCatalog struct {
	store *postgresrepo.Store
}

func (c storeCatalog) ListVenues(ctx context.Context) ([]domain.VenueListing, error) {
	return c.store.Venues().List(ctx)
}

func (c storeCatalog) ListVenueTypes(ctx context.Context) ([]domain.VenueType, error) {
	return c.store.VenueTypes().List(ctx)
}

type Service struct {
	store     *postgresrepo.Store
	catalog   catalog
	cache     *redisrepo.Cache
	admission *admission.Service
	cfg       Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	admissions *admission.Service,
	cfg Config,
) *Service {
	if cfg.VenueSummaryTTL <= 0 {
		cfg.VenueSummaryTTL = 60 * time.Second
	}

	if cfg.TablesTTL <= 0 {
		cfg.TablesTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.VenueListTTL <= 0 {
		cfg.VenueListTTL = 30 * time.Second
	}

	if cfg.VenueTypesTTL <= 0 {
		cfg.VenueTypesTTL = 10 * time.Minute
	}

	return &Service{
		store:     store,
		catalog:   storeCatalog{store: store},
		cache:     cache,
		admission: admissions,
		cfg:       cfg,
	}
}

// GetVenue retrieves an active venue with its active table count and summed
// capacity, utilizing a caching layer.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the venue to retrieve.
//
// Returns:
//   - *domain.VenueSummary: the retrieved venue.
//   - error: query.ErrVenueNotFound if the venue is missing, inactive or deleted.
func (s *Service) GetVenue(ctx context.Context, id int64) (*domain.VenueSummary, error) {
	const op = "service.query.GetVenue"

	venue, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueSummary(id),
		s.cfg.VenueSummaryTTL,
		func(ctx context.Context) (domain.VenueSummary, error) {
			v, err := s.store.Venues().GetSummary(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.VenueSummary{}, ErrVenueNotFound
				}

				return domain.VenueSummary{}, err
			}

			return *v, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &venue, nil
}

// ListTables lists a venue's tables ordered by table number. Only the active
// listing is cached.
func (s *Service) ListTables(ctx context.Context, venueID int64, includeInactive bool) ([]domain.Table, error) {
	const op = "service.query.ListTables"

	if includeInactive {
		tables, err := s.store.Tables().ListByVenue(ctx, venueID, true)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		return tables, nil
	}

	tables, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueTables(venueID),
		s.cfg.TablesTTL,
		func(ctx context.Context) ([]domain.Table, error) {
			return s.store.Tables().ListByVenue(ctx, venueID, false)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tables, nil
}

// Availability reports the venue's free seats around at, truncated to the
// minute. Snapshots are cached per venue and minute and dropped whenever the
// venue's reservations or tables change.
//
// Returns:
//   - error: admission.ErrVenueUnavailable if the venue is missing, inactive or deleted.
//   - error: admission.ErrNoCapacityConfigured if the venue has no active capacity.
func (s *Service) Availability(ctx context.Context, venueID int64, at time.Time) (*domain.VenueAvailability, error) {
	const op = "service.query.Availability"

	at = at.UTC().Truncate(time.Minute)

	snapshot, err := redisrepo.GetOrSetFieldJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueAvailability(venueID),
		redisrepo.AvailabilityField(at),
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.VenueAvailability, error) {
			a, err := s.admission.Availability(ctx, venueID, at)
			if err != nil {
				return domain.VenueAvailability{}, err
			}

			return *a, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &snapshot, nil
}

// ListVenues returns the client catalogue: every non-deleted venue with its
// type, review count, average rating and reservation count.
func (s *Service) ListVenues(ctx context.Context) ([]domain.VenueListing, error) {
	const op = "service.query.ListVenues"

	venues, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueList(),
		s.cfg.VenueListTTL,
		s.catalog.ListVenues,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return venues, nil
}

// ListVenueTypes returns every venue type ordered by name.
func (s *Service) ListVenueTypes(ctx context.Context) ([]domain.VenueType, error) {
	const op = "service.query.ListVenueTypes"

	types, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyVenueTypes(),
		s.cfg.VenueTypesTTL,
		s.catalog.ListVenueTypes,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return types, nil
}
