package service

import (
	"log/slog"

	postgres "github.com/kirinyoku/reserveme/internal/repository/postgres"
	redis "github.com/kirinyoku/reserveme/internal/repository/redis"
	"github.com/kirinyoku/reserveme/internal/service/admin"
	"github.com/kirinyoku/reserveme/internal/service/admission"
	"github.com/kirinyoku/reserveme/internal/service/query"
	"github.com/kirinyoku/reserveme/internal/service/reservations"
	"github.com/kirinyoku/reserveme/internal/service/reviews"
)

type Services struct {
	Admission    *admission.Service
	Reservations *reservations.Service
	Query        *query.Service
	Admin        *admin.Service
	Reviews      *reviews.Service
}

type Config struct {
	Admission admission.Config
	Query     query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	notifier *redis.VenueNotifier,
	recorder admission.Recorder,
	logger *slog.Logger,
	cfg Config,
) *Services {
	admissions := admission.New(
		admission.NewPostgresStore(store),
		admission.NewPostgresTransactor(store),
		cfg.Admission,
		admission.WithUserDirectory(admission.NewUserProfiles(store)),
		admission.WithNotifier(notifier),
		admission.WithRecorder(recorder),
		admission.WithLogger(logger),
	)

	return &Services{
		Admission: admissions,
		Reservations: reservations.New(
			store.Reservations(),
			reservations.NewPostgresTransactor(store),
			notifier,
		),
		Query:   query.New(store, cache, admissions, cfg.Query),
		Admin:   admin.New(store, notifier),
		Reviews: reviews.New(store.Reviews(), store.Venues(), notifier),
	}
}
