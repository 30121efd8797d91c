package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/config"
	"github.com/kirinyoku/reserveme/internal/metrics"
	"github.com/kirinyoku/reserveme/internal/postgres"
	"github.com/kirinyoku/reserveme/internal/redis"
	postgresrepo "github.com/kirinyoku/reserveme/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/reserveme/internal/repository/redis"
	"github.com/kirinyoku/reserveme/internal/service"
	"github.com/kirinyoku/reserveme/internal/service/admission"
	"github.com/kirinyoku/reserveme/internal/service/query"
	httpgin "github.com/kirinyoku/reserveme/internal/transport/http/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	pubsub     *redisrepo.VenuesPubSub
	metrics    *metrics.Metrics
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	// Initialize dependencies
	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	if cfg.MigrateOnStart {
		if err := store.Migrate(ctx); err != nil {
			pgxPool.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		logger.Info("schema applied")
	}

	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewVenuesPubSub(rdb)
	notifier := redisrepo.NewVenueNotifier(cache, pubsub, logger)
	limiter := redisrepo.NewLimiter(rdb,
		redisrepo.Policy{Scope: httpgin.ScopeReservations, Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window},
		redisrepo.Policy{Scope: httpgin.ScopeReviews, Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window},
		redisrepo.Policy{Scope: httpgin.ScopeAdmin, Limit: cfg.AdminRateLimit.Limit, Window: cfg.AdminRateLimit.Window},
	)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.Cache.IdempotencyTTL)

	m := metrics.New()

	// Initialize services
	services := service.NewServices(store, cache, notifier, m, logger, service.Config{
		Admission: admission.Config{Window: cfg.Admission.Window},
		Query:     query.Config{AvailabilityTTL: cfg.Cache.AvailabilityTTL},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(httpgin.Deps{
		Admission:      services.Admission,
		Venues:         services.Query,
		Reservations:   services.Reservations,
		Admin:          services.Admin,
		Reviews:        services.Reviews,
		Idempotency:    idempotencyStore,
		Limiter:        limiter,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		Logger:         logger,
	})

	return &App{
		cfg:     cfg,
		logger:  logger,
		pool:    pgxPool,
		rdb:     rdb,
		pubsub:  pubsub,
		metrics: m,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Venue changes made by other instances
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(_ context.Context, venueID int64) {
			a.metrics.VenueChangesTotal.Inc()
			a.logger.Debug("venue changed", "venue_id", venueID)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("venue subscription stopped: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("failed to close redis", "error", err)
	}
	a.pool.Close()
}
