package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Admission AdmissionConfig
	Cache     CacheConfig

	RateLimit      RateLimitConfig
	// AdminRateLimit budgets the /admin routes separately from public writes.
	AdminRateLimit RateLimitConfig

	LogLevel       slog.Level
	MigrateOnStart bool
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
}

// DSN renders the connection string pgxpool expects.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type AdmissionConfig struct {
	Window time.Duration
}

type CacheConfig struct {
	AvailabilityTTL time.Duration
	IdempotencyTTL  time.Duration
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: stringEnv("SERVER_HOST", "localhost"),
		Port: serverPort,
	}

	postgresPort, err := intEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	maxConns, err := intEnv("POSTGRES_MAX_CONNS", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     stringEnv("POSTGRES_HOST", "localhost"),
		Port:     postgresPort,
		SSLMode:  stringEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: int32(maxConns),
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     stringEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	window, err := durationEnv("ADMISSION_WINDOW", 120*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	availabilityTTL, err := durationEnv("AVAILABILITY_CACHE_TTL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idemTTL, err := durationEnv("IDEMPOTENCY_TTL", 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit, err := intEnv("RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limitWindow, err := durationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	adminLimit, err := intEnv("ADMIN_RATE_LIMIT", 120)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	adminLimitWindow, err := durationEnv("ADMIN_RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logLevel, err := levelEnv("LOG_LEVEL", slog.LevelInfo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	migrate, err := boolEnv("MIGRATE_ON_START", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:    serverCfg,
		Postgres:  postgresCfg,
		Redis:     redisCfg,
		Admission: AdmissionConfig{Window: window},
		Cache: CacheConfig{
			AvailabilityTTL: availabilityTTL,
			IdempotencyTTL:  idemTTL,
		},
		RateLimit: RateLimitConfig{
			Limit:  limit,
			Window: limitWindow,
		},
		AdminRateLimit: RateLimitConfig{
			Limit:  adminLimit,
			Window: adminLimitWindow,
		},
		LogLevel:       logLevel,
		MigrateOnStart: migrate,
	}, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func levelEnv(key string, def slog.Level) (slog.Level, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return lvl, nil
}
