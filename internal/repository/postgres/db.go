package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// RunTx runs fn inside a single transaction. The transaction is rolled back
// when fn returns an error, when the commit fails or when ctx is cancelled
// before the commit. Default isolation is serializable.
func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "postgres.Store.Migrate"

	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Store) Venues() *VenueRepo             { return &VenueRepo{pool: s.pool} }
func (s *Store) Tables() *TableRepo             { return &TableRepo{pool: s.pool} }
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{pool: s.pool} }
func (s *Store) Users() *UserRepo               { return &UserRepo{pool: s.pool} }
func (s *Store) VenueTypes() *VenueTypeRepo     { return &VenueTypeRepo{pool: s.pool} }
func (s *Store) Reviews() *ReviewRepo           { return &ReviewRepo{pool: s.pool} }
