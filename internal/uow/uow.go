package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgres "github.com/kirinyoku/reserveme/internal/repository/postgres"
)

const defaultMaxAttempts = 3

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// TxRunner starts a transaction and runs fn inside it. *postgres.Store
// implements it.
type TxRunner interface {
	RunTx(ctx context.Context, opts *pgx.TxOptions, fn func(ctx context.Context, tx postgres.DB) error) error
}

// UoW represents a unit of work. T is the transaction-bound view of the store
// handed to the work function, built by bind for every attempt.
type UoW[T any] struct {
	store       TxRunner
	bind        func(tx postgres.DB) T
	opts        *pgx.TxOptions
	maxAttempts int
}

type Option func(*options)

type options struct {
	txOpts      *pgx.TxOptions
	maxAttempts int
}

// WithTxOptions sets the transaction options used by Do.
func WithTxOptions(o pgx.TxOptions) Option {
	return func(opts *options) { opts.txOpts = &o }
}

// WithMaxAttempts bounds how many times a transaction failing with a
// serialization failure or a deadlock is started over.
func WithMaxAttempts(n int) Option {
	return func(opts *options) { opts.maxAttempts = n }
}

func New[T any](store TxRunner, bind func(tx postgres.DB) T, opts ...Option) *UoW[T] {
	o := options{maxAttempts: defaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxAttempts <= 0 {
		o.maxAttempts = 1
	}

	return &UoW[T]{
		store:       store,
		bind:        bind,
		opts:        o.txOpts,
		maxAttempts: o.maxAttempts,
	}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW[T]) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx T, after func(AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, u.opts, fn)
}

// DoWithOpts runs fn inside the transaction with the given options. After a successful commit,
// it executes all after-commit hooks. Hooks registered by a failed attempt are discarded.
func (u *UoW[T]) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx T, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit
	var err error

	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		hooks = hooks[:0]

		err = u.store.RunTx(ctx, opts, func(ctx context.Context, tx postgres.DB) error {
			return fn(ctx, u.bind(tx), func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil || !postgres.IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
