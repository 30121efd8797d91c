package reservations

import (
	"github.com/jackc/pgx/v5"
	postgresrepo "github.com/kirinyoku/reserveme/internal/repository/postgres"
	"github.com/kirinyoku/reserveme/internal/uow"
)

// NewPostgresTransactor locks the reservation row for the status change.
func NewPostgresTransactor(store *postgresrepo.Store) *uow.UoW[Tx] {
	repo := store.Reservations()

	return uow.New(store, func(db postgresrepo.DB) Tx {
		return repo.With(db)
	}, uow.WithTxOptions(pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}))
}
