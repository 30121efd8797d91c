package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/domain"
)

type VenueTypeRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *VenueTypeRepo) With(db DB) *VenueTypeRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *VenueTypeRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *VenueTypeRepo) List(ctx context.Context) ([]domain.VenueType, error) {
	const op = "postgres.VenueTypeRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx, `SELECT id, name FROM venue_types ORDER BY name`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.VenueType{}
	for rows.Next() {
		var t domain.VenueType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
