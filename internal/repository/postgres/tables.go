package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/domain"
)

type TableRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TableRepo) With(db DB) *TableRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TableRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// SumActiveCapacity returns the summed capacity of the venue's active tables,
// or 0 when it has none.
func (r *TableRepo) SumActiveCapacity(ctx context.Context, venueID int64) (int, error) {
	const op = "postgres.TableRepo.SumActiveCapacity"

	db := r.handle()

	var capacity int
	if err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(capacity), 0)
		 FROM venue_tables
		 WHERE venue_id = $1 AND is_active`,
		venueID,
	).Scan(&capacity); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return capacity, nil
}

// ListByVenue lists the tables of a venue ordered by table number.
func (r *TableRepo) ListByVenue(
	ctx context.Context,
	venueID int64,
	includeInactive bool,
) ([]domain.Table, error) {
	const op = "postgres.TableRepo.ListByVenue"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, venue_id, table_number, capacity, status, is_active
		 FROM venue_tables
		 WHERE venue_id = $1 AND ($2 OR is_active)
		 ORDER BY table_number`,
		venueID, includeInactive,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Table{}
	for rows.Next() {
		var t domain.Table
		var status string

		if err := rows.Scan(
			&t.ID,
			&t.VenueID,
			&t.TableNumber,
			&t.Capacity,
			&status,
			&t.IsActive,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		t.Status = domain.TableStatus(status)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Create inserts a table for a venue.
//
// Returns:
//   - error: repository.ErrConflict if the table number is taken in this venue.
//   - error: repository.ErrNotFound if the venue does not exist.
func (r *TableRepo) Create(ctx context.Context, venueID int64, tableNumber, capacity int) (*domain.Table, error) {
	const op = "postgres.TableRepo.Create"

	db := r.handle()

	t := domain.Table{
		VenueID:     venueID,
		TableNumber: tableNumber,
		Capacity:    capacity,
		Status:      domain.TableAvailable,
		IsActive:    true,
	}

	if err := db.QueryRow(ctx,
		`INSERT INTO venue_tables(venue_id, table_number, capacity, status, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 RETURNING id`,
		venueID, tableNumber, capacity, string(t.Status),
	).Scan(&t.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

// SetActive toggles whether the table contributes to venue capacity and
// returns the venue the table belongs to.
//
// Returns:
//   - error: repository.ErrNotFound if the table does not exist.
func (r *TableRepo) SetActive(ctx context.Context, tableID int64, active bool) (int64, error) {
	const op = "postgres.TableRepo.SetActive"

	db := r.handle()

	var venueID int64
	if err := db.QueryRow(ctx,
		`UPDATE venue_tables SET is_active = $2
		 WHERE id = $1
		 RETURNING venue_id`,
		tableID, active,
	).Scan(&venueID); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return venueID, nil
}
