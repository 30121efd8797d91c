package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
)

type VenueRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *VenueRepo) With(db DB) *VenueRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *VenueRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ExistsActive reports whether the venue exists, is active and is not deleted.
func (r *VenueRepo) ExistsActive(ctx context.Context, venueID int64) (bool, error) {
	const op = "postgres.VenueRepo.ExistsActive"

	db := r.handle()

	var ok bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM venues
		     WHERE id = $1 AND is_active AND NOT is_deleted
		 )`,
		venueID,
	).Scan(&ok); err != nil {
		return false, wrapDBErr(op, err)
	}

	return ok, nil
}

// LockForAdmission takes a row lock on an admission-eligible venue. It must run
// inside a transaction; concurrent callers for the same venue block here until
// the holder commits or rolls back.
//
// Returns:
//   - error: repository.ErrNotFound if the venue is missing, inactive or deleted.
func (r *VenueRepo) LockForAdmission(ctx context.Context, venueID int64) error {
	const op = "postgres.VenueRepo.LockForAdmission"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`SELECT id FROM venues
		 WHERE id = $1 AND is_active AND NOT is_deleted
		 FOR UPDATE`,
		venueID,
	).Scan(&id); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// GetSummary retrieves an active, non-deleted venue together with its active
// table count and summed capacity.
//
// Returns:
//   - error: repository.ErrNotFound if the venue is not found.
func (r *VenueRepo) GetSummary(ctx context.Context, venueID int64) (*domain.VenueSummary, error) {
	const op = "postgres.VenueRepo.GetSummary"

	db := r.handle()

	var v domain.VenueSummary
	err := db.QueryRow(ctx,
		`SELECT v.id, v.venue_type_id, vt.name, v.name, v.description,
		        v.is_active, v.is_deleted, v.created_at,
		        COUNT(t.id) FILTER (WHERE t.is_active),
		        COALESCE(SUM(t.capacity) FILTER (WHERE t.is_active), 0)
		 FROM venues v
		 LEFT JOIN venue_types vt ON vt.id = v.venue_type_id
		 LEFT JOIN venue_tables t ON t.venue_id = v.id
		 WHERE v.id = $1 AND v.is_active AND NOT v.is_deleted
		 GROUP BY v.id, vt.name`,
		venueID,
	).Scan(
		&v.ID,
		&v.VenueTypeID,
		&v.VenueTypeName,
		&v.Name,
		&v.Description,
		&v.IsActive,
		&v.IsDeleted,
		&v.CreatedAt,
		&v.ActiveTables,
		&v.TotalCapacity,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// Create inserts a venue and returns its ID.
//
// Returns:
//   - error: repository.ErrNotFound if venueTypeID references a missing type.
func (r *VenueRepo) Create(
	ctx context.Context,
	name string,
	description *string,
	venueTypeID *int64,
) (int64, error) {
	const op = "postgres.VenueRepo.Create"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO venues(name, description, venue_type_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		name, description, venueTypeID,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// SetActive flips the active flag of a non-deleted venue.
//
// Returns:
//   - error: repository.ErrNotFound if the venue is not found.
func (r *VenueRepo) SetActive(ctx context.Context, venueID int64, active bool) error {
	const op = "postgres.VenueRepo.SetActive"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE venues SET is_active = $2
		 WHERE id = $1 AND NOT is_deleted`,
		venueID, active,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// SoftDelete marks a venue as deleted. Its reservations are kept.
//
// Returns:
//   - error: repository.ErrNotFound if the venue is not found or already deleted.
func (r *VenueRepo) SoftDelete(ctx context.Context, venueID int64) error {
	const op = "postgres.VenueRepo.SoftDelete"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE venues SET is_deleted = TRUE, is_active = FALSE
		 WHERE id = $1 AND NOT is_deleted`,
		venueID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// List returns every non-deleted venue with its review and reservation
// aggregates, ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]domain.VenueListing, error) {
	const op = "postgres.VenueRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT v.id, v.venue_type_id, vt.name, v.name, v.description,
		        v.is_active, v.is_deleted, v.created_at,
		        COALESCE(rv.cnt, 0), rv.avg_rating,
		        COALESCE(rs.cnt, 0)
		 FROM venues v
		 LEFT JOIN venue_types vt ON vt.id = v.venue_type_id
		 LEFT JOIN (
		     SELECT venue_id, COUNT(*) AS cnt, AVG(rating)::float8 AS avg_rating
		     FROM venue_reviews
		     GROUP BY venue_id
		 ) rv ON rv.venue_id = v.id
		 LEFT JOIN (
		     SELECT venue_id, COUNT(*) AS cnt
		     FROM reservations
		     GROUP BY venue_id
		 ) rs ON rs.venue_id = v.id
		 WHERE NOT v.is_deleted
		 ORDER BY v.name, v.id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.VenueListing{}
	for rows.Next() {
		var v domain.VenueListing
		if err := rows.Scan(
			&v.ID,
			&v.VenueTypeID,
			&v.VenueTypeName,
			&v.Name,
			&v.Description,
			&v.IsActive,
			&v.IsDeleted,
			&v.CreatedAt,
			&v.ReviewCount,
			&v.AvgRating,
			&v.TotalReservations,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
