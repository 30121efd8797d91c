package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/domain"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ReviewRepo) With(db DB) *ReviewRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ReviewRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ListByVenue lists a venue's reviews, newest first. Reviews left without an
// account carry domain.AnonymousReviewer as the reviewer name.
func (r *ReviewRepo) ListByVenue(ctx context.Context, venueID int64) ([]domain.Review, error) {
	const op = "postgres.ReviewRepo.ListByVenue"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT rv.id, rv.user_id, rv.venue_id, rv.rating, rv.comment, rv.created_at,
		        CASE WHEN u.id IS NULL THEN $2::text
		             ELSE TRIM(u.first_name || ' ' || u.last_name)
		        END
		 FROM venue_reviews rv
		 LEFT JOIN users u ON u.id = rv.user_id
		 WHERE rv.venue_id = $1
		 ORDER BY rv.created_at DESC, rv.id DESC`,
		venueID, domain.AnonymousReviewer,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.UserID,
			&rv.VenueID,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
			&rv.ReviewerName,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Create inserts a review and fills in its ID and creation time.
//
// Returns:
//   - error: repository.ErrNotFound if the venue or the user does not exist.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	const op = "postgres.ReviewRepo.Create"

	db := r.handle()

	if err := db.QueryRow(ctx,
		`INSERT INTO venue_reviews(user_id, venue_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rv.UserID, rv.VenueID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
