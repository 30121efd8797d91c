package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/domain"
	"github.com/kirinyoku/reserveme/internal/repository"
)

type UserRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *UserRepo) With(db DB) *UserRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *UserRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Profile returns the contact details of a user.
//
// Returns:
//   - error: repository.ErrNotFound if the user is not found.
func (r *UserRepo) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	const op = "postgres.UserRepo.Profile"

	db := r.handle()

	var p domain.UserProfile
	if err := db.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

// SetVenue assigns a staff user to a venue, or unassigns them when venueID is
// nil.
//
// Returns:
//   - error: repository.ErrNotFound if the user is not found.
//   - error: repository.ErrConflict if the venue does not exist.
func (r *UserRepo) SetVenue(ctx context.Context, userID string, venueID *int64) error {
	const op = "postgres.UserRepo.SetVenue"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE users SET venue_id = $2 WHERE id = $1`,
		userID, venueID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
