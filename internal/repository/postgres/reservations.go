package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/reserveme/internal/domain"
)

type ReservationRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ReservationRepo) With(db DB) *ReservationRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ReservationRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const reservationColumns = `r.id, r.user_id, r.venue_id, r.table_number, r.guests_count,
	r.contact_name, r.contact_phone, r.contact_email,
	r.reservation_time, r.status, r.created_at`

// SumOverlappingGuests sums the guests of the venue's reservations whose time
// lies strictly between from and to and whose status is one of statuses.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - venueID: venue to aggregate over.
//   - from, to: exclusive window bounds.
//   - statuses: statuses that still hold a seat.
//
// Returns:
//   - int: summed guests, 0 when nothing overlaps.
func (r *ReservationRepo) SumOverlappingGuests(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	statuses []domain.ReservationStatus,
) (int, error) {
	const op = "postgres.ReservationRepo.SumOverlappingGuests"

	db := r.handle()

	codes := make([]int16, 0, len(statuses))
	for _, s := range statuses {
		codes = append(codes, int16(s))
	}

	var occupied int
	if err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(guests_count), 0)
		 FROM reservations
		 WHERE venue_id = $1
		   AND reservation_time IS NOT NULL
		   AND reservation_time > $2
		   AND reservation_time < $3
		   AND status = ANY($4)`,
		venueID, from, to, codes,
	).Scan(&occupied); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return occupied, nil
}

// Insert stores a new reservation and returns its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the venue or user does not exist.
func (r *ReservationRepo) Insert(ctx context.Context, res *domain.Reservation) (int64, error) {
	const op = "postgres.ReservationRepo.Insert"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO reservations(
		     user_id, venue_id, table_number, guests_count,
		     contact_name, contact_phone, contact_email,
		     reservation_time, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		res.UserID,
		res.VenueID,
		res.TableNumber,
		res.GuestsCount,
		res.ContactName,
		res.ContactPhone,
		res.ContactEmail,
		res.ReservationTime,
		int16(res.Status),
		res.CreatedAt,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// GetForUpdate loads a reservation and locks its row for the rest of the
// transaction.
//
// Returns:
//   - error: repository.ErrNotFound if the reservation is not found.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	const op = "postgres.ReservationRepo.GetForUpdate"

	db := r.handle()

	row := db.QueryRow(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations r
		 WHERE r.id = $1
		 FOR UPDATE`,
		id,
	)

	res, err := scanReservation(row)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return res, nil
}

// UpdateStatus sets the status of a reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) error {
	const op = "postgres.ReservationRepo.UpdateStatus"

	db := r.handle()

	if err := db.QueryRow(ctx,
		`UPDATE reservations SET status = $2
		 WHERE id = $1
		 RETURNING id`,
		id, int16(status),
	).Scan(&id); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ListByVenue lists a venue's reservations ordered by reservation time.
// Zero from/to leave that side of the range open.
func (r *ReservationRepo) ListByVenue(
	ctx context.Context,
	venueID int64,
	from, to time.Time,
	limit, offset int,
) ([]domain.Reservation, error) {
	const op = "postgres.ReservationRepo.ListByVenue"

	db := r.handle()

	var fromArg, toArg *time.Time
	if !from.IsZero() {
		fromArg = &from
	}
	if !to.IsZero() {
		toArg = &to
	}

	rows, err := db.Query(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations r
		 WHERE r.venue_id = $1
		   AND ($2::timestamptz IS NULL OR r.reservation_time >= $2)
		   AND ($3::timestamptz IS NULL OR r.reservation_time < $3)
		 ORDER BY r.reservation_time NULLS LAST, r.id
		 LIMIT $4 OFFSET $5`,
		venueID, fromArg, toArg, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListByUser lists a client's reservations, newest first, with the venue name.
func (r *ReservationRepo) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]domain.ClientReservation, error) {
	const op = "postgres.ReservationRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+reservationColumns+`, v.name, vt.name
		 FROM reservations r
		 JOIN venues v ON v.id = r.venue_id
		 LEFT JOIN venue_types vt ON vt.id = v.venue_type_id
		 WHERE r.user_id = $1
		 ORDER BY r.reservation_time DESC NULLS LAST, r.id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.ClientReservation{}
	for rows.Next() {
		var cr domain.ClientReservation
		var status int16

		if err := rows.Scan(
			&cr.ID,
			&cr.UserID,
			&cr.VenueID,
			&cr.TableNumber,
			&cr.GuestsCount,
			&cr.ContactName,
			&cr.ContactPhone,
			&cr.ContactEmail,
			&cr.ReservationTime,
			&status,
			&cr.CreatedAt,
			&cr.VenueName,
			&cr.VenueType,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		cr.Status = domain.ReservationStatus(status)
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	var status int16

	if err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.VenueID,
		&res.TableNumber,
		&res.GuestsCount,
		&res.ContactName,
		&res.ContactPhone,
		&res.ContactEmail,
		&res.ReservationTime,
		&status,
		&res.CreatedAt,
	); err != nil {
		return nil, err
	}

	res.Status = domain.ReservationStatus(status)

	return &res, nil
}
