package httpgin

import (
	"time"
)

type CreateReservationRequest struct {
	VenueID         int64      `json:"venue_id" binding:"required"`
	TableNumber     *int       `json:"table_number"`
	GuestsCount     int        `json:"guests_count"`
	ContactName     *string    `json:"contact_name"`
	ContactPhone    *string    `json:"contact_phone"`
	ContactEmail    *string    `json:"contact_email"`
	ReservationTime *time.Time `json:"reservation_time"`
	Status          *int       `json:"status"`
	UserID          *string    `json:"user_id"`
}

type UpdateStatusRequest struct {
	Status *int `json:"status" binding:"required"`
}

type CreateVenueRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	VenueTypeID *int64  `json:"venue_type_id"`
}

type UpdateVenueRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type CreateTableRequest struct {
	TableNumber int `json:"table_number" binding:"required"`
	Capacity    int `json:"capacity" binding:"required"`
}

type UpdateTableRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type CreateReviewRequest struct {
	UserID  *string `json:"user_id"`
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// AssignVenueRequest sets a staff user's venue. A null venue_id unassigns.
type AssignVenueRequest struct {
	VenueID *int64 `json:"venue_id"`
}

// ErrorResponse is the body of every non-2xx response. Kind, Field and
// AvailableSeats are set for admission failures.
type ErrorResponse struct {
	Error          string `json:"error"`
	Kind           string `json:"kind,omitempty"`
	Field          string `json:"field,omitempty"`
	AvailableSeats *int   `json:"available_seats,omitempty"`
}

type CreateReservationResponse struct {
	ReservationID int64 `json:"reservation_id"`
}

type CreateVenueResponse struct {
	VenueID int64 `json:"venue_id"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
