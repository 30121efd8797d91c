package domain

import (
	"fmt"
	"time"
)

type ReservationStatus int

const (
	ReservationPending ReservationStatus = iota
	ReservationApproved
	ReservationInProgress
	ReservationDeclined
	ReservationCompleted
)

var reservationStatusNames = [...]string{
	ReservationPending:    "pending",
	ReservationApproved:   "approved",
	ReservationInProgress: "in_progress",
	ReservationDeclined:   "declined",
	ReservationCompleted:  "completed",
}

func (s ReservationStatus) Valid() bool {
	return s >= ReservationPending && s <= ReservationCompleted
}

// HoldsSeat reports whether a reservation in this status still occupies
// capacity. Declined and completed reservations release their seats.
func (s ReservationStatus) HoldsSeat() bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationInProgress:
		return true
	}
	return false
}

func (s ReservationStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return reservationStatusNames[s]
}

// CanTransitionTo reports whether staff may move a reservation from s to next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return next == ReservationApproved || next == ReservationDeclined
	case ReservationApproved:
		return next == ReservationInProgress ||
			next == ReservationDeclined ||
			next == ReservationCompleted
	case ReservationInProgress:
		return next == ReservationCompleted
	}
	return false
}

// HoldingStatuses lists the statuses that count against venue capacity.
func HoldingStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationPending,
		ReservationApproved,
		ReservationInProgress,
	}
}

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableReserved  TableStatus = "reserved"
	TableOccupied  TableStatus = "occupied"
)

type Venue struct {
	ID          int64     `json:"id"`
	VenueTypeID *int64    `json:"venue_type_id,omitempty"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

type VenueSummary struct {
	Venue
	VenueTypeName *string `json:"venue_type_name,omitempty"`
	ActiveTables  int     `json:"active_tables"`
	TotalCapacity int     `json:"total_capacity"`
}

type Table struct {
	ID          int64       `json:"id"`
	VenueID     int64       `json:"venue_id"`
	TableNumber int         `json:"table_number"`
	Capacity    int         `json:"capacity"`
	Status      TableStatus `json:"status"`
	IsActive    bool        `json:"is_active"`
}

type Reservation struct {
	ID              int64             `json:"id"`
	UserID          *string           `json:"user_id,omitempty"`
	VenueID         int64             `json:"venue_id"`
	TableNumber     *int              `json:"table_number,omitempty"`
	GuestsCount     int               `json:"guests_count"`
	ContactName     *string           `json:"contact_name,omitempty"`
	ContactPhone    *string           `json:"contact_phone,omitempty"`
	ContactEmail    *string           `json:"contact_email,omitempty"`
	ReservationTime *time.Time        `json:"reservation_time,omitempty"`
	Status          ReservationStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ClientReservation is a reservation as shown in a client's history.
type ClientReservation struct {
	Reservation
	VenueName string  `json:"venue_name"`
	VenueType *string `json:"venue_type,omitempty"`
}

type UserProfile struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type VenueAvailability struct {
	VenueID     int64     `json:"venue_id"`
	At          time.Time `json:"at"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Capacity    int       `json:"capacity"`
	Occupied    int       `json:"occupied"`
	Available   int       `json:"available"`
}

type VenueType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VenueListing is a venue as shown in the client catalogue.
type VenueListing struct {
	Venue
	VenueTypeName     *string  `json:"venue_type_name,omitempty"`
	ReviewCount       int      `json:"review_count"`
	AvgRating         *float64 `json:"avg_rating,omitempty"`
	TotalReservations int      `json:"total_reservations"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// AnonymousReviewer names the author of a review left without an account.
const AnonymousReviewer = "Anonymous"

type Review struct {
	ID           int64     `json:"id"`
	UserID       *string   `json:"user_id,omitempty"`
	VenueID      int64     `json:"venue_id"`
	Rating       *int      `json:"rating,omitempty"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ReviewerName string    `json:"reviewer_name"`
}
