package redis

import (
	"fmt"
	"time"
)

const ns = "reserveme:v1"

func KeyVenueSummary(venueID int64) string {
	return fmt.Sprintf("%s:venue:%d:summary", ns, venueID)
}

func KeyVenueTables(venueID int64) string {
	return fmt.Sprintf("%s:venue:%d:tables", ns, venueID)
}

// KeyVenueAvailability is a hash of cached availability snapshots, one field
// per minute. See AvailabilityField.
func KeyVenueAvailability(venueID int64) string {
	return fmt.Sprintf("%s:venue:%d:availability", ns, venueID)
}

func AvailabilityField(at time.Time) string {
	return fmt.Sprintf("%d", at.Truncate(time.Minute).Unix())
}

// KeyVenueList caches the client venue catalogue. Any venue change drops it.
func KeyVenueList() string {
	return ns + ":venues:list"
}

func KeyVenueTypes() string {
	return ns + ":venue_types"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemReservation(idemKey string) string {
	return fmt.Sprintf("%s:idem:reservations:%s", ns, idemKey)
}

func ChannelVenuesChanged() string {
	return ns + ":venues:changed"
}
