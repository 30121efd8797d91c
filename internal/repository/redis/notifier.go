package redis

import (
	"context"
	"log/slog"
)

// VenueNotifier drops a venue's cached reads and announces the change. Both
// steps are best effort: failures are logged, the committed write stands.
type VenueNotifier struct {
	cache  *Cache
	pubsub *VenuesPubSub
	logger *slog.Logger
}

func NewVenueNotifier(cache *Cache, pubsub *VenuesPubSub, logger *slog.Logger) *VenueNotifier {
	return &VenueNotifier{cache: cache, pubsub: pubsub, logger: logger}
}

func (n *VenueNotifier) VenueChanged(ctx context.Context, venueID int64) {
	ctx = context.WithoutCancel(ctx)

	if err := n.cache.InvalidateVenue(ctx, venueID); err != nil {
		n.logger.Warn("venue cache invalidation failed", "venue_id", venueID, "error", err)
	}

	if err := n.pubsub.PublishVenueChanged(ctx, venueID); err != nil {
		n.logger.Warn("venue change publish failed", "venue_id", venueID, "error", err)
	}
}
