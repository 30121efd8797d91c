package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const msgVenueChanged = "venue_changed"

// VenuesPubSub broadcasts venue changes to every instance.
type VenuesPubSub struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewVenuesPubSub(rdb *redis.Client) *VenuesPubSub {
	return &VenuesPubSub{
		rdb:     rdb,
		channel: ChannelVenuesChanged(),
		now:     time.Now,
	}
}

type venueChangedMsg struct {
	Type    string `json:"type"`
	VenueID int64  `json:"venue_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *VenuesPubSub) PublishVenueChanged(ctx context.Context, venueID int64) error {
	msg := venueChangedMsg{
		Type:    msgVenueChanged,
		VenueID: venueID,
		TsUnix:  p.now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe calls handler for every venue-changed message until ctx is done
// or the subscription is closed.
func (p *VenuesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, venueID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if venueID, ok := decodeVenueChanged(m.Payload); ok {
				handler(ctx, venueID)
			}
		}
	}
}

func decodeVenueChanged(payload string) (int64, bool) {
	var msg venueChangedMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return 0, false
	}

	if msg.Type != msgVenueChanged || msg.VenueID == 0 {
		return 0, false
	}

	return msg.VenueID, true
}
