package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return s, true, nil
}

func (c *Cache) SetString(
	ctx context.Context,
	key string,
	val string,
	ttl time.Duration,
) error {
	return c.rdb.Set(ctx, key, val, ttl).Err()
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.rdb.Del(ctx, keys...).Err()
}

func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var zero T

	s, ok, err := c.GetString(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}

	var out T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return zero, false, err
	}

	return out, true, nil
}

func SetJSON(
	ctx context.Context,
	c *Cache,
	key string,
	val any,
	ttl time.Duration,
) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.SetString(ctx, key, string(b), ttl)
}

// GetOrSetJSON returns the cached value under key or loads, caches and returns
// it. Concurrent misses for the same key share one loader call.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
		return v, err
	}

	vAny, err, _ := c.sf.Do(key, func() (any, error) {
		if v2, ok2, err2 := GetJSON[T](ctx, c, key); err2 != nil || ok2 {
			return v2, err2
		}
		v3, err3 := loader(ctx)
		if err3 != nil {
			return nil, err3
		}
		_ = SetJSON(ctx, c, key, v3, ttl)
		return v3, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return assertType[T](vAny)
}

// GetOrSetFieldJSON is GetOrSetJSON for one field of a hash. ttl applies to
// the whole hash and is refreshed on every write.
func GetOrSetFieldJSON[T any](
	ctx context.Context,
	c *Cache,
	key, field string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok, err := getFieldJSON[T](ctx, c, key, field); err != nil || ok {
		return v, err
	}

	vAny, err, _ := c.sf.Do(key+"#"+field, func() (any, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		if err := c.rdb.HSet(ctx, key, field, string(b)).Err(); err == nil {
			_ = c.rdb.Expire(ctx, key, ttl).Err()
		}

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return assertType[T](vAny)
}

func getFieldJSON[T any](ctx context.Context, c *Cache, key, field string) (T, bool, error) {
	var zero T

	s, err := c.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var out T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return zero, false, err
	}

	return out, true, nil
}

func assertType[T any](v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New("type assertion failed")
	}

	return out, nil
}

// InvalidateVenue drops every cached read that depends on the venue's tables,
// reservations or reviews, including the catalogue listing.
func (c *Cache) InvalidateVenue(ctx context.Context, venueID int64) error {
	return c.Del(
		ctx,
		KeyVenueSummary(venueID),
		KeyVenueTables(venueID),
		KeyVenueAvailability(venueID),
		KeyVenueList(),
	)
}
