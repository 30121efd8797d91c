package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix   = "LOCK:"
	resultPrefix = "RES:"
)

// Deletes KEYS[1] only while it still holds the caller's lock.
const luaReleaseLock = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`

// IdempotencyStore remembers the outcome of requests carrying an
// Idempotency-Key. A key holds either an in-flight lock or a stored result.
type IdempotencyStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	release *redis.Script

	newToken func() string
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		rdb:      rdb,
		ttl:      ttl,
		release:  redis.NewScript(luaReleaseLock),
		newToken: uuid.NewString,
	}
}

// AcquireLock claims key for lockTTL. It returns the lock token and false if
// another request already holds the key or stored a result under it.
func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (string, bool, error) {
	token := s.newToken()

	ok, err := s.rdb.SetNX(ctx, key, lockPrefix+token, lockTTL).Result()
	if err != nil || !ok {
		return "", false, err
	}

	return token, true, nil
}

// SaveResult replaces the lock with the response payload.
func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, resultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if payload, ok := strings.CutPrefix(v, resultPrefix); ok {
		return payload, true, nil
	}

	return "", false, nil
}

// Release drops the lock so the request can be retried. A lock that expired
// and was taken by someone else is left alone.
func (s *IdempotencyStore) Release(ctx context.Context, key, token string) error {
	return s.release.Run(ctx, s.rdb, []string{key}, lockPrefix+token).Err()
}
