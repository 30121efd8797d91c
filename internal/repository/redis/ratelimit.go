package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownScope = errors.New("unknown rate limit scope")

// Sliding window over a sorted set of accepted hits. A rejected hit is not
// recorded, so a client that keeps retrying is let back in once its oldest
// accepted hit leaves the window.
// KEYS[1] = key
// ARGV[1] = now_ms
// ARGV[2] = window_ms
// ARGV[3] = limit
// ARGV[4] = member (unique)
// Returns {allowed, remaining, retry_ms}.
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)

if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local retry_ms = window
  if oldest[2] then
    retry_ms = window - (now - tonumber(oldest[2]))
  end
  if retry_ms < 0 then retry_ms = 0 end
  return {0, 0, retry_ms}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, limit - count - 1, 0}
`

// Policy is the budget of one rate limit scope: at most Limit hits per
// client in any Window.
type Policy struct {
	Scope  string
	Limit  int
	Window time.Duration
}

type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies a sliding window per scope and client. Every scope it is
// asked about must have a Policy.
type Limiter struct {
	rdb      *redis.Client
	policies map[string]Policy
	script   *redis.Script

	now       func() time.Time
	newMember func() string
}

func NewLimiter(rdb *redis.Client, policies ...Policy) *Limiter {
	byScope := make(map[string]Policy, len(policies))
	for _, p := range policies {
		byScope[p.Scope] = p
	}

	return &Limiter{
		rdb:       rdb,
		policies:  byScope,
		script:    redis.NewScript(luaSlidingWindow),
		now:       time.Now,
		newMember: uuid.NewString,
	}
}

// Allow records a hit for id under scope if the scope's budget allows it.
//
// Returns:
//   - RateDecision: whether the hit was accepted, how many remain and, when
//     rejected, how long until the oldest accepted hit leaves the window.
//   - error: ErrUnknownScope if scope has no policy, or the Redis error.
func (l *Limiter) Allow(ctx context.Context, scope, id string) (RateDecision, error) {
	const op = "redis.Limiter.Allow"

	p, ok := l.policies[scope]
	if !ok {
		return RateDecision{}, fmt.Errorf("%s:%w: %q", op, ErrUnknownScope, scope)
	}

	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{KeyRateLimit(scope, id)},
		l.now().UnixMilli(), p.Window.Milliseconds(), p.Limit, l.newMember(),
	).Result()
	if err != nil {
		return RateDecision{}, fmt.Errorf("%s:%w", op, err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 3 {
		return RateDecision{}, fmt.Errorf("%s: bad script result: %v", op, res)
	}

	return RateDecision{
		Allowed:    toInt(arr[0]) == 1,
		Limit:      p.Limit,
		Remaining:  int(toInt(arr[1])),
		RetryAfter: time.Duration(toInt(arr[2])) * time.Millisecond,
	}, nil
}

func toInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		x, _ := strconv.ParseInt(t, 10, 64)
		return x
	default:
		return 0
	}
}
