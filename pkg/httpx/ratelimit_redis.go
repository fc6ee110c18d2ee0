package httpx

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counts a request in the current window and returns {count, ttl_ms}. The
// window starts with the first request for the key.
var redisFixedWindowScript = redis.NewScript(`
local window_ms = tonumber(ARGV[1])
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], window_ms)
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], window_ms)
  ttl = window_ms
end
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter shared by every instance pointing at
// the same Redis.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter returns a limiter enforcing cfg.RequestsPerWindow per
// cfg.Window. Keys are stored as "<prefix>:<key>".
func NewRedisLimiter(client redis.UniversalClient, prefix string, cfg RateLimitConfig) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  cfg.RequestsPerWindow,
		window: cfg.Window,
	}
}

// Allow counts one request for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.client == nil {
		return Decision{}, fmt.Errorf("httpx: redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}

	windowMS := l.window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}

	raw, err := redisFixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, windowMS).Result()
	if err != nil {
		return Decision{}, err
	}

	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("httpx: unexpected redis script response %T", raw)
	}
	count, err := parseRedisInt64(values[0])
	if err != nil {
		return Decision{}, err
	}
	ttlMS, err := parseRedisInt64(values[1])
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:   count <= int64(l.limit),
		Remaining: int(max(int64(l.limit)-count, 0)),
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration(max(ttlMS, 1)) * time.Millisecond
	}
	return d, nil
}

func parseRedisInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("httpx: redis response overflows int64")
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("httpx: unexpected redis response type %T", v)
	}
}
