// Package ratelimit throttles the unauthenticated public routes with a
// Redis-backed token bucket per client IP.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var bucketScript = redis.NewScript(`
-- KEYS[1] = bucket key
-- ARGV[1] = now (ms)
-- ARGV[2] = capacity
-- ARGV[3] = refill (tokens per second)
-- ARGV[4] = ttl (seconds)
--
-- Returns { allowed (0|1), remaining tokens, retry after (ms) }
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now_ms
end

local elapsed = math.max(0, now_ms - ts)
tokens = math.min(capacity, tokens + (elapsed * refill / 1000))

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
elseif refill > 0 then
  retry_ms = math.ceil((1 - tokens) * 1000 / refill)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now_ms)
redis.call('EXPIRE', KEYS[1], ttl)

return { allowed, math.floor(tokens), retry_ms }
`)

// Decision is the outcome of one bucket take.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter takes tokens from per-key buckets stored in Redis.
type Limiter struct {
	rdb      redis.Scripter
	capacity int
	refill   float64
	prefix   string
	clock    func() time.Time
}

// New returns a limiter. A nil rdb yields a limiter whose middleware allows everything.
func New(rdb redis.Scripter, capacity int, refill float64) *Limiter {
	return &Limiter{rdb: rdb, capacity: capacity, refill: refill, prefix: "ev:rl", clock: time.Now}
}

func (l *Limiter) ttlSeconds() int64 {
	if l.refill <= 0 {
		return 3600
	}
	// Long enough for an empty bucket to refill completely.
	return int64(math.Ceil(float64(l.capacity)/l.refill)) + 1
}

// Take removes one token from key's bucket.
func (l *Limiter) Take(ctx context.Context, key string) (Decision, error) {
	vals, err := bucketScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key},
		l.clock().UnixMilli(), l.capacity, l.refill, l.ttlSeconds(),
	).Result()
	if err != nil {
		return Decision{}, err
	}
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script result %#v", vals)
	}
	return Decision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

// Middleware limits by client IP and route. Redis errors fail open.
func (l *Limiter) Middleware(log *slog.Logger) gin.HandlerFunc {
	if l == nil || l.rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.ClientIP() + ":" + route

		d, err := l.Take(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "rate limit exceeded", "code": "RATE_LIMITED"},
			})
			return
		}
		c.Next()
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
