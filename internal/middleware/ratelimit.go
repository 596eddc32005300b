package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/krizzk/be-koszhunter/internal/config"
)

// tokenBucketScript implements a token bucket per client key. Atomic in
// Redis so concurrent instances share one budget. KEYS[1] holds
// "tokens:last_refill_ms"; ARGV: capacity, refill interval ms, now ms,
// key TTL seconds. Returns {allowed, remaining}.
const tokenBucketScript = `
local state = redis.call('GET', KEYS[1])
local capacity = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local tokens = capacity
local last = now
if state then
  local sep = string.find(state, ':')
  tokens = tonumber(string.sub(state, 1, sep - 1))
  last = tonumber(string.sub(state, sep + 1))
  local refill = math.floor((now - last) / interval)
  if refill > 0 then
    tokens = math.min(capacity, tokens + refill)
    last = last + refill * interval
  end
end
local allowed = 0
if tokens > 0 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('SET', KEYS[1], tokens .. ':' .. last, 'EX', tonumber(ARGV[4]))
return {allowed, tokens}
`

// RateLimit applies a Redis-backed token bucket keyed by client IP.
// A nil client or disabled config yields a pass-through middleware, and
// Redis errors fail open so the limiter never blocks healthy traffic.
func RateLimit(client *redis.Client, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	script := redis.NewScript(tokenBucketScript)
	ttlSec := int(cfg.TTL / time.Second)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if client == nil || !cfg.Enabled {
				return next(c)
			}
			key := fmt.Sprintf("%s:%s", cfg.Prefix, c.RealIP())
			now := time.Now().UnixMilli()
			res, err := script.Run(c.Request().Context(), client, []string{key},
				cfg.Capacity, cfg.RefillInterval.Milliseconds(), now, ttlSec).Int64Slice()
			if err != nil || len(res) != 2 {
				return next(c)
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] != 1 {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
