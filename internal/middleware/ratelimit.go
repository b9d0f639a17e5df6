package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/config"
)

// bucketScript refills and takes one token atomically. The bucket lives in a
// hash {tokens, last_refill_ms} that expires after ARGV[5] seconds idle.
// Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key         = KEYS[1]
local now_ms      = tonumber(ARGV[1])
local capacity    = tonumber(ARGV[2])
local refill      = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl         = tonumber(ARGV[5])

local state  = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1]) or capacity
local last   = tonumber(state[2]) or now_ms

if interval_ms > 0 and refill > 0 then
  local steps = math.floor(math.max(0, now_ms - last) / interval_ms)
  if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    last = last + steps * interval_ms
  end
end

local allowed, retry = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, interval_ms - (now_ms - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	retryMs   int64
}

// RateLimit guards the credential endpoints with a Redis token bucket.
// Without a client, or when disabled, it passes every request through.
// Redis errors fail open so an outage never locks users out.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttlSeconds := int64(cfg.TTL / time.Second)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			raw, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttlSeconds,
			).Result()
			if err != nil {
				log.Warn("rate limit: redis error", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			res, ok := parseBucket(raw)
			if !ok {
				log.Warn("rate limit: unexpected script result", zap.String("key", key), zap.Any("result", raw))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(res.retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			log.Debug("rate limit: blocked", zap.String("key", key), zap.Int64("retry_ms", res.retryMs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":     "Too many requests, please try again later",
				"retry_after": secs,
			})
		}
	}
}

func parseBucket(raw any) (bucketResult, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, false
	}
	allowed, ok1 := arr[0].(int64)
	remaining, ok2 := arr[1].(int64)
	retry, ok3 := arr[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return bucketResult{}, false
	}
	return bucketResult{allowed: allowed == 1, remaining: remaining, retryMs: retry}, true
}

// rateKey joins the prefix with the parts named by KeyStrategy. The default
// is ip_route, so each client gets a separate bucket per endpoint.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = []string{"ip", ip}
	case "user":
		parts = []string{"user", uid}
	case "route":
		parts = []string{"route", route}
	case "ip_user":
		parts = []string{"ip", ip, "user", uid}
	case "user_route":
		parts = []string{"user", uid, "route", route}
	case "ip_user_route":
		parts = []string{"ip", ip, "user", uid, "route", route}
	default:
		parts = []string{"ip", ip, "route", route}
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}
