package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/treelife/tree-sapling-reservation/internal/config"
)

// RateLimit applies a fixed-window limit per client IP and route.
// The first request in a window creates the counter with an expiry of
// one window length; once the counter passes the limit, requests are
// rejected with 429 until the window expires.  A Redis outage fails
// open: the request proceeds uncounted.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.Window < time.Second {
		// The window arithmetic below works in whole seconds.
		cfg.Window = time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			window := time.Now().Unix() / int64(cfg.Window/time.Second)
			key := fmt.Sprintf("%s:%s:%s:%d", cfg.Prefix, c.RealIP(), c.Path(), window)
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if count > int64(cfg.Limit) {
				retry := int64(cfg.Window/time.Second) - (time.Now().Unix() % int64(cfg.Window/time.Second))
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
