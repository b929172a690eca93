package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/treelife/tree-sapling-reservation/internal/config"
)

// captureWriter captures the response body and status while
// forwarding everything to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// cacheKey derives a stable key from the route and raw query.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// ResponseCache serves successful JSON GET responses from Redis for
// the configured TTL.  All handlers on the cached routes respond with
// JSON, so only the body is stored; a hit is replayed with a 200
// status and the JSON content type.  When the Redis client is nil or
// caching is disabled the middleware is a no-op.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && cw.buf.Len() > 0 {
				// Best effort: a failed SET only loses the cache entry.
				setCtx, cancel := context.WithTimeout(ctx, time.Second)
				defer cancel()
				_ = rdb.Set(setCtx, key, cw.buf.Bytes(), cfg.TTL).Err()
			}
			return nil
		}
	}
}
