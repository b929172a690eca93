package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelife/tree-sapling-reservation/internal/config"
)

// Without a Redis client both middlewares must be transparent.
func TestMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	cacheCfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache"}
	limitCfg := config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}

	for _, mw := range []echo.MiddlewareFunc{
		ResponseCache(cacheCfg, nil),
		RateLimit(limitCfg, nil),
	} {
		req := httptest.NewRequest(http.MethodGet, "/v1/trees/available", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, mw(handler)(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	}
}

// A sub-second window must not break the per-second bucket arithmetic.
// The client points at nothing, so the limiter fails open and the
// request reaches the handler.
func TestRateLimitSubSecondWindow(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	cfg := config.RateLimitConfig{Enabled: true, Limit: 10, Window: 500 * time.Millisecond, Prefix: "rl"}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/tree", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, RateLimit(cfg, rdb)(handler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheKeyStability(t *testing.T) {
	e := echo.New()
	ctxFor := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/persons/:id")
		return c
	}

	a := cacheKey("cache", ctxFor("/v1/persons/1?x=1"))
	b := cacheKey("cache", ctxFor("/v1/persons/1?x=1"))
	c := cacheKey("cache", ctxFor("/v1/persons/1?x=2"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
