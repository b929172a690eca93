package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("HELPER_STR", "value")
	assert.Equal(t, "value", getenv("HELPER_STR", "default"))
	assert.Equal(t, "default", getenv("HELPER_STR_UNSET", "default"))

	t.Setenv("HELPER_INT", "42")
	assert.Equal(t, 42, envInt("HELPER_INT", 7))
	assert.Equal(t, 7, envInt("HELPER_INT_UNSET", 7))

	t.Setenv("HELPER_DUR", "90s")
	assert.Equal(t, 90*time.Second, envDur("HELPER_DUR", time.Minute))
	assert.Equal(t, time.Minute, envDur("HELPER_DUR_UNSET", time.Minute))
	t.Setenv("HELPER_DUR_BAD", "soon")
	assert.Equal(t, time.Minute, envDur("HELPER_DUR_BAD", time.Minute))
}

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "cache", cfg.Prefix)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_WINDOW", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "0s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}

func TestLoadRateLimitConfigSubSecondWindow(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "500ms")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, time.Second, cfg.Window)
}
