package config

import (
	"os"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is available, caching is
// disabled.  Only GET responses with a 200 status are cached; TTL
// defines the lifetime of entries and Prefix namespaces the keys.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		Prefix:  getenv("CACHE_PREFIX", "cache"),
	}
}

// envDur parses a duration variable, falling back to the default on
// absence or parse failure.
func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
