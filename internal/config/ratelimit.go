package config

import "time"

// RateLimitConfig defines settings for the fixed-window rate limiter
// applied to mutating endpoints.  Limit requests per Window are
// allowed per client IP; the counter resets when the window expires.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
	Prefix  string
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig with sane defaults.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   envInt("RATE_LIMIT_PER_WINDOW", 30),
		Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	// The limiter buckets time in whole seconds, so a sub-second
	// window would produce a zero-length bucket.
	if cfg.Window < time.Second {
		cfg.Window = time.Second
	}
	return cfg
}
