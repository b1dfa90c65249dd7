package config

import "time"

// Bucket is one token-bucket policy.
type Bucket struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
}

// PerMinute spreads n tokens evenly over a minute with a burst of n.
func PerMinute(n int) Bucket {
	if n < 1 {
		n = 1
	}
	return Bucket{Capacity: n, RefillTokens: 1, RefillInterval: time.Minute / time.Duration(n)}
}

type RateLimitConfig struct {
	Enabled bool
	Reserve Bucket // reserve and confirm, keyed by user
	Login   Bucket // login and register, keyed by ip
	TTL     time.Duration
	Prefix  string
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Reserve: PerMinute(envInt("RATE_LIMIT_RESERVE_PER_MIN", 30)),
		Login:   PerMinute(envInt("RATE_LIMIT_LOGIN_PER_MIN", 10)),
		TTL:     envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.TTL < 2*time.Minute {
		cfg.TTL = 2 * time.Minute
	}
	return cfg
}
