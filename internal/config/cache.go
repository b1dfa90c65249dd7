package config

import (
	"strings"
	"time"
)

// CacheConfig drives the Redis response cache on public read routes.
type CacheConfig struct {
	Enabled       bool
	DefaultTTL    time.Duration
	ConcertsTTL   time.Duration
	PerformersTTL time.Duration
	KeyStrategy   string // route | route_query
	Prefix        string
	MaxBodyBytes  int
}

func LoadCacheConfig() CacheConfig {
	def := envDur("CACHE_DEFAULT_TTL", 30*time.Second)
	cfg := CacheConfig{
		Enabled:       envBool("CACHE_ENABLED", true),
		DefaultTTL:    def,
		ConcertsTTL:   envDur("CACHE_CONCERTS_TTL", def),
		PerformersTTL: envDur("CACHE_PERFORMERS_TTL", 5*time.Minute),
		KeyStrategy:   strings.ToLower(getenv("CACHE_KEY_STRATEGY", "route_query")),
		Prefix:        getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes:  envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Second
	}
	return cfg
}
