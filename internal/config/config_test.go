package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "concerts")
	t.Setenv("JWT_SECRET", "secret")
	for _, k := range []string{"APP_ENV", "APP_PORT", "ACCESS_TOKEN_TTL_MIN", "BCRYPT_COST",
		"RESERVATION_WINDOW", "RESERVATION_CONFLICT_RETRIES"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, time.Minute, cfg.ReservationWindow)
	assert.Equal(t, 3, cfg.ConflictRetries)
	assert.True(t, cfg.Development())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RESERVATION_WINDOW", "90s")
	t.Setenv("RESERVATION_CONFLICT_RETRIES", "0")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.ReservationWindow)
	assert.Equal(t, 0, cfg.ConflictRetries)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.False(t, cfg.Development())
}

func TestLoadReportsEveryProblem(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RESERVATION_WINDOW", "soon")
	t.Setenv("BCRYPT_COST", "-1")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"DB_USER", "DB_NAME", "JWT_SECRET", "RESERVATION_WINDOW", "BCRYPT_COST"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRateLimitBuckets(t *testing.T) {
	t.Setenv("RATE_LIMIT_RESERVE_PER_MIN", "60")
	t.Setenv("RATE_LIMIT_LOGIN_PER_MIN", "0")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, Bucket{Capacity: 60, RefillTokens: 1, RefillInterval: time.Second}, cfg.Reserve)
	assert.Equal(t, 1, cfg.Login.Capacity)
	assert.Equal(t, time.Minute, cfg.Login.RefillInterval)
}

func TestCacheConfigFallsBackToDefaultTTL(t *testing.T) {
	t.Setenv("CACHE_DEFAULT_TTL", "10s")
	t.Setenv("CACHE_CONCERTS_TTL", "")

	cfg := LoadCacheConfig()
	assert.Equal(t, 10*time.Second, cfg.ConcertsTTL)
	assert.Equal(t, 5*time.Minute, cfg.PerformersTTL)
}
