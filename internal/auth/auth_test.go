package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := NewAccessToken("s3cret", 42, "CUSTOMER", 5*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, now.UTC().Add(5*time.Minute).Unix(), tok.Exp.Unix())

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, Claims{UserID: 42, Role: "CUSTOMER"}, claims)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", 1, "ADMIN", time.Minute, time.Now())
	require.NoError(t, err)
	expired, err := NewAccessToken("s3cret", 1, "ADMIN", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"garbage":      {"s3cret", "not.a.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(24*time.Hour, time.Now())
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefresh(rt.Raw), 64)
	assert.Equal(t, HashRefresh(rt.Raw), HashRefresh(rt.Raw))
	assert.NotEqual(t, HashRefresh(rt.Raw), HashRefresh(rt.Raw+"x"))
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter2"))
	assert.False(t, VerifyPassword(h, "hunter3"))
}
