package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/auth"
	"github.com/iliyamo/concert-ticketing/internal/config"
	"github.com/iliyamo/concert-ticketing/internal/model"
)

const secret = "test-secret"

func protected(t *testing.T, mw ...echo.MiddlewareFunc) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get(UserIDKey), "role": c.Get(RoleKey)})
	}, mw...)
	return e
}

func do(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := protected(t, JWTAuth(secret))

	good, err := auth.NewAccessToken(secret, 9, model.RoleCustomer, time.Minute, time.Now())
	require.NoError(t, err)
	expired, err := auth.NewAccessToken(secret, 9, model.RoleCustomer, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	t.Run("missing token is unauthenticated", func(t *testing.T) {
		rec := do(e, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"unauthenticated"`)
	})
	t.Run("expired token is unauthorized", func(t *testing.T) {
		rec := do(e, "Bearer "+expired.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
	})
	t.Run("valid token sets identity", func(t *testing.T) {
		rec := do(e, "Bearer "+good.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user_id":9,"role":"CUSTOMER"}`, rec.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	e := protected(t, JWTAuth(secret), RequireRole(model.RoleAdmin))

	customer, err := auth.NewAccessToken(secret, 1, model.RoleCustomer, time.Minute, time.Now())
	require.NoError(t, err)
	admin, err := auth.NewAccessToken(secret, 2, model.RoleAdmin, time.Minute, time.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(e, "Bearer "+customer.Token).Code)
	assert.Equal(t, http.StatusOK, do(e, "Bearer "+admin.Token).Code)
}

func TestRequestID(t *testing.T) {
	e := protected(t, RequestID())

	rec := do(e, "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestLoggerKeepsStatusOfHandlerError(t *testing.T) {
	e := echo.New()
	e.Use(Logger(zap.NewNop()))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "no") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestWithoutRedisMiddlewarePassesThrough(t *testing.T) {
	rl := config.RateLimitConfig{Enabled: true, Prefix: "rl", TTL: time.Minute}
	cc := config.CacheConfig{Enabled: true, Prefix: "cache", DefaultTTL: time.Second}
	e := protected(t,
		RateLimit(rl, config.PerMinute(1), "test", ByIP, nil, zap.NewNop()),
		Cache(cc, 0, nil, zap.NewNop()),
	)
	for i := 0; i < 3; i++ {
		rec := do(e, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestCachePayload(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "Link": {"<next>"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCaptureWriterStopsBufferingPastLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("ab"))
	_, _ = cw.Write([]byte("cde"))
	assert.True(t, cw.truncated())
	assert.Equal(t, "ab", cw.buf.String())
	assert.Equal(t, "abcde", rec.Body.String())
}
