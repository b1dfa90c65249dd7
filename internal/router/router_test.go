package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/handler"
)

func testEcho() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, Deps{
		JWTSecret:  "secret",
		Log:        zap.NewNop(),
		Auth:       &handler.AuthHandler{},
		Concerts:   &handler.ConcertHandler{},
		Performers: &handler.PerformerHandler{},
		Users:      &handler.UserHandler{},
		Ledger:     &handler.ReservationHandler{},
	})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	want := map[string]bool{
		"POST /v1/auth/register":           true,
		"POST /v1/auth/login":              true,
		"POST /v1/auth/refresh":            true,
		"POST /v1/auth/logout":             true,
		"GET /v1/auth/me":                  true,
		"GET /v1/concerts":                 true,
		"GET /v1/concerts/:id":             true,
		"POST /v1/concerts":                true,
		"GET /v1/concerts/:id/unavailable": true,
		"GET /v1/performers":               true,
		"GET /v1/performers/:id":           true,
		"POST /v1/performers":              true,
		"POST /v1/users/me/payment":        true,
		"GET /v1/users/me/bookings":        true,
		"POST /v1/reservations":            true,
		"POST /v1/reservations/confirm":    true,
		"GET /healthz":                     true,
		"GET /readyz":                      true,
	}
	got := map[string]bool{}
	for _, r := range testEcho().Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for route := range want {
		assert.True(t, got[route], route)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := testEcho()
	for _, path := range []string{"/v1/reservations", "/v1/reservations/confirm", "/v1/users/me/payment", "/v1/concerts"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "unauthenticated", path)
	}
}
