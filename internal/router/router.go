// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/config"
	"github.com/iliyamo/concert-ticketing/internal/handler"
	"github.com/iliyamo/concert-ticketing/internal/middleware"
	"github.com/iliyamo/concert-ticketing/internal/model"
)

// Deps is everything RegisterRoutes needs. Redis may be nil.
type Deps struct {
	DB         *sql.DB
	JWTSecret  string
	Redis      *redis.Client
	Cache      config.CacheConfig
	RateLimit  config.RateLimitConfig
	Log        *zap.Logger
	Auth       *handler.AuthHandler
	Concerts   *handler.ConcertHandler
	Performers *handler.PerformerHandler
	Users      *handler.UserHandler
	Ledger     *handler.ReservationHandler
}

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestID(), middleware.Logger(d.Log))

	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB))

	jwt := middleware.JWTAuth(d.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	purge := middleware.PurgeOnSuccess(d.Cache, d.Redis, d.Log)
	loginLimit := middleware.RateLimit(d.RateLimit, d.RateLimit.Login, "login", middleware.ByIP, d.Redis, d.Log)
	ledgerLimit := middleware.RateLimit(d.RateLimit, d.RateLimit.Reserve, "ledger", middleware.ByUser, d.Redis, d.Log)

	a := e.Group("/v1/auth")
	a.POST("/register", d.Auth.Register, loginLimit)
	a.POST("/login", d.Auth.Login, loginLimit)
	a.POST("/refresh", d.Auth.Refresh)
	a.POST("/logout", d.Auth.Logout)
	a.GET("/me", d.Auth.Me, jwt)

	concertsCache := middleware.Cache(d.Cache, d.Cache.ConcertsTTL, d.Redis, d.Log)
	e.GET("/v1/concerts", d.Concerts.List, concertsCache)
	e.GET("/v1/concerts/:id", d.Concerts.Get, concertsCache)
	e.POST("/v1/concerts", d.Concerts.Create, jwt, admin, purge)
	// availability changes with every reservation, never cache it
	e.GET("/v1/concerts/:id/unavailable", d.Ledger.UnavailableSeats)

	performersCache := middleware.Cache(d.Cache, d.Cache.PerformersTTL, d.Redis, d.Log)
	e.GET("/v1/performers", d.Performers.List, performersCache)
	e.GET("/v1/performers/:id", d.Performers.Get, performersCache)
	e.POST("/v1/performers", d.Performers.Create, jwt, admin, purge)

	me := e.Group("/v1/users/me", jwt)
	me.POST("/payment", d.Users.RegisterCreditCard)
	me.GET("/bookings", d.Users.Bookings)

	r := e.Group("/v1/reservations", jwt, ledgerLimit)
	r.POST("", d.Ledger.Reserve)
	r.POST("/confirm", d.Ledger.Confirm)
}
