package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/config"
	"github.com/iliyamo/concert-ticketing/internal/database"
	"github.com/iliyamo/concert-ticketing/internal/handler"
	"github.com/iliyamo/concert-ticketing/internal/logger"
	"github.com/iliyamo/concert-ticketing/internal/queue"
	"github.com/iliyamo/concert-ticketing/internal/repository"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
	"github.com/iliyamo/concert-ticketing/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable, caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	concerts := repository.NewConcertRepo(db)
	performers := repository.NewPerformerRepo(db)
	cards := repository.NewCreditCardRepo(db)
	bookings := repository.NewBookingRepo(db)

	opts := []reservation.Option{
		reservation.WithWindow(cfg.ReservationWindow),
		reservation.WithConflictRetries(cfg.ConflictRetries),
		reservation.WithLogger(log.Named("ledger")),
	}
	var catalogEvents handler.CatalogEvents
	if cfg.AMQPEnabled {
		pub := queue.NewPublisher(cfg.AMQPURL, log.Named("publisher"))
		defer pub.Close()
		opts = append(opts, reservation.WithPublisher(pub))
		catalogEvents = pub

		auditor := queue.NewBookingAuditor(cfg.AMQPURL, "logs/booking.log", log.Named("auditor"))
		go func() {
			if err := auditor.Run(ctx); err != nil {
				log.Error("booking auditor stopped", zap.Error(err))
			}
		}()
	}
	ledger := reservation.NewService(repository.NewReservationRepo(db), concerts, cards, opts...)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, router.Deps{
		DB:         db,
		JWTSecret:  cfg.JWTSecret,
		Redis:      rdb,
		Cache:      config.LoadCacheConfig(),
		RateLimit:  config.LoadRateLimitConfig(),
		Log:        log,
		Auth:       handler.NewAuthHandler(cfg, users, tokens),
		Concerts:   handler.NewConcertHandler(concerts, catalogEvents, log),
		Performers: handler.NewPerformerHandler(performers, catalogEvents, log),
		Users:      handler.NewUserHandler(cards, bookings),
		Ledger:     handler.NewReservationHandler(ledger),
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
