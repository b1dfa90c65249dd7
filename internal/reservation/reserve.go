package reservation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// ReserveRequest asks for SeatCount seats of one band on one concert date.
type ReserveRequest struct {
	UserID    uint64
	ConcertID uint64
	Date      time.Time
	PriceBand model.PriceBand
	SeatCount int
}

// Reserve claims seats for the user until now plus the reservation window.
// A reserve issued while the user still holds a live reservation releases
// the older claim in the same transaction.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*model.Reservation, error) {
	req.Date = normalizeDate(req.Date)
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}

	var res model.Reservation
	err := s.retry(ctx, "reserve", func() error {
		var err error
		res, err = s.reserveOnce(ctx, req)
		return err
	})
	if err != nil {
		s.log.Info("reserve rejected",
			zap.Uint64("user_id", req.UserID),
			zap.Uint64("concert_id", req.ConcertID),
			zap.Time("date", req.Date),
			zap.String("band", string(req.PriceBand)),
			zap.Int("seats", req.SeatCount),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("reservation created",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("user_id", res.UserID),
		zap.Uint64("concert_id", res.ConcertID),
		zap.Int("seats", len(res.Seats)),
		zap.Time("expires_at", res.ExpiresAt),
	)
	if err := s.events.ReservationCreated(ctx, res); err != nil {
		s.log.Warn("publish reservation event", zap.Uint64("reservation_id", res.ID), zap.Error(err))
	}
	return &res, nil
}

// validate also rewrites req.PriceBand to its canonical name.
func (s *Service) validate(ctx context.Context, req *ReserveRequest) error {
	if req.UserID == 0 {
		return invalid("user is required")
	}
	if req.SeatCount <= 0 {
		return invalid("seat count must be positive")
	}
	band, ok := model.ParsePriceBand(string(req.PriceBand))
	if !ok {
		return invalid("unknown price band %q", req.PriceBand)
	}
	req.PriceBand = band
	sched, found, err := s.catalog.Schedule(ctx, req.ConcertID)
	if err != nil {
		return fmt.Errorf("load concert schedule: %w", err)
	}
	if !found {
		return invalid("concert %d does not exist", req.ConcertID)
	}
	if !sched.HasDate(req.Date) {
		return ErrConcertNotScheduled
	}
	if !sched.Sells(req.PriceBand) {
		return invalid("concert %d does not sell %s", req.ConcertID, req.PriceBand)
	}
	return nil
}

func (s *Service) reserveOnce(ctx context.Context, req ReserveRequest) (model.Reservation, error) {
	var res model.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		now := s.now()

		version, found, err := tx.PoolVersion(ctx, req.ConcertID, req.Date)
		if err != nil {
			return fmt.Errorf("read seat pool: %w", err)
		}
		if !found {
			return ErrConcertNotScheduled
		}

		priorID, err := s.releasePrior(ctx, tx, req.UserID, now)
		if err != nil {
			return err
		}

		unavailable, err := unavailableSeats(ctx, tx, req.ConcertID, req.Date, now)
		if err != nil {
			return err
		}
		seats := s.alloc.Allocate(req.SeatCount, req.PriceBand, unavailable)
		if len(seats) < req.SeatCount {
			return ErrInsufficientSeats
		}
		if err := checkAllocation(seats, req.SeatCount, req.PriceBand, s.layout, unavailable); err != nil {
			return err
		}

		res = model.Reservation{
			UserID:    req.UserID,
			ConcertID: req.ConcertID,
			Date:      req.Date,
			PriceBand: req.PriceBand,
			Seats:     seats[:req.SeatCount],
			ExpiresAt: now.Add(s.window),
			CreatedAt: now,
		}
		if err := tx.InsertReservation(ctx, &res); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		if err := tx.SetUserReservation(ctx, req.UserID, priorID, res.ID); err != nil {
			return fmt.Errorf("set user reservation: %w", err)
		}
		return tx.BumpPoolVersion(ctx, req.ConcertID, req.Date, version)
	})
	return res, err
}

// releasePrior expires the user's previous claim if it is still live and
// returns the id currently held in the slot. A slot never points at a
// booked reservation, so only pending claims are touched.
func (s *Service) releasePrior(ctx context.Context, tx Tx, userID uint64, now time.Time) (uint64, error) {
	prior, found, err := tx.CurrentReservation(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read current reservation: %w", err)
	}
	if !found {
		return 0, nil
	}
	if !prior.Live(now) {
		return prior.ID, nil
	}
	if err := tx.ExpireReservation(ctx, prior.ID, prior.Version, now); err != nil {
		return 0, err
	}
	s.log.Debug("released prior reservation",
		zap.Uint64("reservation_id", prior.ID),
		zap.Uint64("user_id", userID),
	)
	return prior.ID, nil
}
