package reservation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// ConfirmBooking promotes the user's live reservation into a booking. It
// acts on whatever reservation currently occupies the user's slot.
func (s *Service) ConfirmBooking(ctx context.Context, userID uint64) (*model.Booking, error) {
	ok, err := s.payments.HasCreditCard(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check payment instrument: %w", err)
	}
	if !ok {
		return nil, ErrPaymentRequired
	}

	var b model.Booking
	err = s.retry(ctx, "confirm", func() error {
		var err error
		b, err = s.confirmOnce(ctx, userID)
		return err
	})
	if err != nil {
		s.log.Info("confirm rejected", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.log.Info("booking confirmed",
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("reservation_id", b.ReservationID),
		zap.Uint64("user_id", b.UserID),
		zap.Int("seats", len(b.Seats)),
	)
	if err := s.events.BookingConfirmed(ctx, b); err != nil {
		s.log.Warn("publish booking event", zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
	return &b, nil
}

func (s *Service) confirmOnce(ctx context.Context, userID uint64) (model.Booking, error) {
	var b model.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		now := s.now()

		res, found, err := tx.CurrentReservation(ctx, userID)
		if err != nil {
			return fmt.Errorf("read current reservation: %w", err)
		}
		if !found {
			return ErrNoActiveReservation
		}

		// The pool token is read before the expiry check so that a reserve
		// which treats these seats as free once they lapse conflicts with us.
		version, found, err := tx.PoolVersion(ctx, res.ConcertID, res.Date)
		if err != nil {
			return fmt.Errorf("read seat pool: %w", err)
		}
		if !found {
			return fmt.Errorf("seat pool missing for reservation %d", res.ID)
		}

		if !now.Before(res.ExpiresAt) {
			return ErrReservationExpired
		}

		if err := tx.BumpReservationVersion(ctx, res.ID, res.Version); err != nil {
			return err
		}
		b = model.Booking{
			ReservationID: res.ID,
			UserID:        userID,
			ConcertID:     res.ConcertID,
			Date:          res.Date,
			PriceBand:     res.PriceBand,
			Seats:         res.Seats,
			CreatedAt:     now,
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if err := tx.ClearUserReservation(ctx, userID, res.ID); err != nil {
			return fmt.Errorf("clear user reservation: %w", err)
		}
		return tx.BumpPoolVersion(ctx, res.ConcertID, res.Date, version)
	})
	return b, err
}
