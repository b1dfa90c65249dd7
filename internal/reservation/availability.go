package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// UnavailableSeats returns every seat of the concert date that is either
// booked or held by a reservation that has not yet expired.
func (s *Service) UnavailableSeats(ctx context.Context, concertID uint64, date time.Time) (model.SeatSet, error) {
	date = normalizeDate(date)
	var out model.SeatSet
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, found, err := tx.PoolVersion(ctx, concertID, date); err != nil {
			return fmt.Errorf("read seat pool: %w", err)
		} else if !found {
			return ErrConcertNotScheduled
		}
		var err error
		out, err = unavailableSeats(ctx, tx, concertID, date, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// unavailableSeats unions the booked and the live-claim branches. Both
// reads run on tx so the caller's subsequent write sees the same snapshot.
func unavailableSeats(ctx context.Context, tx Tx, concertID uint64, date, now time.Time) (model.SeatSet, error) {
	booked, err := tx.BookedSeats(ctx, concertID, date)
	if err != nil {
		return nil, fmt.Errorf("read booked seats: %w", err)
	}
	claimed, err := tx.ClaimedSeats(ctx, concertID, date, now)
	if err != nil {
		return nil, fmt.Errorf("read claimed seats: %w", err)
	}
	return model.NewSeatSet(booked, claimed), nil
}

func normalizeDate(d time.Time) time.Time {
	return d.UTC().Truncate(time.Second)
}
