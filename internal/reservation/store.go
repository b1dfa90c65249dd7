package reservation

import (
	"context"
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// Store runs fn inside one storage transaction. If fn returns an error the
// transaction is rolled back and the error is returned unchanged; otherwise
// it is committed.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and conditional writes the ledger needs. Methods
// that take an observed version perform a compare-and-swap and return
// ErrConcurrencyConflict when zero rows match.
type Tx interface {
	// PoolVersion reads the fencing token of a concert date's seat pool.
	// found is false when the concert is not scheduled on that date.
	PoolVersion(ctx context.Context, concertID uint64, date time.Time) (version uint64, found bool, err error)
	BumpPoolVersion(ctx context.Context, concertID uint64, date time.Time, observed uint64) error

	// BookedSeats returns seats of reservations that have been promoted
	// into bookings.
	BookedSeats(ctx context.Context, concertID uint64, date time.Time) ([]model.Seat, error)
	// ClaimedSeats returns seats of reservations with expires_at > now,
	// booked or not.
	ClaimedSeats(ctx context.Context, concertID uint64, date time.Time, now time.Time) ([]model.Seat, error)

	// CurrentReservation follows the user's reservation slot.
	CurrentReservation(ctx context.Context, userID uint64) (model.Reservation, bool, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// SetUserReservation swaps the slot from previousID (0 for empty) to
	// reservationID.
	SetUserReservation(ctx context.Context, userID, previousID, reservationID uint64) error
	ClearUserReservation(ctx context.Context, userID, reservationID uint64) error

	// ExpireReservation moves expires_at back to at, releasing the claim.
	ExpireReservation(ctx context.Context, reservationID, observed uint64, at time.Time) error
	BumpReservationVersion(ctx context.Context, reservationID, observed uint64) error

	InsertBooking(ctx context.Context, b *model.Booking) error
}

// Catalog answers which dates a concert is scheduled on and which bands it
// sells. found is false for an unknown concert.
type Catalog interface {
	Schedule(ctx context.Context, concertID uint64) (model.ConcertSchedule, bool, error)
}

// PaymentInstruments reports whether a user has a card on file.
type PaymentInstruments interface {
	HasCreditCard(ctx context.Context, userID uint64) (bool, error)
}

// Publisher receives committed ledger events. Delivery is best effort.
type Publisher interface {
	ReservationCreated(ctx context.Context, r model.Reservation) error
	BookingConfirmed(ctx context.Context, b model.Booking) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type nopPublisher struct{}

func (nopPublisher) ReservationCreated(context.Context, model.Reservation) error { return nil }
func (nopPublisher) BookingConfirmed(context.Context, model.Booking) error       { return nil }
