package reservation

import (
	"errors"
	"fmt"
)

// Outcomes of Reserve and ConfirmBooking. Callers compare with errors.Is;
// storage failures are returned wrapped and match none of these.
var (
	// ErrInvalidRequest covers malformed requests: non-positive seat
	// count, unknown price band, unknown concert.
	ErrInvalidRequest = errors.New("invalid reservation request")

	// ErrConcertNotScheduled wraps ErrInvalidRequest so callers that only
	// care about the coarse kind still match it.
	ErrConcertNotScheduled = fmt.Errorf("%w: concert is not scheduled on that date", ErrInvalidRequest)

	ErrInsufficientSeats = errors.New("insufficient seats available")

	// ErrConcurrencyConflict means a conditional write found a newer
	// version than the one read. Nothing was committed and the whole
	// operation may be retried.
	ErrConcurrencyConflict = errors.New("seat pool modified concurrently")

	ErrReservationExpired  = errors.New("reservation has expired")
	ErrPaymentRequired     = errors.New("no payment instrument registered")
	ErrNoActiveReservation = errors.New("no active reservation")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
