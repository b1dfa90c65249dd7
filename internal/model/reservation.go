package model

import "time"

// ReservationState is derived, never stored. A reservation is Pending until
// its expiry passes or it is promoted into a booking.
type ReservationState string

const (
	ReservationPending ReservationState = "PENDING"
	ReservationExpired ReservationState = "EXPIRED"
	ReservationBooked  ReservationState = "BOOKED"
)

// Reservation is a time-boxed claim on a set of seats for one concert, one
// date and one price band, owned by a single user.
//
// Fields:
//
//	ID        – reservations.id
//	UserID    – owner of the claim
//	ConcertID – concert the seats belong to
//	Date      – scheduled performance the seats are for
//	PriceBand – tier the seats were allocated from
//	Seats     – seat claims (seat_reservations rows)
//	ExpiresAt – after this instant the claim no longer blocks other users
//	Version   – fencing token bumped on every conditional write
//	CreatedAt – creation timestamp
type Reservation struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	ConcertID uint64    `json:"concert_id"`
	Date      time.Time `json:"date"`
	PriceBand PriceBand `json:"price_band"`
	Seats     []Seat    `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
	Version   uint64    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Live reports whether the claim still blocks its seats at now.
func (r Reservation) Live(now time.Time) bool { return now.Before(r.ExpiresAt) }

// State resolves the lifecycle state at now. booked is true when a booking
// references this reservation; booking wins over expiry.
func (r Reservation) State(now time.Time, booked bool) ReservationState {
	switch {
	case booked:
		return ReservationBooked
	case r.Live(now):
		return ReservationPending
	default:
		return ReservationExpired
	}
}

// Booking is a permanent, paid claim derived from exactly one reservation.
type Booking struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservation_id"`
	UserID        uint64    `json:"user_id"`
	ConcertID     uint64    `json:"concert_id"`
	ConcertTitle  string    `json:"concert_title,omitempty"`
	Date          time.Time `json:"date"`
	PriceBand     PriceBand `json:"price_band"`
	Seats         []Seat    `json:"seats"`
	CreatedAt     time.Time `json:"created_at"`
}
