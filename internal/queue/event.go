// Package queue carries ledger and catalog events over RabbitMQ. Each
// routing key is also the name of a durable queue bound to the topic
// exchange, so events survive a consumer that is down.
package queue

import (
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

const (
	Exchange = "concerts"

	KeyConcertCreated     = "concert.created"
	KeyPerformerCreated   = "performer.created"
	KeyReservationCreated = "reservation.created"
	KeyBookingConfirmed   = "booking.confirmed"
)

// RoutingKeys lists every key the publisher declares a queue for.
var RoutingKeys = []string{KeyConcertCreated, KeyPerformerCreated, KeyReservationCreated, KeyBookingConfirmed}

type ConcertCreatedEvent struct {
	ConcertID    uint64      `json:"concert_id"`
	Title        string      `json:"title"`
	Dates        []time.Time `json:"dates"`
	PerformerIDs []uint64    `json:"performer_ids"`
	CreatedAt    time.Time   `json:"created_at"`
}

type PerformerCreatedEvent struct {
	PerformerID uint64      `json:"performer_id"`
	Name        string      `json:"name"`
	Genre       model.Genre `json:"genre"`
	CreatedAt   time.Time   `json:"created_at"`
}

type ReservationCreatedEvent struct {
	ReservationID uint64          `json:"reservation_id"`
	UserID        uint64          `json:"user_id"`
	ConcertID     uint64          `json:"concert_id"`
	Date          time.Time       `json:"date"`
	PriceBand     model.PriceBand `json:"price_band"`
	Seats         []string        `json:"seats"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// BookingConfirmedEvent is what the audit consumer writes to the booking
// log.
type BookingConfirmedEvent struct {
	BookingID     uint64          `json:"booking_id"`
	ReservationID uint64          `json:"reservation_id"`
	UserID        uint64          `json:"user_id"`
	ConcertID     uint64          `json:"concert_id"`
	Date          time.Time       `json:"date"`
	PriceBand     model.PriceBand `json:"price_band"`
	Seats         []string        `json:"seats"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}

func seatLabels(seats []model.Seat) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = s.Label()
	}
	return out
}
