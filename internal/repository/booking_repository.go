package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// BookingRepo reads bookings for display. Bookings are written only by
// the ledger through ReservationRepo.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// ListByUser returns one page of the user's bookings, oldest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, start, size int) ([]model.Booking, error) {
	const q = `SELECT b.id, b.reservation_id, b.user_id, b.created_at,
                      r.concert_id, c.title, r.concert_date, r.price_band
               FROM bookings b
               JOIN reservations r ON r.id = b.reservation_id
               JOIN concerts c ON c.id = r.concert_id
               WHERE b.user_id = ?
               ORDER BY b.id
               LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, q, userID, size, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var band string
		if err := rows.Scan(&b.ID, &b.ReservationID, &b.UserID, &b.CreatedAt,
			&b.ConcertID, &b.ConcertTitle, &b.Date, &band); err != nil {
			return nil, err
		}
		b.PriceBand = model.PriceBand(band)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	return out, r.attachSeats(ctx, out)
}

func (r *BookingRepo) attachSeats(ctx context.Context, bookings []model.Booking) error {
	idx := make(map[uint64]int, len(bookings))
	args := make([]any, 0, len(bookings))
	for i, b := range bookings {
		idx[b.ReservationID] = i
		args = append(args, b.ReservationID)
	}
	q := "SELECT reservation_id, seat_row, seat_number FROM seat_reservations WHERE reservation_id IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(args)), ",") + ")"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var resID uint64
		var s model.Seat
		if err := rows.Scan(&resID, &s.Row, &s.Number); err != nil {
			return err
		}
		i := idx[resID]
		bookings[i].Seats = append(bookings[i].Seats, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range bookings {
		model.SortSeats(bookings[i].Seats)
	}
	return nil
}

