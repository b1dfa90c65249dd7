package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

// ReservationRepo is the MySQL ledger store. Every conditional write is an
// UPDATE ... WHERE version = ? whose affected-row count decides between
// success and reservation.ErrConcurrencyConflict.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

var _ reservation.Store = (*ReservationRepo)(nil)

// WithinTx runs fn in a transaction. InnoDB deadlocks and lock wait
// timeouts are lost races like any other and surface as
// reservation.ErrConcurrencyConflict.
func (r *ReservationRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx reservation.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &reservationTx{tx: tx}); err != nil {
		return asConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return asConflict(fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

func asConflict(err error) error {
	if mysqlErrorIs(err, mysqlDeadlock) || mysqlErrorIs(err, mysqlLockWaitTimeout) {
		return fmt.Errorf("%w: %v", reservation.ErrConcurrencyConflict, err)
	}
	return err
}

type reservationTx struct {
	tx *sql.Tx
}

// cas executes a conditional update and maps zero affected rows to a
// version conflict.
func (t *reservationTx) cas(ctx context.Context, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return reservation.ErrConcurrencyConflict
	}
	return nil
}

func (t *reservationTx) PoolVersion(ctx context.Context, concertID uint64, date time.Time) (uint64, bool, error) {
	var v uint64
	err := t.tx.QueryRowContext(ctx,
		"SELECT version FROM seat_pools WHERE concert_id = ? AND concert_date = ?",
		concertID, date).Scan(&v)
	ok, err := found(err)
	return v, ok, err
}

func (t *reservationTx) BumpPoolVersion(ctx context.Context, concertID uint64, date time.Time, observed uint64) error {
	return t.cas(ctx,
		"UPDATE seat_pools SET version = version + 1 WHERE concert_id = ? AND concert_date = ? AND version = ?",
		concertID, date, observed)
}

func (t *reservationTx) BookedSeats(ctx context.Context, concertID uint64, date time.Time) ([]model.Seat, error) {
	const q = `SELECT sr.seat_row, sr.seat_number
               FROM seat_reservations sr
               JOIN reservations r ON r.id = sr.reservation_id
               JOIN bookings b ON b.reservation_id = r.id
               WHERE r.concert_id = ? AND r.concert_date = ?`
	return t.seats(ctx, q, concertID, date)
}

func (t *reservationTx) ClaimedSeats(ctx context.Context, concertID uint64, date, now time.Time) ([]model.Seat, error) {
	const q = `SELECT sr.seat_row, sr.seat_number
               FROM seat_reservations sr
               JOIN reservations r ON r.id = sr.reservation_id
               WHERE r.concert_id = ? AND r.concert_date = ? AND r.expires_at > ?`
	return t.seats(ctx, q, concertID, date, now)
}

func (t *reservationTx) seats(ctx context.Context, query string, args ...any) ([]model.Seat, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.Row, &s.Number); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *reservationTx) CurrentReservation(ctx context.Context, userID uint64) (model.Reservation, bool, error) {
	const q = `SELECT r.id, r.user_id, r.concert_id, r.concert_date, r.price_band,
                      r.expires_at, r.version, r.created_at
               FROM users u
               JOIN reservations r ON r.id = u.reservation_id
               WHERE u.id = ?`
	var res model.Reservation
	var band string
	err := t.tx.QueryRowContext(ctx, q, userID).Scan(
		&res.ID, &res.UserID, &res.ConcertID, &res.Date, &band,
		&res.ExpiresAt, &res.Version, &res.CreatedAt,
	)
	ok, err := found(err)
	if !ok || err != nil {
		return model.Reservation{}, false, err
	}
	res.PriceBand = model.PriceBand(band)
	res.Seats, err = t.seats(ctx,
		"SELECT seat_row, seat_number FROM seat_reservations WHERE reservation_id = ?", res.ID)
	if err != nil {
		return model.Reservation{}, false, err
	}
	model.SortSeats(res.Seats)
	return res, true, nil
}

func (t *reservationTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
               (user_id, concert_id, concert_date, price_band, expires_at, version, created_at)
               VALUES (?, ?, ?, ?, ?, 0, ?)`
	result, err := t.tx.ExecContext(ctx, q,
		res.UserID, res.ConcertID, res.Date, string(res.PriceBand), res.ExpiresAt, res.CreatedAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Version = 0

	if len(res.Seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO seat_reservations (reservation_id, seat_row, seat_number) VALUES ")
	args := make([]any, 0, len(res.Seats)*3)
	for i, s := range res.Seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, res.ID, s.Row, s.Number)
	}
	_, err = t.tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (t *reservationTx) SetUserReservation(ctx context.Context, userID, previousID, reservationID uint64) error {
	return t.cas(ctx,
		"UPDATE users SET reservation_id = ? WHERE id = ? AND COALESCE(reservation_id, 0) = ?",
		reservationID, userID, previousID)
}

func (t *reservationTx) ClearUserReservation(ctx context.Context, userID, reservationID uint64) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE users SET reservation_id = NULL WHERE id = ? AND reservation_id = ?",
		userID, reservationID)
	return err
}

func (t *reservationTx) ExpireReservation(ctx context.Context, reservationID, observed uint64, at time.Time) error {
	return t.cas(ctx,
		"UPDATE reservations SET expires_at = ?, version = version + 1 WHERE id = ? AND version = ?",
		at, reservationID, observed)
}

func (t *reservationTx) BumpReservationVersion(ctx context.Context, reservationID, observed uint64) error {
	return t.cas(ctx,
		"UPDATE reservations SET version = version + 1 WHERE id = ? AND version = ?",
		reservationID, observed)
}

func (t *reservationTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	result, err := t.tx.ExecContext(ctx,
		"INSERT INTO bookings (reservation_id, user_id, created_at) VALUES (?, ?, ?)",
		b.ReservationID, b.UserID, b.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("reservation %d already booked: %w", b.ReservationID, reservation.ErrConcurrencyConflict)
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}
