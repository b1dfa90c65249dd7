package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

// ReservationService is the ledger as the transport sees it.
type ReservationService interface {
	Reserve(ctx context.Context, req reservation.ReserveRequest) (*model.Reservation, error)
	ConfirmBooking(ctx context.Context, userID uint64) (*model.Booking, error)
	UnavailableSeats(ctx context.Context, concertID uint64, date time.Time) (model.SeatSet, error)
}

type ReservationHandler struct {
	Ledger ReservationService
}

func NewReservationHandler(ledger ReservationService) *ReservationHandler {
	return &ReservationHandler{Ledger: ledger}
}

type reserveReq struct {
	ConcertID uint64    `json:"concert_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	PriceBand string    `json:"price_band" validate:"required"`
	SeatCount int       `json:"seat_count"`
}

type reservationResp struct {
	ID        uint64          `json:"id"`
	ConcertID uint64          `json:"concert_id"`
	Date      time.Time       `json:"date"`
	PriceBand model.PriceBand `json:"price_band"`
	Seats     []string        `json:"seats"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type bookingResp struct {
	ID            uint64          `json:"id"`
	ReservationID uint64          `json:"reservation_id"`
	ConcertID     uint64          `json:"concert_id"`
	ConcertTitle  string          `json:"concert_title,omitempty"`
	Date          time.Time       `json:"date"`
	PriceBand     model.PriceBand `json:"price_band"`
	Seats         []string        `json:"seats"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID:            b.ID,
		ReservationID: b.ReservationID,
		ConcertID:     b.ConcertID,
		ConcertTitle:  b.ConcertTitle,
		Date:          b.Date,
		PriceBand:     b.PriceBand,
		Seats:         labels(b.Seats),
		CreatedAt:     b.CreatedAt,
	}
}

func labels(seats []model.Seat) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = s.Label()
	}
	return out
}

// Reserve handles POST /v1/reservations. The caller's previous live
// reservation, if any, is released.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	// seat_count is checked by the ledger
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	res, err := h.Ledger.Reserve(c.Request().Context(), reservation.ReserveRequest{
		UserID:    uid,
		ConcertID: req.ConcertID,
		Date:      req.Date,
		PriceBand: model.PriceBand(req.PriceBand),
		SeatCount: req.SeatCount,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, reservationResp{
		ID:        res.ID,
		ConcertID: res.ConcertID,
		Date:      res.Date,
		PriceBand: res.PriceBand,
		Seats:     labels(res.Seats),
		ExpiresAt: res.ExpiresAt,
	})
}

// Confirm handles POST /v1/reservations/confirm.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	b, err := h.Ledger.ConfirmBooking(c.Request().Context(), uid)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(*b))
}

// UnavailableSeats handles GET /v1/concerts/:id/unavailable?date=RFC3339.
func (h *ReservationHandler) UnavailableSeats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid concert id")
	}
	date, err := time.Parse(time.RFC3339, c.QueryParam("date"))
	if err != nil {
		return badRequest(c, "date must be RFC3339")
	}
	set, err := h.Ledger.UnavailableSeats(c.Request().Context(), id, date)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"concert_id": id,
		"date":       date.UTC(),
		"seats":      labels(set.Sorted()),
	})
}
