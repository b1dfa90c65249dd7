package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

// ledgerErrors maps ledger outcomes to transport status and code. Order
// matters: ErrConcertNotScheduled also matches ErrInvalidRequest.
var ledgerErrors = []struct {
	err    error
	status int
	code   string
}{
	{reservation.ErrConcertNotScheduled, http.StatusNotFound, "concert_not_scheduled"},
	{reservation.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{reservation.ErrInsufficientSeats, http.StatusConflict, "insufficient_seats"},
	{reservation.ErrConcurrencyConflict, http.StatusPreconditionFailed, "concurrency_conflict"},
	{reservation.ErrReservationExpired, http.StatusRequestTimeout, "reservation_expired"},
	{reservation.ErrPaymentRequired, http.StatusPaymentRequired, "payment_required"},
	{reservation.ErrNoActiveReservation, http.StatusNotFound, "no_active_reservation"},
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, "invalid_request", msg)
}

func notFound(c echo.Context, msg string) error {
	return fail(c, http.StatusNotFound, "not_found", msg)
}

// internal hides the cause from the client; the request logger records it
// through the returned echo error.
func internal(c echo.Context, err error) error {
	_ = fail(c, http.StatusInternalServerError, "internal", "internal error")
	return err
}

// ledgerError answers with the mapped status for a ledger error, or 500.
func ledgerError(c echo.Context, err error) error {
	for _, m := range ledgerErrors {
		if errors.Is(err, m.err) {
			return fail(c, m.status, m.code, err.Error())
		}
	}
	return internal(c, err)
}
