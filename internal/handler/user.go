package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type CreditCardStore interface {
	Save(ctx context.Context, card model.CreditCard) error
}

type BookingLister interface {
	ListByUser(ctx context.Context, userID uint64, start, size int) ([]model.Booking, error)
}

// UserHandler serves the authenticated user's payment instrument and
// booking history.
type UserHandler struct {
	Cards   CreditCardStore
	History BookingLister
	Now     func() time.Time
}

func NewUserHandler(cards CreditCardStore, bookings BookingLister) *UserHandler {
	return &UserHandler{Cards: cards, History: bookings, Now: time.Now}
}

type creditCardReq struct {
	Type       string `json:"type" validate:"required,oneof=Visa Master"`
	Name       string `json:"name" validate:"required,max=100"`
	Number     string `json:"number" validate:"required"`
	ExpiryDate string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
}

func (r creditCardReq) toCard(userID uint64, now time.Time) (model.CreditCard, string) {
	card := model.CreditCard{
		UserID: userID,
		Type:   model.CardType(r.Type),
		Name:   strings.TrimSpace(r.Name),
		Number: strings.ReplaceAll(strings.TrimSpace(r.Number), " ", ""),
	}
	if card.Type != model.CardVisa && card.Type != model.CardMaster {
		return card, "type must be Visa or Master"
	}
	if card.Name == "" {
		return card, "name is required"
	}
	if n := len(card.Number); n < 12 || n > 19 || strings.Trim(card.Number, "0123456789") != "" {
		return card, "number must be 12 to 19 digits"
	}
	exp, err := time.Parse(time.DateOnly, r.ExpiryDate)
	if err != nil {
		return card, "expiry_date must be YYYY-MM-DD"
	}
	if exp.Before(now.UTC().Truncate(24 * time.Hour)) {
		return card, "card has expired"
	}
	card.ExpiryDate = exp
	return card, ""
}

// RegisterCreditCard handles POST /v1/users/me/payment. A later card
// replaces the earlier one.
func (h *UserHandler) RegisterCreditCard(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req creditCardReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	card, problem := req.toCard(uid, h.Now())
	if problem != "" {
		return badRequest(c, problem)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Cards.Save(ctx, card); err != nil {
		return internal(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Bookings handles GET /v1/users/me/bookings?start=&size=. A full page
// carries a Link header to the next one.
func (h *UserHandler) Bookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	start, ok := queryInt(c, "start", 0)
	if !ok || start < 0 {
		return badRequest(c, "start must be a non-negative integer")
	}
	size, ok := queryInt(c, "size", defaultPageSize)
	if !ok || size < 1 || size > maxPageSize {
		return badRequest(c, fmt.Sprintf("size must be between 1 and %d", maxPageSize))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.History.ListByUser(ctx, uid, start, size)
	if err != nil {
		return internal(c, err)
	}
	out := make([]bookingResp, len(list))
	for i, b := range list {
		out[i] = toBookingResp(b)
	}
	if len(list) == size {
		next := fmt.Sprintf("<%s?start=%d&size=%d>; rel=\"next\"", c.Request().URL.Path, start+size, size)
		c.Response().Header().Set("Link", next)
	}
	return c.JSON(http.StatusOK, out)
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
