package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

func userRouter(h *UserHandler) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	g := e.Group("/v1/users/me", asUser(4))
	g.POST("/payment", h.RegisterCreditCard)
	g.GET("/bookings", h.Bookings)
	return e
}

func fixedNow() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }

func TestRegisterCreditCard(t *testing.T) {
	cards := new(mockCards)
	h := NewUserHandler(cards, new(mockBookings))
	h.Now = fixedNow
	e := userRouter(h)

	cards.On("Save", mock.Anything, model.CreditCard{
		UserID:     4,
		Type:       model.CardVisa,
		Name:       "Ada Lovelace",
		Number:     "4111111111111111",
		ExpiryDate: time.Date(2028, 1, 31, 0, 0, 0, 0, time.UTC),
	}).Return(nil)

	rec := send(e, http.MethodPost, "/v1/users/me/payment",
		`{"type":"Visa","name":"Ada Lovelace","number":"4111 1111 1111 1111","expiry_date":"2028-01-31"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	cards.AssertExpectations(t)
}

func TestRegisterCreditCardValidation(t *testing.T) {
	h := NewUserHandler(new(mockCards), new(mockBookings))
	h.Now = fixedNow
	e := userRouter(h)

	bodies := map[string]string{
		"bad type":   `{"type":"Amex","name":"A","number":"4111111111111111","expiry_date":"2028-01-31"}`,
		"no name":    `{"type":"Visa","name":" ","number":"4111111111111111","expiry_date":"2028-01-31"}`,
		"short":      `{"type":"Visa","name":"A","number":"4111","expiry_date":"2028-01-31"}`,
		"letters":    `{"type":"Visa","name":"A","number":"4111abcd11111111","expiry_date":"2028-01-31"}`,
		"bad expiry": `{"type":"Visa","name":"A","number":"4111111111111111","expiry_date":"01/28"}`,
		"expired":    `{"type":"Master","name":"A","number":"5500000000000004","expiry_date":"2026-09-30"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, send(e, http.MethodPost, "/v1/users/me/payment", body).Code)
		})
	}
}

func TestBookingsPaging(t *testing.T) {
	bookings := new(mockBookings)
	e := userRouter(NewUserHandler(new(mockCards), bookings))

	full := []model.Booking{
		{ID: 1, ConcertTitle: "Night", Seats: []model.Seat{{Row: "A", Number: 1}, {Row: "A", Number: 2}}},
		{ID: 2},
	}
	bookings.On("ListByUser", mock.Anything, uint64(4), 0, 2).Return(full, nil)
	bookings.On("ListByUser", mock.Anything, uint64(4), 2, 2).Return([]model.Booking{{ID: 3}}, nil)

	rec := send(e, http.MethodGet, "/v1/users/me/bookings?size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `</v1/users/me/bookings?start=2&size=2>; rel="next"`, rec.Header().Get("Link"))
	assert.Contains(t, rec.Body.String(), `"concert_title":"Night"`)
	assert.Contains(t, rec.Body.String(), `"seats":["A1","A2"]`)
	assert.Contains(t, rec.Body.String(), `"seats":[]`)

	rec = send(e, http.MethodGet, "/v1/users/me/bookings?start=2&size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Link"))

	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodGet, "/v1/users/me/bookings?size=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(e, http.MethodGet, "/v1/users/me/bookings?start=-1", "").Code)
	bookings.AssertExpectations(t)
}

func TestCreateConcertValidation(t *testing.T) {
	valid := createConcertReq{
		Title:  " Night ",
		Dates:  []time.Time{time.Date(2026, 11, 20, 20, 30, 0, 500, time.FixedZone("CET", 3600))},
		Tariff: map[string]uint32{"A": 9900},
	}
	c, problem := valid.toConcert()
	require.Empty(t, problem)
	assert.Equal(t, "Night", c.Title)
	assert.Equal(t, []time.Time{showDate}, c.Dates)
	assert.Equal(t, map[model.PriceBand]uint32{model.PriceBandA: 9900}, c.Tariff)

	bad := []createConcertReq{
		{Title: "", Dates: valid.Dates, Tariff: valid.Tariff},
		{Title: "x", Tariff: valid.Tariff},
		{Title: "x", Dates: valid.Dates},
		{Title: "x", Dates: valid.Dates, Tariff: map[string]uint32{"Gold": 1}},
		{Title: "x", Dates: valid.Dates, Tariff: map[string]uint32{"A": 0}},
	}
	for _, req := range bad {
		_, problem := req.toConcert()
		assert.NotEmpty(t, problem, "%+v", req)
	}
}

func TestValidationMessageNamesJSONFields(t *testing.T) {
	v := NewRequestValidator()
	err := v.Validate(&registerReq{Username: "ab", Password: "secret1"})
	require.Error(t, err)
	msg := validationMessage(err)
	assert.Contains(t, msg, "username must satisfy min=3")
	assert.Contains(t, msg, "first_name is required")
	assert.Contains(t, msg, "last_name is required")
	assert.NotContains(t, msg, "password")
}

func TestBookingsStorageFailure(t *testing.T) {
	bookings := new(mockBookings)
	h := &UserHandler{Cards: new(mockCards), History: bookings, Now: fixedNow}
	e := userRouter(h)
	bookings.On("ListByUser", mock.Anything, uint64(4), 0, defaultPageSize).Return(nil, errors.New("db down"))

	rec := send(e, http.MethodGet, "/v1/users/me/bookings", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"internal"`)
	bookings.AssertExpectations(t)
}
