package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Reserve(ctx context.Context, req reservation.ReserveRequest) (*model.Reservation, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*model.Reservation)
	return res, args.Error(1)
}

func (m *mockLedger) ConfirmBooking(ctx context.Context, userID uint64) (*model.Booking, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *mockLedger) UnavailableSeats(ctx context.Context, concertID uint64, date time.Time) (model.SeatSet, error) {
	args := m.Called(ctx, concertID, date)
	set, _ := args.Get(0).(model.SeatSet)
	return set, args.Error(1)
}

type mockCards struct{ mock.Mock }

func (m *mockCards) Save(ctx context.Context, card model.CreditCard) error {
	return m.Called(ctx, card).Error(0)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) ListByUser(ctx context.Context, userID uint64, start, size int) ([]model.Booking, error) {
	args := m.Called(ctx, userID, start, size)
	list, _ := args.Get(0).([]model.Booking)
	return list, args.Error(1)
}
