package reservation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

func TestDefaultLayout(t *testing.T) {
	l := reservation.DefaultLayout()

	assert.Equal(t, 100, l.Capacity(model.PriceBandA))
	assert.Equal(t, 140, l.Capacity(model.PriceBandB))
	assert.Equal(t, 120, l.Capacity(model.PriceBandC))
	assert.True(t, l.Contains(model.PriceBandB, model.Seat{Row: "L", Number: 20}))
	assert.False(t, l.Contains(model.PriceBandB, model.Seat{Row: "M", Number: 1}))
	assert.False(t, l.Contains(model.PriceBandA, model.Seat{Row: "A", Number: 21}))
}

func TestLayoutAllocatorSkipsUnavailable(t *testing.T) {
	a := reservation.NewLayoutAllocator(reservation.Layout{
		model.PriceBandA: {{Label: "A", Seats: 3}, {Label: "B", Seats: 3}},
	})
	taken := model.NewSeatSet([]model.Seat{{Row: "A", Number: 1}, {Row: "A", Number: 3}})

	got := a.Allocate(3, model.PriceBandA, taken)

	assert.Equal(t, []model.Seat{{Row: "A", Number: 2}, {Row: "B", Number: 1}, {Row: "B", Number: 2}}, got)
}

func TestLayoutAllocatorInsufficient(t *testing.T) {
	a := reservation.NewLayoutAllocator(reservation.Layout{
		model.PriceBandA: {{Label: "A", Seats: 2}},
	})

	assert.Empty(t, a.Allocate(3, model.PriceBandA, model.SeatSet{}))
	assert.Empty(t, a.Allocate(2, model.PriceBandA, model.NewSeatSet([]model.Seat{{Row: "A", Number: 2}})))
	assert.Empty(t, a.Allocate(1, model.PriceBandC, model.SeatSet{}))
	assert.Empty(t, a.Allocate(0, model.PriceBandA, model.SeatSet{}))
}
