package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceBand(t *testing.T) {
	for in, want := range map[string]PriceBand{
		"PriceBandA": PriceBandA,
		"pricebandb": PriceBandB,
		"C":          PriceBandC,
		" a ":        PriceBandA,
	} {
		got, ok := ParsePriceBand(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "D", "Gold", "PriceBand"} {
		_, ok := ParsePriceBand(in)
		assert.False(t, ok, in)
	}
}

func TestSeatSetSortedAndDeduplicated(t *testing.T) {
	set := NewSeatSet(
		[]Seat{{Row: "B", Number: 2}, {Row: "A", Number: 10}},
		[]Seat{{Row: "A", Number: 2}, {Row: "B", Number: 2}},
	)
	set.Add(Seat{Row: "AA", Number: 1})

	assert.Len(t, set, 4)
	assert.True(t, set.Contains(Seat{Row: "A", Number: 10}))
	assert.False(t, set.Contains(Seat{Row: "A", Number: 1}))

	var got []string
	for _, s := range set.Sorted() {
		got = append(got, s.Label())
	}
	assert.Equal(t, []string{"A2", "A10", "B2", "AA1"}, got)
}

func TestReservationState(t *testing.T) {
	exp := time.Date(2026, 10, 1, 12, 1, 0, 0, time.UTC)
	r := Reservation{ExpiresAt: exp}

	assert.Equal(t, ReservationPending, r.State(exp.Add(-time.Nanosecond), false))
	assert.Equal(t, ReservationExpired, r.State(exp, false))
	assert.Equal(t, ReservationBooked, r.State(exp.Add(time.Hour), true))
}

func TestScheduleHasDateIgnoresZoneAndSubSecond(t *testing.T) {
	d := time.Date(2026, 11, 20, 19, 30, 0, 0, time.UTC)
	s := ConcertSchedule{Dates: []time.Time{d}, Tariff: map[PriceBand]uint32{PriceBandA: 1}}

	assert.True(t, s.HasDate(d.In(time.FixedZone("CET", 3600)).Add(400*time.Millisecond)))
	assert.False(t, s.HasDate(d.Add(time.Second)))
	assert.True(t, s.Sells(PriceBandA))
	assert.False(t, s.Sells(PriceBandC))
}

func TestMaskedNumber(t *testing.T) {
	assert.Equal(t, "************1111", CreditCard{Number: "4111111111111111"}.MaskedNumber())
	assert.Equal(t, "123", CreditCard{Number: "123"}.MaskedNumber())
}
