package model

import (
	"fmt"
	"sort"
	"strings"
)

// PriceBand is a named seating tier with its own price and seat pool.
type PriceBand string

const (
	PriceBandA PriceBand = "PriceBandA"
	PriceBandB PriceBand = "PriceBandB"
	PriceBandC PriceBand = "PriceBandC"
)

// PriceBands lists the bands in the order they are presented to clients.
var PriceBands = []PriceBand{PriceBandA, PriceBandB, PriceBandC}

// ParsePriceBand accepts the canonical name as well as the short form
// ("A", "b") used by older clients.
func ParsePriceBand(s string) (PriceBand, bool) {
	s = strings.TrimSpace(s)
	for _, b := range PriceBands {
		if strings.EqualFold(s, string(b)) || strings.EqualFold("PriceBand"+s, string(b)) {
			return b, true
		}
	}
	return "", false
}

// Seat is a (row, number) pair that uniquely identifies a physical seat
// for a concert date.
type Seat struct {
	Row    string `json:"row"`    // row label, e.g. "A" or "R"
	Number int    `json:"number"` // 1-based position within the row
}

// Label renders a seat as "B12".
func (s Seat) Label() string { return fmt.Sprintf("%s%d", s.Row, s.Number) }

// SeatSet deduplicates seats by identity.
type SeatSet map[Seat]struct{}

// NewSeatSet builds a set from any number of seat slices.
func NewSeatSet(groups ...[]Seat) SeatSet {
	set := SeatSet{}
	for _, g := range groups {
		set.Add(g...)
	}
	return set
}

func (s SeatSet) Add(seats ...Seat) {
	for _, seat := range seats {
		s[seat] = struct{}{}
	}
}

func (s SeatSet) Contains(seat Seat) bool {
	_, ok := s[seat]
	return ok
}

// Sorted returns the seats ordered by row then number so responses are stable.
func (s SeatSet) Sorted() []Seat {
	out := make([]Seat, 0, len(s))
	for seat := range s {
		out = append(out, seat)
	}
	SortSeats(out)
	return out
}

// SortSeats orders seats by row label (shorter labels first) then number.
func SortSeats(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool {
		a, b := seats[i], seats[j]
		if a.Row != b.Row {
			if len(a.Row) != len(b.Row) {
				return len(a.Row) < len(b.Row)
			}
			return a.Row < b.Row
		}
		return a.Number < b.Number
	})
}
