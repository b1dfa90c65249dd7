package reservation

import (
	"fmt"

	"github.com/iliyamo/concert-ticketing/internal/model"
)

// Allocator picks concrete seats. It must be a pure function of its inputs:
// given the band, the number of seats wanted and the seats already taken it
// returns exactly count seats none of which are in unavailable, or an empty
// result when the band cannot satisfy the request.
type Allocator interface {
	Allocate(count int, band model.PriceBand, unavailable model.SeatSet) []model.Seat
}

// AllocatorFunc adapts a plain function to the Allocator interface.
type AllocatorFunc func(count int, band model.PriceBand, unavailable model.SeatSet) []model.Seat

func (f AllocatorFunc) Allocate(count int, band model.PriceBand, unavailable model.SeatSet) []model.Seat {
	return f(count, band, unavailable)
}

// Row is one physical row of the venue.
type Row struct {
	Label string
	Seats int
}

// Layout assigns ordered rows to each price band. Rows earlier in the slice
// are offered first.
type Layout map[model.PriceBand][]Row

// DefaultLayout is the venue used in production: rows A-E are band A,
// F-L band B and M-R band C, twenty seats per row.
func DefaultLayout() Layout {
	build := func(from, to byte) []Row {
		var rows []Row
		for r := from; r <= to; r++ {
			rows = append(rows, Row{Label: string(r), Seats: 20})
		}
		return rows
	}
	return Layout{
		model.PriceBandA: build('A', 'E'),
		model.PriceBandB: build('F', 'L'),
		model.PriceBandC: build('M', 'R'),
	}
}

// Capacity is the total number of seats the band offers.
func (l Layout) Capacity(band model.PriceBand) int {
	n := 0
	for _, r := range l[band] {
		n += r.Seats
	}
	return n
}

// Contains reports whether seat exists in the band.
func (l Layout) Contains(band model.PriceBand, seat model.Seat) bool {
	for _, r := range l[band] {
		if r.Label == seat.Row {
			return seat.Number >= 1 && seat.Number <= r.Seats
		}
	}
	return false
}

// LayoutAllocator fills a band front to back, row by row.
type LayoutAllocator struct {
	layout Layout
}

func NewLayoutAllocator(layout Layout) *LayoutAllocator {
	return &LayoutAllocator{layout: layout}
}

func (a *LayoutAllocator) Allocate(count int, band model.PriceBand, unavailable model.SeatSet) []model.Seat {
	if count <= 0 || a.layout.Capacity(band) < count {
		return nil
	}
	out := make([]model.Seat, 0, count)
	for _, row := range a.layout[band] {
		for n := 1; n <= row.Seats; n++ {
			seat := model.Seat{Row: row.Label, Number: n}
			if unavailable.Contains(seat) {
				continue
			}
			out = append(out, seat)
			if len(out) == count {
				return out
			}
		}
	}
	return nil
}

// checkAllocation rejects allocator output that would break the no
// double-sale invariant or hand out seats the band does not have.
func checkAllocation(seats []model.Seat, count int, band model.PriceBand, layout Layout, unavailable model.SeatSet) error {
	if len(seats) != count {
		return fmt.Errorf("allocator returned %d seats, want %d", len(seats), count)
	}
	seen := make(model.SeatSet, len(seats))
	for _, s := range seats {
		if !layout.Contains(band, s) {
			return fmt.Errorf("allocator returned seat %s outside %s", s.Label(), band)
		}
		if unavailable.Contains(s) || seen.Contains(s) {
			return fmt.Errorf("allocator returned unavailable seat %s", s.Label())
		}
		seen.Add(s)
	}
	return nil
}
