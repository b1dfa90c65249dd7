package model

import "time"

// Concert is a titled event scheduled on one or more dates. Tariff maps each
// price band sold for the concert to its per-seat price in cents.
type Concert struct {
	ID           uint64               `json:"id"`
	Title        string               `json:"title"`
	Dates        []time.Time          `json:"dates"`
	Tariff       map[PriceBand]uint32 `json:"tariff"`
	PerformerIDs []uint64             `json:"performer_ids"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ConcertSchedule is the slice of a concert the reservation flow needs:
// which dates are scheduled and which bands are priced.
type ConcertSchedule struct {
	ConcertID uint64
	Dates     []time.Time
	Tariff    map[PriceBand]uint32
}

// HasDate compares at second precision, which is what DATETIME stores.
func (s ConcertSchedule) HasDate(d time.Time) bool {
	want := d.UTC().Truncate(time.Second)
	for _, got := range s.Dates {
		if got.UTC().Truncate(time.Second).Equal(want) {
			return true
		}
	}
	return false
}

func (s ConcertSchedule) Sells(b PriceBand) bool {
	_, ok := s.Tariff[b]
	return ok
}

// Genre classifies a performer.
type Genre string

const (
	GenrePop            Genre = "Pop"
	GenreHipHop         Genre = "HipHop"
	GenreRhythmAndBlues Genre = "RhythmAndBlues"
	GenreAcappella      Genre = "Acappella"
	GenreMetal          Genre = "Metal"
	GenreRock           Genre = "Rock"
)

// ValidGenre reports whether g is one of the known genres.
func ValidGenre(g Genre) bool {
	switch g {
	case GenrePop, GenreHipHop, GenreRhythmAndBlues, GenreAcappella, GenreMetal, GenreRock:
		return true
	}
	return false
}

// Performer appears in concerts.
type Performer struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ImageName string    `json:"image_name,omitempty"`
	Genre     Genre     `json:"genre"`
	CreatedAt time.Time `json:"created_at"`
}
