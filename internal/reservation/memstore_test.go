package reservation_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

type poolKey struct {
	concertID uint64
	date      int64
}

func keyOf(concertID uint64, date time.Time) poolKey {
	return poolKey{concertID: concertID, date: date.UTC().Unix()}
}

type memState struct {
	pools        map[poolKey]uint64
	reservations map[uint64]model.Reservation
	bookings     map[uint64]model.Booking // keyed by reservation id
	slots        map[uint64]uint64
}

func newMemState() *memState {
	return &memState{
		pools:        map[poolKey]uint64{},
		reservations: map[uint64]model.Reservation{},
		bookings:     map[uint64]model.Booking{},
		slots:        map[uint64]uint64{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.pools {
		c.pools[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	return c
}

// memStore is an in-memory Store with the same optimistic semantics as the
// MySQL one: each transaction works on a private snapshot and its version
// expectations are validated atomically at commit.
type memStore struct {
	mu     sync.Mutex
	live   *memState
	nextID atomic.Uint64

	// beforeCommit, when set, runs after fn succeeded and before the
	// commit is validated. Tests use it to line transactions up.
	beforeCommit func()
}

func newMemStore() *memStore { return &memStore{live: newMemState()} }

func (m *memStore) addPool(concertID uint64, date time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live.pools[keyOf(concertID, date)] = 0
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live.clone()
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx reservation.Tx) error) error {
	tx := &memTx{
		store:       m,
		view:        m.snapshot(),
		expectPools: map[poolKey]uint64{},
		expectRes:   map[uint64]uint64{},
		expectSlots: map[uint64]uint64{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if m.beforeCommit != nil {
		m.beforeCommit()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range tx.expectPools {
		if m.live.pools[k] != v {
			return reservation.ErrConcurrencyConflict
		}
	}
	for id, v := range tx.expectRes {
		if m.live.reservations[id].Version != v {
			return reservation.ErrConcurrencyConflict
		}
	}
	for user, v := range tx.expectSlots {
		if m.live.slots[user] != v {
			return reservation.ErrConcurrencyConflict
		}
	}
	// bookings.reservation_id is unique
	for _, id := range tx.booked {
		if _, dup := m.live.bookings[id]; dup {
			return reservation.ErrConcurrencyConflict
		}
	}
	for _, op := range tx.ops {
		op(m.live)
	}
	return nil
}

type memTx struct {
	store       *memStore
	view        *memState
	expectPools map[poolKey]uint64
	expectRes   map[uint64]uint64
	expectSlots map[uint64]uint64
	booked      []uint64
	ops         []func(*memState)
}

func (t *memTx) apply(op func(*memState)) {
	op(t.view)
	t.ops = append(t.ops, op)
}

func (t *memTx) PoolVersion(_ context.Context, concertID uint64, date time.Time) (uint64, bool, error) {
	v, ok := t.view.pools[keyOf(concertID, date)]
	return v, ok, nil
}

func (t *memTx) BumpPoolVersion(_ context.Context, concertID uint64, date time.Time, observed uint64) error {
	k := keyOf(concertID, date)
	if t.view.pools[k] != observed {
		return reservation.ErrConcurrencyConflict
	}
	if _, seen := t.expectPools[k]; !seen {
		t.expectPools[k] = observed
	}
	t.apply(func(s *memState) { s.pools[k]++ })
	return nil
}

func (t *memTx) BookedSeats(_ context.Context, concertID uint64, date time.Time) ([]model.Seat, error) {
	var out []model.Seat
	for resID := range t.view.bookings {
		r := t.view.reservations[resID]
		if r.ConcertID == concertID && r.Date.Equal(date) {
			out = append(out, r.Seats...)
		}
	}
	return out, nil
}

func (t *memTx) ClaimedSeats(_ context.Context, concertID uint64, date, now time.Time) ([]model.Seat, error) {
	var out []model.Seat
	for _, r := range t.view.reservations {
		if r.ConcertID == concertID && r.Date.Equal(date) && r.ExpiresAt.After(now) {
			out = append(out, r.Seats...)
		}
	}
	return out, nil
}

func (t *memTx) CurrentReservation(_ context.Context, userID uint64) (model.Reservation, bool, error) {
	id, ok := t.view.slots[userID]
	if !ok {
		return model.Reservation{}, false, nil
	}
	r, ok := t.view.reservations[id]
	return r, ok, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	r.ID = t.store.nextID.Add(1)
	r.Version = 0
	row := *r
	row.Seats = append([]model.Seat(nil), r.Seats...)
	t.apply(func(s *memState) { s.reservations[row.ID] = row })
	return nil
}

func (t *memTx) SetUserReservation(_ context.Context, userID, previousID, reservationID uint64) error {
	if t.view.slots[userID] != previousID {
		return reservation.ErrConcurrencyConflict
	}
	if _, seen := t.expectSlots[userID]; !seen {
		t.expectSlots[userID] = previousID
	}
	t.apply(func(s *memState) { s.slots[userID] = reservationID })
	return nil
}

func (t *memTx) ClearUserReservation(_ context.Context, userID, reservationID uint64) error {
	t.apply(func(s *memState) {
		if s.slots[userID] == reservationID {
			delete(s.slots, userID)
		}
	})
	return nil
}

func (t *memTx) casReservation(id, observed uint64, mutate func(*model.Reservation)) error {
	r, ok := t.view.reservations[id]
	if !ok || r.Version != observed {
		return reservation.ErrConcurrencyConflict
	}
	if _, seen := t.expectRes[id]; !seen {
		t.expectRes[id] = observed
	}
	t.apply(func(s *memState) {
		row := s.reservations[id]
		mutate(&row)
		row.Version++
		s.reservations[id] = row
	})
	return nil
}

func (t *memTx) ExpireReservation(_ context.Context, id, observed uint64, at time.Time) error {
	return t.casReservation(id, observed, func(r *model.Reservation) { r.ExpiresAt = at })
}

func (t *memTx) BumpReservationVersion(_ context.Context, id, observed uint64) error {
	return t.casReservation(id, observed, func(*model.Reservation) {})
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	if _, dup := t.view.bookings[b.ReservationID]; dup {
		return fmt.Errorf("reservation %d already booked: %w", b.ReservationID, reservation.ErrConcurrencyConflict)
	}
	b.ID = t.store.nextID.Add(1)
	t.booked = append(t.booked, b.ReservationID)
	row := *b
	t.apply(func(s *memState) { s.bookings[row.ReservationID] = row })
	return nil
}

// Collaborator fakes.

type fakeCatalog map[uint64]model.ConcertSchedule

func (c fakeCatalog) Schedule(_ context.Context, id uint64) (model.ConcertSchedule, bool, error) {
	s, ok := c[id]
	return s, ok, nil
}

type fakeCards struct {
	mu    sync.Mutex
	cards map[uint64]bool
}

func (f *fakeCards) register(userID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cards == nil {
		f.cards = map[uint64]bool{}
	}
	f.cards[userID] = true
}

func (f *fakeCards) HasCreditCard(_ context.Context, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[userID], nil
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu           sync.Mutex
	reservations []model.Reservation
	bookings     []model.Booking
}

func (p *recordingPublisher) ReservationCreated(_ context.Context, r model.Reservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reservations = append(p.reservations, r)
	return nil
}

func (p *recordingPublisher) BookingConfirmed(_ context.Context, b model.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookings = append(p.bookings, b)
	return nil
}

// barrier blocks the first n callers until all n have arrived; later
// callers pass straight through.
func barrier(n int) func() {
	var mu sync.Mutex
	arrived := 0
	release := make(chan struct{})
	return func() {
		mu.Lock()
		arrived++
		k := arrived
		if k == n {
			close(release)
		}
		mu.Unlock()
		if k <= n {
			<-release
		}
	}
}
