// Package reservation implements the seat reservation and booking ledger.
//
// A reservation is a time-boxed claim on seats for one concert date. A
// booking is the permanent record created when the owner confirms a live
// reservation. Both operations run in a single storage transaction that
// reads the seat pool's version before looking at availability and finishes
// with a conditional version bump, so two transactions that read the same
// pool cannot both commit.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	DefaultWindow          = time.Minute
	DefaultConflictRetries = 3
)

// Service owns the reservation and booking ledgers.
type Service struct {
	store    Store
	catalog  Catalog
	payments PaymentInstruments

	layout  Layout
	alloc   Allocator
	clock   Clock
	events  Publisher
	log     *zap.Logger
	window  time.Duration
	retries int
	backoff func() backoff.BackOff
}

type Option func(*Service)

// WithWindow sets how long a reservation blocks its seats.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithConflictRetries bounds how many times an operation that lost a
// version race is re-run before ErrConcurrencyConflict is returned.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retries = n
		}
	}
}

func WithClock(c Clock) Option         { return func(s *Service) { s.clock = c } }
func WithAllocator(a Allocator) Option { return func(s *Service) { s.alloc = a } }

// WithLayout sets the venue. Allocations outside it are rejected, and unless
// WithAllocator is given seats are allocated from it front to back.
func WithLayout(l Layout) Option { return func(s *Service) { s.layout = l } }
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }
func WithLogger(l *zap.Logger) Option  { return func(s *Service) { s.log = l } }

// WithBackOff replaces the pause policy between conflict retries.
func WithBackOff(f func() backoff.BackOff) Option { return func(s *Service) { s.backoff = f } }

func NewService(store Store, catalog Catalog, payments PaymentInstruments, opts ...Option) *Service {
	s := &Service{
		store:    store,
		catalog:  catalog,
		payments: payments,
		layout:   DefaultLayout(),
		clock:    SystemClock{},
		events:   nopPublisher{},
		log:      zap.NewNop(),
		window:   DefaultWindow,
		retries:  DefaultConflictRetries,
		backoff:  defaultBackOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alloc == nil {
		s.alloc = NewLayoutAllocator(s.layout)
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}

// now is truncated to the precision of a DATETIME(6) column so values
// written and read back compare equal.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

// retry re-runs fn while it fails with ErrConcurrencyConflict. Any other
// error stops immediately.
func (s *Service) retry(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn()
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, ErrConcurrencyConflict):
			s.log.Debug("version conflict",
				zap.String("op", op),
				zap.Int("attempt", attempt),
			)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(s.backoff()),
		backoff.WithMaxTries(uint(s.retries)+1),
	)
	return err
}
