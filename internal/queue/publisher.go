package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/reservation"
)

const (
	publishTimeout = 3 * time.Second
	// redialCooldown is how long publishes fail fast after a failed dial.
	redialCooldown = 5 * time.Second
)

// ErrBrokerUnavailable is returned without touching the network while a
// dial is in flight or the last one failed less than redialCooldown ago.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// Publisher keeps one AMQP connection and redials it after a failure. All
// publishes are persistent and carry a fresh message id. Dialing happens
// outside the lock and is bounded by timeout.
type Publisher struct {
	url     string
	log     *zap.Logger
	timeout time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	dialing  bool
	nextDial time.Time
	now      func() time.Time

	send func(ctx context.Context, key string, msg amqp.Publishing) error
}

var _ reservation.Publisher = (*Publisher)(nil)

func NewPublisher(url string, log *zap.Logger) *Publisher {
	p := &Publisher{url: url, log: log, timeout: publishTimeout, now: time.Now}
	p.send = p.publish
	return p
}

func (p *Publisher) ConcertCreated(ctx context.Context, c model.Concert) error {
	return p.emit(ctx, KeyConcertCreated, ConcertCreatedEvent{
		ConcertID:    c.ID,
		Title:        c.Title,
		Dates:        c.Dates,
		PerformerIDs: c.PerformerIDs,
		CreatedAt:    c.CreatedAt,
	})
}

func (p *Publisher) PerformerCreated(ctx context.Context, pf model.Performer) error {
	return p.emit(ctx, KeyPerformerCreated, PerformerCreatedEvent{
		PerformerID: pf.ID,
		Name:        pf.Name,
		Genre:       pf.Genre,
		CreatedAt:   pf.CreatedAt,
	})
}

func (p *Publisher) ReservationCreated(ctx context.Context, r model.Reservation) error {
	return p.emit(ctx, KeyReservationCreated, ReservationCreatedEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		ConcertID:     r.ConcertID,
		Date:          r.Date,
		PriceBand:     r.PriceBand,
		Seats:         seatLabels(r.Seats),
		ExpiresAt:     r.ExpiresAt,
	})
}

func (p *Publisher) BookingConfirmed(ctx context.Context, b model.Booking) error {
	return p.emit(ctx, KeyBookingConfirmed, BookingConfirmedEvent{
		BookingID:     b.ID,
		ReservationID: b.ReservationID,
		UserID:        b.UserID,
		ConcertID:     b.ConcertID,
		Date:          b.Date,
		PriceBand:     b.PriceBand,
		Seats:         seatLabels(b.Seats),
		ConfirmedAt:   b.CreatedAt,
	})
}

func (p *Publisher) emit(ctx context.Context, key string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         key,
		Body:         body,
	}
	if err := p.send(ctx, key, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	p.log.Debug("event published", zap.String("routing_key", key), zap.String("message_id", msg.MessageId))
	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ch.PublishWithContext(ctx, Exchange, key, false, false, msg); err != nil {
		if p.ch == ch {
			p.reset()
		}
		return err
	}
	return nil
}

// channel returns the open channel, dialing when there is none. Only one
// caller dials at a time; the others get ErrBrokerUnavailable.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	if p.dialing || p.now().Before(p.nextDial) {
		p.mu.Unlock()
		return nil, ErrBrokerUnavailable
	}
	p.reset()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		p.nextDial = p.now().Add(redialCooldown)
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// dial connects, opens a channel and declares the topology. The TCP connect
// and the AMQP handshake share the deadline of ctx, capped at p.timeout.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := p.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(timeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// reset drops the current connection. Callers hold p.mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// declareTopology declares the durable topic exchange and one durable queue
// per routing key. Declarations are idempotent.
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	for _, key := range RoutingKeys {
		if _, err := ch.QueueDeclare(key, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", key, err)
		}
		if err := ch.QueueBind(key, key, Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", key, err)
		}
	}
	return nil
}
