package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BookingAuditor consumes booking.confirmed and appends one line per
// booking to an audit log file.
type BookingAuditor struct {
	url  string
	path string
	log  *zap.Logger
}

func NewBookingAuditor(url, path string, log *zap.Logger) *BookingAuditor {
	return &BookingAuditor{url: url, path: path, log: log}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker goes away.
func (a *BookingAuditor) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := a.consume(ctx)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			a.log.Warn("booking auditor disconnected", zap.Error(err), zap.Duration("retry_in", wait))
		}),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *BookingAuditor) consume(ctx context.Context) error {
	conn, err := amqp.Dial(a.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareTopology(ch); err != nil {
		return err
	}
	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, KeyBookingConfirmed, "booking-auditor", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	a.log.Info("booking auditor consuming", zap.String("queue", KeyBookingConfirmed))

	for d := range msgs {
		if err := a.handle(d.Body); err != nil {
			a.log.Error("audit booking", zap.String("message_id", d.MessageId), zap.Error(err))
			// malformed bodies would redeliver forever
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("delivery channel closed")
}

func (a *BookingAuditor) handle(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(auditLine(ev))
	return err
}

func auditLine(ev BookingConfirmedEvent) string {
	return fmt.Sprintf("[%s] booking confirmed | booking_id=%d | reservation_id=%d | user_id=%d | concert_id=%d | date=%s | band=%s | seats=[%s]\n",
		ev.ConfirmedAt.UTC().Format(time.RFC3339), ev.BookingID, ev.ReservationID, ev.UserID,
		ev.ConcertID, ev.Date.UTC().Format(time.RFC3339), ev.PriceBand, strings.Join(ev.Seats, ","))
}
