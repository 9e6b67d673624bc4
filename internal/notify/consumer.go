package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Sender delivers one rendered message to one recipient.
type Sender interface {
	Send(ctx context.Context, to Recipient, msg Message) error
}

// LogSender records deliveries in the log instead of sending mail.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(ctx context.Context, to Recipient, msg Message) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "notification delivered",
		slog.String("to", to.Email),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Dispatcher fans one event out to the migration's subscribers.
type Dispatcher struct {
	Subscribers SubscriberRepository
	Sender      Sender
	Log         *slog.Logger
}

// Handle decodes a message body and delivers it. Any delivery failure fails the message.
func (d Dispatcher) Handle(ctx context.Context, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.MigrationID == "" {
		return errors.New("event without migration_id")
	}

	recipients, err := d.Subscribers.Recipients(ctx, ev.MigrationID)
	if err != nil {
		return fmt.Errorf("resolve subscribers: %w", err)
	}
	msg := Render(ev)

	var errs []error
	for _, rc := range recipients {
		if err := d.Sender.Send(ctx, rc, msg); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", rc.Email, err))
		}
	}
	if d.Log != nil {
		d.Log.Info("notification dispatched",
			slog.String("event_id", ev.ID),
			slog.String("kind", string(ev.Kind)),
			slog.String("migration_id", ev.MigrationID),
			slog.Int("recipients", len(recipients)),
			slog.Int("failed", len(errs)),
		)
	}
	return errors.Join(errs...)
}

// Handler processes one message body.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
}

// Consumer reads the notification queue and hands each message to a Handler.
// It reconnects with exponential backoff until ctx is cancelled.
type Consumer struct {
	URL      string
	Queue    string
	Prefetch int
	Handler  Handler
	Log      *slog.Logger
}

func (c Consumer) Run(ctx context.Context) error {
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.Prefetch <= 0 {
		c.Prefetch = 50
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("consumer dial failed", slog.Any("err", err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("consume loop ended, reconnecting", slog.Any("err", err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		c.Log.Warn("set qos failed", slog.Any("err", err))
	}
	if _, err := declareQueue(ch, c.Queue); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.Log.Info("consuming notifications", slog.String("queue", c.Queue))
	for d := range msgs {
		if err := c.Handler.Handle(ctx, d.Body); err != nil {
			c.Log.Error("notification handling failed",
				slog.String("message_id", d.MessageId),
				slog.Any("err", err),
			)
			// failed deliveries are dropped, not requeued
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
