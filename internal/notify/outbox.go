package notify

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Stats reports outbox outcomes since start.
type Stats struct {
	Enqueued  int64 `json:"enqueued"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
}

// Outbox buffers events and publishes them from one worker goroutine.
// Notify never blocks: when the buffer is full the event is dropped and counted.
type Outbox struct {
	pub      Publisher
	events   chan Event
	log      *slog.Logger
	attempts int
	backoff  time.Duration
	clock    func() time.Time

	enqueued  atomic.Int64
	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewOutbox(pub Publisher, size int, log *slog.Logger) *Outbox {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Outbox{
		pub:      pub,
		events:   make(chan Event, size),
		log:      log,
		attempts: 3,
		backoff:  500 * time.Millisecond,
		clock:    time.Now,
	}
}

func (o *Outbox) Notify(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = o.clock().UTC()
	}

	select {
	case o.events <- ev:
		o.enqueued.Add(1)
	default:
		o.dropped.Add(1)
		o.log.WarnContext(ctx, "notification dropped, outbox full",
			slog.String("event_id", ev.ID),
			slog.String("kind", string(ev.Kind)),
			slog.String("migration_id", ev.MigrationID),
		)
	}
}

// Run publishes events until ctx is cancelled, then drains what is already buffered
// within drainTimeout.
func (o *Outbox) Run(ctx context.Context, drainTimeout time.Duration) {
	for {
		select {
		case ev := <-o.events:
			o.publish(ctx, ev)
		case <-ctx.Done():
			o.drain(drainTimeout)
			return
		}
	}
}

func (o *Outbox) drain(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		select {
		case ev := <-o.events:
			o.publish(ctx, ev)
		default:
			return
		}
	}
}

func (o *Outbox) publish(ctx context.Context, ev Event) {
	var err error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		if err = o.pub.Publish(ctx, ev); err == nil {
			o.published.Add(1)
			o.log.Info("notification published",
				slog.String("event_id", ev.ID),
				slog.String("kind", string(ev.Kind)),
				slog.String("migration_id", ev.MigrationID),
				slog.Int("attempt", attempt),
			)
			return
		}
		if attempt == o.attempts || !sleep(ctx, o.backoff*time.Duration(attempt)) {
			break
		}
	}

	o.failed.Add(1)
	o.log.Error("notification publish failed",
		slog.String("event_id", ev.ID),
		slog.String("kind", string(ev.Kind)),
		slog.String("migration_id", ev.MigrationID),
		slog.Any("err", err),
	)
}

func (o *Outbox) Stats() Stats {
	return Stats{
		Enqueued:  o.enqueued.Load(),
		Published: o.published.Load(),
		Failed:    o.failed.Load(),
		Dropped:   o.dropped.Load(),
		Pending:   len(o.events),
	}
}
