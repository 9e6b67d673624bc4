package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	fail   int
}

func (p *recordingPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail > 0 {
		p.fail--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestOutbox_PublishesAndCounts(t *testing.T) {
	pub := &recordingPublisher{fail: 1}
	ob := NewOutbox(pub, 8, nil)
	ob.backoff = time.Millisecond

	ob.Notify(context.Background(), Event{Kind: KindEstimateAccepted, MigrationID: "m1"})
	ob.Notify(context.Background(), Event{Kind: KindCarrierSubmitted, MigrationID: "m1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ob.Run(ctx, time.Second)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	st := ob.Stats()
	if st.Enqueued != 2 || st.Published != 2 || st.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if pub.events[0].ID == "" || pub.events[0].OccurredAt.IsZero() {
		t.Fatalf("expected id and timestamp to be filled: %+v", pub.events[0])
	}
}

func TestOutbox_CountsFailures(t *testing.T) {
	pub := &recordingPublisher{fail: 100}
	ob := NewOutbox(pub, 8, nil)
	ob.backoff = time.Millisecond

	ob.Notify(context.Background(), Event{Kind: KindPortingCompleted, MigrationID: "m1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ob.Run(ctx, time.Second)

	st := ob.Stats()
	if st.Failed != 1 || st.Published != 0 || st.Pending != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestOutbox_DropsWhenFull(t *testing.T) {
	ob := NewOutbox(&recordingPublisher{}, 1, nil)
	ob.Notify(context.Background(), Event{Kind: KindFOCReceived})
	ob.Notify(context.Background(), Event{Kind: KindFOCReceived})

	st := ob.Stats()
	if st.Enqueued != 1 || st.Dropped != 1 || st.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRender_EstimateAcceptedShowsTotals(t *testing.T) {
	msg := Render(Event{
		Kind:         KindEstimateAccepted,
		SiteName:     "HQ",
		CustomerName: "Contoso",
		Stage:        "estimate_accepted",
		Actor:        "Jane Customer",
		Currency:     "USD",
		TotalMonthly: 550,
		TotalOnetime: 200,
		OccurredAt:   time.Date(2025, 2, 3, 4, 5, 0, 0, time.UTC),
	})
	if !strings.Contains(msg.Subject, "Estimate accepted") || !strings.Contains(msg.Subject, "HQ") {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Contoso", "Jane Customer", "550", "200"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestFormatMoney_UnknownCurrency(t *testing.T) {
	if got := FormatMoney(12.5, "???"); got != "12.50 ???" {
		t.Fatalf("unexpected %q", got)
	}
}

type recordingSender struct {
	to   []string
	fail string
}

func (s *recordingSender) Send(ctx context.Context, to Recipient, msg Message) error {
	if to.Email == s.fail {
		return errors.New("mailbox unavailable")
	}
	s.to = append(s.to, to.Email)
	return nil
}

func TestDispatcher_FansOutToSubscribers(t *testing.T) {
	subs := NewMemorySubscribers()
	subs.AddMember(Recipient{MemberID: "a", Email: "a@example.com"})
	subs.AddMember(Recipient{MemberID: "b", Email: "b@example.com"})
	_ = subs.Subscribe(context.Background(), "m1", "a")
	_ = subs.Subscribe(context.Background(), "m1", "b")

	sender := &recordingSender{}
	d := Dispatcher{Subscribers: subs, Sender: sender}

	body, _ := json.Marshal(Event{ID: "e1", Kind: KindCarrierCompleted, MigrationID: "m1", SiteName: "HQ"})
	if err := d.Handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.to) != 2 || sender.to[0] != "a@example.com" {
		t.Fatalf("unexpected deliveries: %v", sender.to)
	}
}

func TestDispatcher_ReportsFailures(t *testing.T) {
	subs := NewMemorySubscribers()
	subs.AddMember(Recipient{MemberID: "a", Email: "a@example.com"})
	_ = subs.Subscribe(context.Background(), "m1", "a")

	d := Dispatcher{Subscribers: subs, Sender: &recordingSender{fail: "a@example.com"}}
	body, _ := json.Marshal(Event{Kind: KindCarrierCompleted, MigrationID: "m1"})
	if err := d.Handle(context.Background(), body); err == nil {
		t.Fatalf("expected delivery failure")
	}
	if err := d.Handle(context.Background(), []byte("{")); err == nil {
		t.Fatalf("expected decode failure")
	}
}

func TestMemorySubscribers_UnknownMember(t *testing.T) {
	subs := NewMemorySubscribers()
	if err := subs.Subscribe(context.Background(), "m1", "ghost"); err == nil {
		t.Fatalf("expected error for unknown member")
	}
}
