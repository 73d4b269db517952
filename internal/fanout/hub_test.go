package fanout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/fanout"
)

// fakeConsumer feeds a caller-controlled sequence of records into Drain's
// sink, one at a time, under explicit control of the test.
type fakeConsumer struct {
	recordsMu sync.Mutex
	pending   []domain.LogRecord
	cond      *sync.Cond
	closed    bool
}

func newFakeConsumer() *fakeConsumer {
	c := &fakeConsumer{}
	c.cond = sync.NewCond(&c.recordsMu)
	return c
}

func (c *fakeConsumer) push(rec domain.LogRecord) {
	c.recordsMu.Lock()
	c.pending = append(c.pending, rec)
	c.cond.Broadcast()
	c.recordsMu.Unlock()
}

func (c *fakeConsumer) Drain(ctx context.Context, sink chan<- domain.LogRecord) error {
	for {
		c.recordsMu.Lock()
		for len(c.pending) == 0 && !c.closed && ctx.Err() == nil {
			c.cond.Wait()
		}
		if c.closed {
			c.recordsMu.Unlock()
			return nil
		}
		if ctx.Err() != nil {
			c.recordsMu.Unlock()
			return ctx.Err()
		}
		rec := c.pending[0]
		c.pending = c.pending[1:]
		c.recordsMu.Unlock()

		select {
		case sink <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *fakeConsumer) Close() error {
	c.recordsMu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.recordsMu.Unlock()
	return nil
}

const (
	commandsTopic = "commands"
	eventsTopic   = "events"
)

func newTestHub(consumer *fakeConsumer) *fanout.Hub {
	return fanout.New(consumer, fanout.Config{CommandsTopic: commandsTopic, EventsTopic: eventsTopic})
}

func TestSubscribeCommandsReceivesRecordsAfterSubscribe(t *testing.T) {
	consumer := newFakeConsumer()
	hub := newTestHub(consumer)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)

	sink, unsub, err := hub.SubscribeCommands(4)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	id := uuid.New()
	consumer.push(domain.LogRecord{Topic: commandsTopic, Key: id, Value: domain.RecordValue{Action: "ship"}})

	select {
	case rec := <-sink:
		if rec.Key != id {
			t.Fatalf("key = %v, want %v", rec.Key, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast record")
	}
}

func TestAwaitEventByParentDeliversMatchingEvent(t *testing.T) {
	consumer := newFakeConsumer()
	hub := newTestHub(consumer)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)

	parent := uuid.New()
	done := make(chan struct {
		ev  *domain.Event
		err error
	}, 1)

	go func() {
		ev, err := hub.AwaitEventByParent(context.Background(), parent, time.Now().Add(5*time.Second))
		done <- struct {
			ev  *domain.Event
			err error
		}{ev, err}
	}()

	time.Sleep(20 * time.Millisecond) // ensure the waiter is registered first
	eventID := uuid.New()
	consumer.push(domain.LogRecord{
		Topic: eventsTopic,
		Key:   eventID,
		Value: domain.RecordValue{Action: "shipped", Parent: &parent},
	})

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("await: %v", res.err)
		}
		if res.ev.ID != eventID {
			t.Fatalf("event id = %v, want %v", res.ev.ID, eventID)
		}
		if res.ev.Parent != parent {
			t.Fatalf("parent = %v, want %v", res.ev.Parent, parent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for await result")
	}

	if n := hub.WaiterCount(); n != 0 {
		t.Fatalf("waiter count = %d, want 0 after delivery", n)
	}
}

func TestAwaitEventByParentTimesOut(t *testing.T) {
	consumer := newFakeConsumer()
	hub := newTestHub(consumer)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)

	parent := uuid.New()
	_, err := hub.AwaitEventByParent(context.Background(), parent, time.Now().Add(50*time.Millisecond))
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if n := hub.WaiterCount(); n != 0 {
		t.Fatalf("waiter count = %d, want 0 after timeout", n)
	}
}

func TestAwaitEventByParentFirstMatchWinsOnDuplicateEvents(t *testing.T) {
	consumer := newFakeConsumer()
	hub := newTestHub(consumer)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)

	commandSink, unsub, err := hub.SubscribeEvents(8)
	if err != nil {
		t.Fatalf("subscribe events: %v", err)
	}
	defer unsub()

	parent := uuid.New()
	resultCh := make(chan *domain.Event, 1)
	go func() {
		ev, _ := hub.AwaitEventByParent(context.Background(), parent, time.Now().Add(5*time.Second))
		resultCh <- ev
	}()
	time.Sleep(20 * time.Millisecond)

	first := uuid.New()
	second := uuid.New()
	consumer.push(domain.LogRecord{Topic: eventsTopic, Key: first, Value: domain.RecordValue{Action: "shipped", Parent: &parent}})
	consumer.push(domain.LogRecord{Topic: eventsTopic, Key: second, Value: domain.RecordValue{Action: "shipped", Parent: &parent}})

	select {
	case ev := <-resultCh:
		if ev.ID != first {
			t.Fatalf("waiter satisfied by %v, want first match %v", ev.ID, first)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first match")
	}

	// The duplicate still flows through ordinary broadcast.
	seen := map[uuid.UUID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case rec := <-commandSink:
			seen[rec.Key] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for broadcast duplicates")
		}
	}
	if !seen[first] || !seen[second] {
		t.Fatalf("expected both events broadcast, got %v", seen)
	}
}

func TestShutdownCompletesPendingWaitersAsTimeout(t *testing.T) {
	consumer := newFakeConsumer()
	hub := newTestHub(consumer)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)

	parent := uuid.New()
	errCh := make(chan error, 1)
	go func() {
		_, err := hub.AwaitEventByParent(context.Background(), parent, time.Now().Add(time.Minute))
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)

	if err := hub.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected shutdown-mid-wait to report a timeout-shaped error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for shutdown to release the waiter")
	}

	if _, _, err := hub.SubscribeCommands(1); err == nil {
		t.Fatal("expected subscribe after shutdown to be rejected")
	}
}
