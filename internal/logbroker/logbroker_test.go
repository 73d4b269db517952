package logbroker_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker/adapters/memory"
)

func TestAppendAndDrainRoundTrip(t *testing.T) {
	broker := memory.New(memory.Config{})
	defer broker.Close()

	producer, err := broker.Producer("commands")
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	defer producer.Close()

	consumer, err := broker.Consumer("commands", "")
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	defer consumer.Close()

	sink := make(chan domain.LogRecord, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- consumer.Drain(ctx, sink) }()

	time.Sleep(20 * time.Millisecond) // let the subscriber register

	id := uuid.New()
	rec := domain.LogRecord{
		Topic: "commands",
		Key:   id,
		Value: domain.RecordValue{Action: "do-thing"},
	}

	select {
	case res := <-producer.Append(ctx, rec):
		if res.Err != nil {
			t.Fatalf("append: %v", res.Err)
		}
		if res.Ack.Topic != "commands" {
			t.Fatalf("ack topic = %q, want commands", res.Ack.Topic)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for append result")
	}

	select {
	case got := <-sink:
		if got.Key != id {
			t.Fatalf("key = %v, want %v", got.Key, id)
		}
		if got.Value.Action != "do-thing" {
			t.Fatalf("action = %q, want do-thing", got.Value.Action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for drained record")
	}

	cancel()
	if err := <-done; err == nil {
		t.Fatal("expected Drain to return an error once ctx is canceled")
	}
}

func TestAppendResultChannelClosedAfterSend(t *testing.T) {
	broker := memory.New(memory.Config{})
	defer broker.Close()

	producer, err := broker.Producer("events")
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	defer producer.Close()

	ch := producer.Append(context.Background(), domain.LogRecord{
		Topic: "events",
		Key:   uuid.New(),
		Value: domain.RecordValue{Action: "noop"},
	})

	if _, ok := <-ch; !ok {
		t.Fatal("expected one result before channel closes")
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after the result")
	}
}
