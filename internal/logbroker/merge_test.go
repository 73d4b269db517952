package logbroker_test

import (
	"context"
	"testing"
	"time"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker/adapters/memory"
)

func TestMergeDrainsBothTopicsOntoOneSink(t *testing.T) {
	broker := memory.New(memory.Config{})
	defer broker.Close()

	producerA, err := broker.Producer("a")
	if err != nil {
		t.Fatalf("producer a: %v", err)
	}
	producerB, err := broker.Producer("b")
	if err != nil {
		t.Fatalf("producer b: %v", err)
	}
	consumerA, err := broker.Consumer("a", "")
	if err != nil {
		t.Fatalf("consumer a: %v", err)
	}
	consumerB, err := broker.Consumer("b", "")
	if err != nil {
		t.Fatalf("consumer b: %v", err)
	}

	merged := logbroker.Merge(consumerA, consumerB)

	ctx, cancel := context.WithCancel(context.Background())
	sink := make(chan domain.LogRecord, 4)
	drainErr := make(chan error, 1)
	go func() { drainErr <- merged.Drain(ctx, sink) }()

	idA, _ := domain.NewID()
	idB, _ := domain.NewID()
	<-producerA.Append(ctx, domain.LogRecord{Topic: "a", Key: idA, Value: domain.RecordValue{Action: "x"}, Timestamp: domain.NowMillis()})
	<-producerB.Append(ctx, domain.LogRecord{Topic: "b", Key: idB, Value: domain.RecordValue{Action: "y"}, Timestamp: domain.NowMillis()})

	seen := map[string]bool{}
	deadline := time.After(time.Second)
	for len(seen) < 2 {
		select {
		case rec := <-sink:
			seen[rec.Topic] = true
		case <-deadline:
			t.Fatalf("timed out, saw topics: %v", seen)
		}
	}

	cancel()
	if err := <-drainErr; err == nil {
		t.Fatal("expected Drain to return an error after cancellation")
	}
	if err := merged.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
