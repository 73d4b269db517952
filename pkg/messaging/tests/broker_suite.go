// Package tests provides a reusable conformance suite for messaging.Broker
// implementations, run by an adapter's own test package against its own
// broker instance. The memory adapter is the only one that runs it.
package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
)

// RunBrokerTests exercises the messaging.Broker contract: publish/consume
// round-trip, batch publish, and healthy reporting. Adapters call this from
// their own _test.go file against a broker wired for their backend.
func RunBrokerTests(t *testing.T, broker messaging.Broker) {
	t.Helper()

	t.Run("publish and consume", func(t *testing.T) {
		topic := "conformance.publish-consume"

		producer, err := broker.Producer(topic)
		if err != nil {
			t.Fatalf("Producer: %v", err)
		}
		defer producer.Close()

		consumer, err := broker.Consumer(topic, "conformance-group")
		if err != nil {
			t.Fatalf("Consumer: %v", err)
		}
		defer consumer.Close()

		received := make(chan *messaging.Message, 1)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
				received <- msg
				return nil
			})
		}()

		// Give the consumer goroutine time to register its subscription
		// before the first publish, since in-process fan-out only reaches
		// subscribers that existed at publish time.
		time.Sleep(20 * time.Millisecond)

		want := &messaging.Message{Topic: topic, Payload: []byte("hello")}
		if err := producer.Publish(context.Background(), want); err != nil {
			t.Fatalf("Publish: %v", err)
		}

		select {
		case got := <-received:
			if string(got.Payload) != "hello" {
				t.Fatalf("payload = %q, want %q", got.Payload, "hello")
			}
			if got.ID == "" {
				t.Fatal("expected adapter to assign a message ID")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for message")
		}

		cancel()
		wg.Wait()
	})

	t.Run("publish batch", func(t *testing.T) {
		topic := "conformance.publish-batch"

		producer, err := broker.Producer(topic)
		if err != nil {
			t.Fatalf("Producer: %v", err)
		}
		defer producer.Close()

		consumer, err := broker.Consumer(topic, "conformance-group")
		if err != nil {
			t.Fatalf("Consumer: %v", err)
		}
		defer consumer.Close()

		const n = 5
		received := make(chan *messaging.Message, n)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
				received <- msg
				return nil
			})
		}()

		time.Sleep(20 * time.Millisecond)

		batch := make([]*messaging.Message, n)
		for i := range batch {
			batch[i] = &messaging.Message{Topic: topic, Payload: []byte("batch")}
		}
		if err := producer.PublishBatch(context.Background(), batch); err != nil {
			t.Fatalf("PublishBatch: %v", err)
		}

		for i := 0; i < n; i++ {
			select {
			case <-received:
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for message %d/%d", i+1, n)
			}
		}

		cancel()
		wg.Wait()
	})

	t.Run("healthy before close", func(t *testing.T) {
		if !broker.Healthy(context.Background()) {
			t.Fatal("expected broker to report healthy before Close")
		}
	})
}
