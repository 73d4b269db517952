// Package memory wires internal/logbroker's LogProducer/LogConsumer to the
// in-process broker from pkg/messaging/adapters/memory, for tests and
// single-process deployments that don't need a durable log.
package memory

import (
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	msgmemory "github.com/chris-alexander-pop/commander-core/pkg/messaging/adapters/memory"
)

// Config configures the in-memory broker.
type Config = msgmemory.Config

// Broker owns the in-process topic registry producers and consumers share.
type Broker struct {
	inner *msgmemory.Broker
}

// New creates a new in-memory broker.
func New(cfg Config) *Broker {
	return &Broker{inner: msgmemory.New(cfg)}
}

// Producer returns a LogProducer appending to topic.
func (b *Broker) Producer(topic string) (logbroker.LogProducer, error) {
	return logbroker.NewProducer(b.inner, topic)
}

// Consumer returns a LogConsumer draining topic as part of group.
func (b *Broker) Consumer(topic, group string) (logbroker.LogConsumer, error) {
	return logbroker.NewConsumer(b.inner, topic, group)
}

// Close shuts down the broker and all producers/consumers created from it.
func (b *Broker) Close() error {
	return b.inner.Close()
}
