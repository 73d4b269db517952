// Package kafka wires internal/logbroker's LogProducer/LogConsumer to a real
// Kafka cluster via pkg/messaging/adapters/kafka, giving the hub the
// partitioned, durable, offset-ordered log it needs.
package kafka

import (
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
	msgkafka "github.com/chris-alexander-pop/commander-core/pkg/messaging/adapters/kafka"
)

// Config is the Kafka broker connection configuration, plus the resilience
// settings wrapped around it.
type Config struct {
	msgkafka.Config
	Resilience messaging.ResilientBrokerConfig
}

// Broker owns the shared Kafka client that producers and consumers for a
// topic are created from. The client is wrapped with circuit-breaking/retry
// (pkg/messaging.ResilientBroker) and then with logging/tracing
// (pkg/messaging.InstrumentedBroker) so every append and consume the
// command/event logs make against Kafka goes through both.
type Broker struct {
	inner messaging.Broker
}

// New connects to the configured Kafka cluster.
func New(cfg Config) (*Broker, error) {
	b, err := msgkafka.New(cfg.Config)
	if err != nil {
		return nil, err
	}
	wrapped := messaging.NewInstrumentedBroker(messaging.NewResilientBroker(b, cfg.Resilience))
	return &Broker{inner: wrapped}, nil
}

// Producer returns a LogProducer appending to topic.
func (b *Broker) Producer(topic string) (logbroker.LogProducer, error) {
	return logbroker.NewProducer(b.inner, topic)
}

// Consumer returns a LogConsumer draining topic as part of group.
func (b *Broker) Consumer(topic, group string) (logbroker.LogConsumer, error) {
	return logbroker.NewConsumer(b.inner, topic, group)
}

// Close shuts down the underlying Kafka client and all producers/consumers
// created from it.
func (b *Broker) Close() error {
	return b.inner.Close()
}
