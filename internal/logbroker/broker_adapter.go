package logbroker

import (
	"context"
	"sync/atomic"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
)

// closedSentinel is returned on a closed/never-fulfilled Append channel,
// matching spec.md §4.1's "send response channel closed" failure.
var closedSentinel = ErrProducerClosed()

// NewProducer wraps any messaging.Broker as a LogProducer for topic. It is
// the shared implementation behind adapters/kafka and adapters/memory: the
// transport-specific work is entirely in constructing the messaging.Broker
// passed in here.
func NewProducer(broker messaging.Broker, topic string) (LogProducer, error) {
	p, err := broker.Producer(topic)
	if err != nil {
		return nil, ErrAppendFailed(err)
	}
	return &brokerProducer{producer: p, topic: topic}, nil
}

// NewConsumer wraps any messaging.Broker as a LogConsumer for topic, joining
// group for load-balanced consumption (empty group means broadcast, where
// the underlying broker supports it).
func NewConsumer(broker messaging.Broker, topic, group string) (LogConsumer, error) {
	c, err := broker.Consumer(topic, group)
	if err != nil {
		return nil, ErrConsumerFatal(err)
	}
	return &brokerConsumer{consumer: c, topic: topic}, nil
}

type brokerProducer struct {
	producer messaging.Producer
	topic    string
	offset   int64
	closed   atomic.Bool
}

func (p *brokerProducer) Append(ctx context.Context, rec domain.LogRecord) <-chan AppendResult {
	out := make(chan AppendResult, 1)

	if p.closed.Load() {
		out <- AppendResult{Err: closedSentinel}
		close(out)
		return out
	}

	msg, err := encode(rec)
	if err != nil {
		out <- AppendResult{Err: ErrAppendFailed(err)}
		close(out)
		return out
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		out <- AppendResult{Err: ErrAppendFailed(err)}
		close(out)
		return out
	}

	offset := msg.Metadata.Offset
	if offset == 0 && msg.Metadata.Partition == 0 {
		// Broker does not track offsets itself (e.g. the in-memory adapter);
		// fall back to a per-producer monotonic counter so AppendAck.Offset
		// still orders records within this process.
		offset = atomic.AddInt64(&p.offset, 1) - 1
	}

	out <- AppendResult{Ack: domain.AppendAck{
		Topic:     p.topic,
		Partition: msg.Metadata.Partition,
		Offset:    offset,
		Timestamp: msg.Timestamp.UnixMilli(),
	}}
	close(out)
	return out
}

func (p *brokerProducer) Close() error {
	p.closed.Store(true)
	return p.producer.Close()
}

type brokerConsumer struct {
	consumer messaging.Consumer
	topic    string
}

func (c *brokerConsumer) Drain(ctx context.Context, sink chan<- domain.LogRecord) error {
	return c.consumer.Consume(ctx, func(ctx context.Context, msg *messaging.Message) error {
		rec, err := decode(msg)
		if err != nil {
			return err
		}
		select {
		case sink <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func (c *brokerConsumer) Close() error {
	return c.consumer.Close()
}
