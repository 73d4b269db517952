// Package memory provides an in-process messaging.Broker for tests and
// single-process deployments. It has no ordering guarantee across
// partitions and no persistence; use kafka for the durable, ordered log.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
	"github.com/google/uuid"
)

// Config configures the in-memory broker.
type Config struct {
	// BufferSize is the channel capacity for each topic's subscriber queue.
	// Publishing blocks once a slow subscriber's buffer is full.
	BufferSize int
}

// Broker is a goroutine-safe, in-process implementation of messaging.Broker.
// Each Consumer call registers a new subscriber channel; every published
// message fans out to all currently registered subscribers of its topic,
// matching Kafka's "one offset stream, many consumer groups" fan-out shape.
type Broker struct {
	cfg Config

	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

type topic struct {
	mu          sync.Mutex
	subscribers map[int]chan *messaging.Message
	nextID      int
}

// New creates a new in-memory broker.
func New(cfg Config) *Broker {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	return &Broker{
		cfg:    cfg,
		topics: make(map[string]*topic),
	}
}

func (b *Broker) topicFor(name string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[name]
	if !ok {
		t = &topic{subscribers: make(map[int]chan *messaging.Message)}
		b.topics[name] = t
	}
	return t
}

func (b *Broker) Producer(topicName string) (messaging.Producer, error) {
	return &producer{broker: b, topic: topicName}, nil
}

func (b *Broker) Consumer(topicName string, group string) (messaging.Consumer, error) {
	return &consumer{broker: b, topic: topicName, group: group}, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, t := range b.topics {
		t.mu.Lock()
		for id, ch := range t.subscribers {
			close(ch)
			delete(t.subscribers, id)
		}
		t.mu.Unlock()
	}
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

type producer struct {
	broker *Broker
	topic  string
}

func (p *producer) Publish(ctx context.Context, msg *messaging.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Topic == "" {
		msg.Topic = p.topic
	}

	t := p.broker.topicFor(p.topic)
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subscribers {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *producer) PublishBatch(ctx context.Context, msgs []*messaging.Message) error {
	for _, msg := range msgs {
		if err := p.Publish(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (p *producer) Close() error {
	return nil
}

type consumer struct {
	broker *Broker
	topic  string
	group  string

	mu  sync.Mutex
	ch  chan *messaging.Message
	id  int
	sub bool
}

func (c *consumer) subscribe() chan *messaging.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub {
		return c.ch
	}

	t := c.broker.topicFor(c.topic)
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan *messaging.Message, c.broker.cfg.BufferSize)
	id := t.nextID
	t.nextID++
	t.subscribers[id] = ch

	c.ch = ch
	c.id = id
	c.sub = true
	return ch
}

func (c *consumer) Consume(ctx context.Context, handler messaging.MessageHandler) error {
	ch := c.subscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return messaging.ErrClosed(nil)
			}
			if err := handler(ctx, msg); err != nil {
				return messaging.ErrConsumeFailed(err)
			}
		}
	}
}

func (c *consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sub {
		return nil
	}
	c.sub = false

	t := c.broker.topicFor(c.topic)
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.subscribers[c.id]; ok {
		delete(t.subscribers, c.id)
		close(ch)
	}
	return nil
}
