package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
)

// consumer is a Kafka consumer-group implementation of messaging.Consumer.
// Each Consume call joins the group fresh and runs until ctx is canceled or
// a handler error aborts the claim loop.
type consumer struct {
	group     sarama.ConsumerGroup
	topic     string
	groupName string
}

func (c *consumer) Consume(ctx context.Context, handler messaging.MessageHandler) error {
	h := &groupHandler{topic: c.topic, handler: handler}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return messaging.ErrConsumeFailed(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if h.handlerErr != nil {
			return messaging.ErrConsumeFailed(h.handlerErr)
		}
		// Consume returns when a rebalance happens; rejoin unless ctx is done.
	}
}

func (c *consumer) Close() error {
	return c.group.Close()
}

// groupHandler adapts messaging.MessageHandler to sarama.ConsumerGroupHandler.
type groupHandler struct {
	topic      string
	handler    messaging.MessageHandler
	handlerErr error
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			m := toMessage(msg)
			if err := h.handler(sess.Context(), m); err != nil {
				h.handlerErr = err
				return err
			}
			sess.MarkMessage(msg, "")
		}
	}
}

func toMessage(km *sarama.ConsumerMessage) *messaging.Message {
	m := &messaging.Message{
		Topic:     km.Topic,
		Key:       km.Key,
		Payload:   km.Value,
		Timestamp: km.Timestamp,
		Metadata: messaging.MessageMetadata{
			Partition: km.Partition,
			Offset:    km.Offset,
			Raw:       km,
		},
	}
	if m.Headers == nil && len(km.Headers) > 0 {
		m.Headers = make(map[string]string, len(km.Headers))
	}
	for _, h := range km.Headers {
		if string(h.Key) == "message-id" {
			m.ID = string(h.Value)
			continue
		}
		m.Headers[string(h.Key)] = string(h.Value)
	}
	return m
}
