// Package logbroker adapts the generic pkg/messaging broker abstraction to
// the ordered, keyed command/event log the hub depends on: records go in
// keyed by id (for partition affinity) and come out in partition order.
package logbroker

import (
	"context"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
)

// AppendResult is delivered on the channel returned by LogProducer.Append
// once the record is durably appended (or appending has failed).
type AppendResult struct {
	Ack domain.AppendAck
	Err error
}

// LogProducer appends records to a topic. Append returns a channel that
// receives exactly one AppendResult and is closed after the result is sent.
// The pkg/messaging-backed producer (NewProducer) publishes before Append
// returns, so its channel already holds the result when the caller gets it.
type LogProducer interface {
	Append(ctx context.Context, rec domain.LogRecord) <-chan AppendResult
	Close() error
}

// LogConsumer drains a topic from its earliest retained offset, delivering
// records to sink in the order the partition assigns them. Drain blocks
// until ctx is canceled or the underlying consume loop fails fatally.
type LogConsumer interface {
	Drain(ctx context.Context, sink chan<- domain.LogRecord) error
	Close() error
}
