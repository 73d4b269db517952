package logbroker

import (
	"context"
	"sync"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
)

// mergedConsumer drains several LogConsumers (typically one per topic, since
// adapters hand out one consumer per topic) concurrently onto a single
// sink, which is what FanoutHub expects to subscribe to.
type mergedConsumer struct {
	consumers []LogConsumer
}

// Merge composes consumers into a single LogConsumer whose Drain runs every
// underlying Drain concurrently against the same sink.
func Merge(consumers ...LogConsumer) LogConsumer {
	return &mergedConsumer{consumers: consumers}
}

func (m *mergedConsumer) Drain(ctx context.Context, sink chan<- domain.LogRecord) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(m.consumers))
	wg.Add(len(m.consumers))
	for _, c := range m.consumers {
		c := c
		go func() { defer wg.Done(); errCh <- c.Drain(ctx, sink) }()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil && ctx.Err() == nil {
			return err
		}
	}
	return ctx.Err()
}

func (m *mergedConsumer) Close() error {
	for _, c := range m.consumers {
		_ = c.Close()
	}
	return nil
}
