package commander

import (
	"context"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/pkg/concurrency"
)

// StreamCommands subscribes sink to the hub's command broadcast group,
// projecting each LogRecord into the Command shape (spec.md §4.5). If sink
// is nil, a new sliding-buffer sink of the hub's default capacity is
// created. The returned channel is closed once ctx is done or the hub
// shuts down; the subscription is torn down automatically at that point.
func (c *Commander) StreamCommands(ctx context.Context, sink chan domain.Command) (<-chan domain.Command, error) {
	if sink == nil {
		sink = make(chan domain.Command, c.hub.DefaultStreamCapacity())
	}

	records, unsubscribe, err := c.hub.SubscribeCommands(cap(sink))
	if err != nil {
		return nil, err
	}

	projected := concurrency.Map(ctx, concurrency.OrDone(ctx, records), domain.CommandFromRecord)

	go func() {
		defer unsubscribe()
		defer close(sink)
		for cmd := range projected {
			select {
			case sink <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sink, nil
}

// StreamEvents is StreamCommands' symmetric counterpart for the event
// broadcast group; the event projection also carries parent.
func (c *Commander) StreamEvents(ctx context.Context, sink chan domain.Event) (<-chan domain.Event, error) {
	if sink == nil {
		sink = make(chan domain.Event, c.hub.DefaultStreamCapacity())
	}

	records, unsubscribe, err := c.hub.SubscribeEvents(cap(sink))
	if err != nil {
		return nil, err
	}

	projected := concurrency.Map(ctx, concurrency.OrDone(ctx, records), domain.EventFromRecord)

	go func() {
		defer unsubscribe()
		defer close(sink)
		for ev := range projected {
			select {
			case sink <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sink, nil
}
