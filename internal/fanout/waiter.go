package fanout

import "github.com/chris-alexander-pop/commander-core/internal/domain"

// newWaiterChan returns a one-shot, buffered result channel: buffered so
// the demux task's delivery send never blocks even if the awaiting
// goroutine has already moved on (timeout or cancellation raced delivery).
func newWaiterChan() chan domain.Event {
	return make(chan domain.Event, 1)
}
