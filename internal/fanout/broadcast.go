package fanout

import (
	"sync"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
)

// broadcastGroup is the set of subscribers to one topic. broadcast never
// blocks: a subscriber whose channel is full has its oldest queued record
// dropped to make room for the newest one.
type broadcastGroup struct {
	mu     sync.Mutex
	subs   map[uint64]chan domain.LogRecord
	nextID uint64
}

func newBroadcastGroup() *broadcastGroup {
	return &broadcastGroup{subs: make(map[uint64]chan domain.LogRecord)}
}

// subscribe registers a new sliding-buffer sink of the given capacity
// (coerced to at least 1) and returns it along with an unsubscribe handle.
// Records published before subscribe returns are never delivered.
func (g *broadcastGroup) subscribe(capacity int) (<-chan domain.LogRecord, func()) {
	if capacity <= 0 {
		capacity = 1
	}

	g.mu.Lock()
	id := g.nextID
	g.nextID++
	ch := make(chan domain.LogRecord, capacity)
	g.subs[id] = ch
	g.mu.Unlock()

	unsubscribe := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if cur, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(cur)
		}
	}
	return ch, unsubscribe
}

// broadcast delivers rec to every current subscriber without blocking.
func (g *broadcastGroup) broadcast(rec domain.LogRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ch := range g.subs {
		select {
		case ch <- rec:
			continue
		default:
		}

		// Full: drop the oldest queued record, then retry the send. Both
		// steps are non-blocking so a stuck subscriber never stalls demux.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- rec:
		default:
		}
	}
}

// closeAll severs every subscriber's channel and empties the group. Called
// once, from shutdown.
func (g *broadcastGroup) closeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, ch := range g.subs {
		close(ch)
		delete(g.subs, id)
	}
}
