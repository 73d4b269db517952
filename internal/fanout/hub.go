// Package fanout is the concurrency nucleus of the broker: a single demux
// task consumes the broker's ordered log and routes every record to a
// command or event broadcast group and, for events, to any correlation
// waiter registered for its parent id.
package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	"github.com/chris-alexander-pop/commander-core/pkg/concurrency"
	"github.com/chris-alexander-pop/commander-core/pkg/logger"
)

// Hub owns the single consumer delivery primitive, the command/event
// broadcast groups, and the parent-id-keyed waiter index. Hub.waiters is
// touched only under Hub.waitersMu: register/remove on callers' goroutines,
// lookup-and-delete on the demux task in a single critical section, which
// is what gives "first match wins" its linearizability. Each broadcast
// group guards its own subscriber set with its own mutex; subscribe and
// unsubscribe run on callers' goroutines, publishing only on the demux task.
type Hub struct {
	cfg      Config
	consumer logbroker.LogConsumer

	records chan domain.LogRecord

	commands *broadcastGroup
	events   *broadcastGroup

	waitersMu *concurrency.SmartRWMutex
	waiters   map[uuid.UUID]chan domain.Event

	startOnce    sync.Once
	shutdownOnce sync.Once
	done         chan struct{}
	cancel       context.CancelFunc
}

// New creates a hub bound to consumer. Call Start to begin demuxing.
func New(consumer logbroker.LogConsumer, cfg Config) *Hub {
	cfg = cfg.withDefaults()
	return &Hub{
		cfg:       cfg,
		consumer:  consumer,
		records:   make(chan domain.LogRecord, cfg.DemuxChannelSize),
		commands:  newBroadcastGroup(),
		events:    newBroadcastGroup(),
		waitersMu: concurrency.NewSmartRWMutex(concurrency.MutexConfig{Name: "fanout.waiters"}),
		waiters:   make(map[uuid.UUID]chan domain.Event),
		done:      make(chan struct{}),
	}
}

// Start wires the consumer into the hub and begins the demux loop. Start is
// idempotent: calling it again on an already-started hub is a no-op.
func (h *Hub) Start(ctx context.Context) {
	h.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		h.cancel = cancel

		concurrency.SafeGo(runCtx, func() {
			err := h.consumer.Drain(runCtx, h.records)
			if err != nil && runCtx.Err() == nil {
				logger.L().ErrorContext(runCtx, "log consumer failed fatally", "error", err)
			}
			h.Shutdown()
		})

		concurrency.SafeGo(runCtx, h.demuxLoop)
	})
}

func (h *Hub) demuxLoop() {
	for {
		select {
		case rec, ok := <-h.records:
			if !ok {
				return
			}
			h.route(rec)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) route(rec domain.LogRecord) {
	switch rec.Topic {
	case h.cfg.CommandsTopic:
		h.commands.broadcast(rec)
	case h.cfg.EventsTopic:
		h.deliverToWaiter(rec)
		h.events.broadcast(rec)
	default:
		logger.L().Warn("fanout: record on unrecognized topic", "topic", rec.Topic)
	}
}

// deliverToWaiter looks up a waiter for rec's parent id and, if one is
// registered, atomically removes it and hands it the projected event. The
// same demux step both broadcasts the record and completes the waiter, so
// a matching waiter is never satisfied later than the record's broadcast.
func (h *Hub) deliverToWaiter(rec domain.LogRecord) {
	if rec.Value.Parent == nil {
		return
	}
	parentID := *rec.Value.Parent

	h.waitersMu.Lock()
	ch, ok := h.waiters[parentID]
	if ok {
		delete(h.waiters, parentID)
	}
	h.waitersMu.Unlock()

	if ok {
		ch <- domain.EventFromRecord(rec)
	}
}

// SubscribeCommands registers sink on the command broadcast group. Records
// appended before this call are never delivered.
func (h *Hub) SubscribeCommands(capacity int) (<-chan domain.LogRecord, func(), error) {
	if h.isShutdown() {
		return nil, nil, ErrHubShutdown()
	}
	ch, unsub := h.commands.subscribe(capacity)
	return ch, unsub, nil
}

// SubscribeEvents registers sink on the event broadcast group.
func (h *Hub) SubscribeEvents(capacity int) (<-chan domain.LogRecord, func(), error) {
	if h.isShutdown() {
		return nil, nil, ErrHubShutdown()
	}
	ch, unsub := h.events.subscribe(capacity)
	return ch, unsub, nil
}

// DefaultStreamCapacity is the sliding-buffer capacity used when a caller
// requests a stream without supplying a sink.
func (h *Hub) DefaultStreamCapacity() int {
	return h.cfg.DefaultStreamCapacity
}

// Waiter is a one-shot correlation waiter returned by Register. The zero
// value is not usable; obtain one from Register.
type Waiter struct {
	parentID uuid.UUID
	ch       chan domain.Event
}

// Register synchronously inserts a waiter for parentID into the hub's
// waiter map and returns it — the insert is complete before Register
// returns, on the caller's own goroutine. This is what makes
// register-before-append safe: a caller that calls Register and only then
// calls producer.Append is guaranteed the waiter is visible to
// deliverToWaiter before the append can possibly be observed by the demux
// loop, no matter how fast a downstream executor reacts. Callers that
// don't need that ordering guarantee (anything not racing an append) can
// use AwaitEventByParent instead.
func (h *Hub) Register(parentID uuid.UUID) (*Waiter, error) {
	if h.isShutdown() {
		return nil, ErrHubShutdown()
	}
	ch := newWaiterChan()
	h.waitersMu.Lock()
	h.waiters[parentID] = ch
	h.waitersMu.Unlock()
	return &Waiter{parentID: parentID, ch: ch}, nil
}

func (h *Hub) removeWaiter(parentID uuid.UUID) {
	h.waitersMu.Lock()
	delete(h.waiters, parentID)
	h.waitersMu.Unlock()
}

// Wait blocks on w until a matching event is demuxed, the deadline passes,
// ctx is canceled, or the hub shuts down. It always unregisters w before
// returning. Wait may be called from any goroutine, independent of the one
// that called Register.
//
// A deadline timeout and a hub shutdown are both reported as ErrAwaitTimeout
// — per spec.md §9's open question on shutdown-mid-wait, this core treats
// both as the same business outcome (a command that was recorded but never
// confirmed), not a distinct operational error.
func (h *Hub) Wait(ctx context.Context, w *Waiter, deadline time.Time) (*domain.Event, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case ev := <-w.ch:
		return &ev, nil
	case <-timer.C:
		h.removeWaiter(w.parentID)
		return nil, ErrAwaitTimeout()
	case <-ctx.Done():
		h.removeWaiter(w.parentID)
		return nil, ctx.Err()
	case <-h.done:
		h.removeWaiter(w.parentID)
		return nil, ErrAwaitTimeout()
	}
}

// AwaitEventByParent registers a one-shot waiter for parentID and blocks
// until a matching event is demuxed, the deadline passes, ctx is canceled,
// or the hub shuts down. It is Register followed by Wait, for callers that
// don't need the registration to happen synchronously before some other
// action (see Register's doc comment for why that distinction matters).
func (h *Hub) AwaitEventByParent(ctx context.Context, parentID uuid.UUID, deadline time.Time) (*domain.Event, error) {
	w, err := h.Register(parentID)
	if err != nil {
		return nil, err
	}
	return h.Wait(ctx, w, deadline)
}

// Shutdown is terminal: it closes every broadcast sink, drops every
// remaining waiter (as a timeout), and rejects future subscribes/awaits.
// Shutdown is idempotent.
func (h *Hub) Shutdown() error {
	h.shutdownOnce.Do(func() {
		close(h.done)
		if h.cancel != nil {
			h.cancel()
		}
		h.commands.closeAll()
		h.events.closeAll()

		h.waitersMu.Lock()
		h.waiters = make(map[uuid.UUID]chan domain.Event)
		h.waitersMu.Unlock()
	})
	return nil
}

// Closed reports whether Shutdown has been called, for health checks.
func (h *Hub) Closed() bool {
	return h.isShutdown()
}

func (h *Hub) isShutdown() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// WaiterCount reports the number of currently-registered waiters, exposed
// for tests asserting "no leaks" and for Commander.Metrics.
func (h *Hub) WaiterCount() int {
	h.waitersMu.Lock()
	defer h.waitersMu.Unlock()
	return len(h.waiters)
}
