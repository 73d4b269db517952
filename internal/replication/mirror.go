// Package replication mirrors commands and events onto an external
// streaming backend for audit purposes. It is strictly best-effort: a
// mirror failure is logged and counted, never propagated to the append
// path it shadows.
package replication

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/pkg/concurrency"
	"github.com/chris-alexander-pop/commander-core/pkg/logger"
	"github.com/chris-alexander-pop/commander-core/pkg/streaming"
)

// Mirror fans commands and events out to a streaming.Client, one record per
// append, partitioned by the record's id. It holds no state about the
// commander/fanout core and never blocks or errors their call paths: it
// only ever consumes already-published broadcast channels. Puts run on a
// bounded worker pool so one slow PutRecord call can't stall the drain loop
// reading off the broadcast channel.
type Mirror struct {
	client     streaming.Client
	streamName string
	failures   atomic.Int64
	pool       *concurrency.WorkerPool
	startOnce  sync.Once
}

// New returns a Mirror writing to streamName on client. A nil client makes
// the Mirror a no-op (used when REPLICATION_STREAM_BACKEND=none). workers
// bounds how many PutRecord calls run concurrently; queueSize bounds how
// many records may be buffered ahead of the pool before MirrorCommands/
// MirrorEvents' drain loop blocks.
func New(client streaming.Client, streamName string, workers, queueSize int) *Mirror {
	m := &Mirror{client: client, streamName: streamName}
	if client != nil {
		m.pool = concurrency.NewWorkerPool(workers, queueSize)
	}
	return m
}

// MirrorCommands drains commands and writes each as a JSON record until the
// channel closes or ctx is done. Intended to run on its own goroutine over
// a Commander.StreamCommands subscription.
func (m *Mirror) MirrorCommands(ctx context.Context, commands <-chan domain.Command) {
	if m.client == nil {
		return
	}
	m.startOnce.Do(func() { m.pool.Start(ctx) })
	concurrency.SafeGo(ctx, func() {
		for {
			select {
			case cmd, ok := <-commands:
				if !ok {
					return
				}
				m.put(ctx, cmd.ID.String(), cmd)
			case <-ctx.Done():
				return
			}
		}
	})
}

// MirrorEvents is MirrorCommands' symmetric counterpart for events.
func (m *Mirror) MirrorEvents(ctx context.Context, events <-chan domain.Event) {
	if m.client == nil {
		return
	}
	m.startOnce.Do(func() { m.pool.Start(ctx) })
	concurrency.SafeGo(ctx, func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.put(ctx, ev.ID.String(), ev)
			case <-ctx.Done():
				return
			}
		}
	})
}

func (m *Mirror) put(ctx context.Context, key string, record any) {
	data, err := json.Marshal(record)
	if err != nil {
		m.failures.Add(1)
		logger.L().ErrorContext(ctx, "replication marshal failed", "error", err)
		return
	}
	m.pool.Submit(func(ctx context.Context) {
		if err := m.client.PutRecord(ctx, m.streamName, key, data); err != nil {
			m.failures.Add(1)
			logger.L().WarnContext(ctx, "replication put failed", "error", errPutRecordFailed(err))
		}
	})
}

// Failures returns the number of mirror attempts that failed, for /metrics.
func (m *Mirror) Failures() int64 {
	return m.failures.Load()
}

// Close stops accepting new puts, waits for in-flight ones to drain, and
// releases the underlying streaming client, if any.
func (m *Mirror) Close() error {
	if m.client == nil {
		return nil
	}
	m.pool.Stop()
	return m.client.Close()
}
