// Package commander is the public API of the broker core: it composes a
// LogProducer, a FanoutHub, and an IndexReader into command submission,
// synchronous wait, and listing/streaming operations.
package commander

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/fanout"
	"github.com/chris-alexander-pop/commander-core/internal/index"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	"github.com/chris-alexander-pop/commander-core/pkg/concurrency"
	"github.com/chris-alexander-pop/commander-core/pkg/logger"
)

// healthChecker is implemented by adapters that can report liveness; it's
// checked with a type assertion so Commander doesn't require every
// LogProducer/LogConsumer/Reader implementation to support it.
type healthChecker interface {
	Healthy(ctx context.Context) bool
}

// Commander is the broker's public API.
type Commander struct {
	cfg         Config
	producer    logbroker.LogProducer
	hub         *fanout.Hub
	index       index.Reader
	validator   Validator
	stats       stats
	syncLimiter *concurrency.Semaphore
}

// New composes a Commander from its collaborators. Call Start before
// submitting commands.
func New(producer logbroker.LogProducer, hub *fanout.Hub, reader index.Reader, validator Validator, cfg Config) *Commander {
	if validator == nil {
		validator = NewStructTagValidator()
	}
	c := &Commander{cfg: cfg, producer: producer, hub: hub, index: reader, validator: validator}
	if cfg.MaxConcurrentSyncWaiters > 0 {
		c.syncLimiter = concurrency.NewSemaphore(cfg.MaxConcurrentSyncWaiters)
	}
	return c
}

// Start wires the fanout hub to its consumer. Idempotent against a stopped
// instance (delegates to Hub.Start's own idempotence).
func (c *Commander) Start(ctx context.Context) {
	c.hub.Start(ctx)
}

// Stop is idempotent against an already-stopped instance.
func (c *Commander) Stop() error {
	return c.hub.Shutdown()
}

// CreateCommand submits params asynchronously: it returns as soon as the
// append is acknowledged, without waiting for any completion event.
func (c *Commander) CreateCommand(ctx context.Context, params domain.CommandParams) (domain.Command, error) {
	if err := c.validator.ValidateCommandParams(params); err != nil {
		return domain.Command{}, ErrValidationFailed(err)
	}

	id, err := domain.NewID()
	if err != nil {
		return domain.Command{}, err
	}

	rec := domain.LogRecord{
		Topic:     c.cfg.CommandsTopic,
		Key:       id,
		Value:     domain.RecordValue{Action: params.Action, Data: params.Data},
		Timestamp: domain.NowMillis(),
	}

	select {
	case res, ok := <-c.producer.Append(ctx, rec):
		if !ok {
			res.Err = logbroker.ErrProducerClosed()
		}
		if res.Err != nil {
			c.stats.appendFailures.Add(1)
			return domain.Command{}, res.Err
		}
		c.stats.commandsSubmitted.Add(1)
		return domain.Command{
			ID:        id,
			Action:    params.Action,
			Data:      params.Data,
			Timestamp: rec.Timestamp,
			Topic:     res.Ack.Topic,
			Partition: res.Ack.Partition,
			Offset:    res.Ack.Offset,
		}, nil
	case <-ctx.Done():
		return domain.Command{}, ctx.Err()
	}
}

// CreateCommandSync submits params and blocks for a correlated completion
// event, per spec.md §4.5's critical sequence:
//  1. generate id
//  2. register a correlation waiter keyed by id, before the append
//  3. append and await the ack
//  4. on append failure, unregister and propagate the error
//  5. otherwise wait for the waiter's completion event or the deadline
//  6. unregister unconditionally
//  7. on event: return the command augmented with children=[event.id]
//  8. on timeout: return the command augmented with an error string — not
//     an exception, since the command was successfully recorded.
func (c *Commander) CreateCommandSync(ctx context.Context, params domain.CommandParams, timeout time.Duration) (domain.Command, error) {
	if err := c.validator.ValidateCommandParams(params); err != nil {
		return domain.Command{}, ErrValidationFailed(err)
	}

	if c.syncLimiter != nil {
		if err := c.syncLimiter.Acquire(ctx, 1); err != nil {
			return domain.Command{}, err
		}
		defer c.syncLimiter.Release(1)
	}

	id, err := domain.NewID()
	if err != nil {
		return domain.Command{}, err
	}
	deadline := time.Now().Add(timeout)

	// Register the correlation waiter synchronously, on this goroutine,
	// before Append is ever called. Events can be produced and observed
	// before the append call returns (spec.md §4.5), so the map insert
	// must happen-before Append, not merely race it from a spawned
	// goroutine — only the blocking Wait is handed off.
	waiter, err := c.hub.Register(id)
	if err != nil {
		return domain.Command{}, err
	}

	waitCtx, waitCancel := context.WithCancel(ctx)
	defer waitCancel()

	type awaitOutcome struct {
		ev  *domain.Event
		err error
	}
	awaitCh := make(chan awaitOutcome, 1)
	go func() {
		ev, err := c.hub.Wait(waitCtx, waiter, deadline)
		awaitCh <- awaitOutcome{ev, err}
	}()

	rec := domain.LogRecord{
		Topic:     c.cfg.CommandsTopic,
		Key:       id,
		Value:     domain.RecordValue{Action: params.Action, Data: params.Data},
		Timestamp: domain.NowMillis(),
	}

	var ack domain.AppendAck
	select {
	case res, ok := <-c.producer.Append(ctx, rec):
		if !ok {
			res.Err = logbroker.ErrProducerClosed()
		}
		if res.Err != nil {
			waitCancel() // unregister the waiter before propagating the error
			<-awaitCh
			c.stats.appendFailures.Add(1)
			return domain.Command{}, res.Err
		}
		ack = res.Ack
	case <-ctx.Done():
		waitCancel()
		<-awaitCh
		return domain.Command{}, ctx.Err()
	}

	base := domain.Command{
		ID:        id,
		Action:    params.Action,
		Data:      params.Data,
		Timestamp: rec.Timestamp,
		Topic:     ack.Topic,
		Partition: ack.Partition,
		Offset:    ack.Offset,
	}

	outcome := <-awaitCh

	if outcome.err == nil {
		base.Children = []uuid.UUID{outcome.ev.ID}
		c.stats.syncCompleted.Add(1)
		return base, nil
	}

	if ctx.Err() != nil {
		// Explicit caller cancellation: report it as an operational error,
		// not as the business-outcome timeout below.
		return domain.Command{}, ctx.Err()
	}

	base.Error = "Timed out waiting for completion event."
	c.stats.syncTimeouts.Add(1)
	return base, nil
}

// ListCommands delegates to the index reader.
func (c *Commander) ListCommands(ctx context.Context, offset, limit int) (index.Page[domain.Command], error) {
	return c.index.ListCommands(ctx, offset, limit)
}

// GetCommandByID delegates to the index reader.
func (c *Commander) GetCommandByID(ctx context.Context, id uuid.UUID) (*domain.Command, error) {
	return c.index.GetCommand(ctx, id)
}

// ListEvents delegates to the index reader.
func (c *Commander) ListEvents(ctx context.Context, offset, limit int) (index.Page[domain.Event], error) {
	return c.index.ListEvents(ctx, offset, limit)
}

// GetEventByID delegates to the index reader.
func (c *Commander) GetEventByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return c.index.GetEvent(ctx, id)
}

// ValidateCommandParams exposes the validation extension point directly,
// for callers (e.g. the HTTP adapter) that want to reject bad input before
// doing anything else.
func (c *Commander) ValidateCommandParams(params domain.CommandParams) error {
	return c.validator.ValidateCommandParams(params)
}

// Health reports LogProducer/LogConsumer/IndexReader liveness, backing an
// HTTP /healthz. Collaborators that don't implement Healthy are assumed up.
func (c *Commander) Health(ctx context.Context) error {
	if c.hub.Closed() {
		return fanout.ErrHubShutdown()
	}
	if hc, ok := c.producer.(healthChecker); ok && !hc.Healthy(ctx) {
		return errUnhealthy("log producer")
	}
	if hc, ok := c.index.(healthChecker); ok && !hc.Healthy(ctx) {
		return errUnhealthy("index reader")
	}
	return nil
}

// Metrics returns a point-in-time snapshot of Commander's operational
// counters, backing a /metrics-style exposition.
func (c *Commander) Metrics() CommanderStats {
	return CommanderStats{
		CommandsSubmitted: c.stats.commandsSubmitted.Load(),
		SyncCompleted:     c.stats.syncCompleted.Load(),
		SyncTimeouts:      c.stats.syncTimeouts.Load(),
		AppendFailures:    c.stats.appendFailures.Load(),
		ActiveWaiters:     int64(c.hub.WaiterCount()),
	}
}

func errUnhealthy(component string) error {
	logger.L().Warn("health check failed", "component", component)
	return &unhealthyError{component: component}
}

type unhealthyError struct{ component string }

func (e *unhealthyError) Error() string { return e.component + " is unhealthy" }
