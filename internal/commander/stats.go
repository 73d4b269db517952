package commander

import "sync/atomic"

// CommanderStats is an in-memory counter snapshot backing a /metrics-style
// exposition. No external metrics SDK survived in the retained pack (see
// DESIGN.md), so this is a plain struct rather than a Prometheus registry.
type CommanderStats struct {
	CommandsSubmitted int64
	SyncCompleted     int64
	SyncTimeouts      int64
	AppendFailures    int64
	ActiveWaiters     int64
}

type stats struct {
	commandsSubmitted atomic.Int64
	syncCompleted     atomic.Int64
	syncTimeouts      atomic.Int64
	appendFailures    atomic.Int64
}
