// Package domain defines the wire-level and API-level shapes shared by the
// command/event broker core: commands, events, log records, and the
// append-acknowledgement a producer returns.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CommandParams is the caller-supplied request to perform an action. The id
// is generated by the API, never by the caller.
type CommandParams struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Command is a durable, keyed record requesting an action. ID is a
// time-ordered UUID so listing by ID approximates ingestion order even
// without consulting the broker offset.
type Command struct {
	ID        uuid.UUID   `json:"id"`
	Action    string      `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Topic     string      `json:"topic"`
	Partition int32       `json:"partition"`
	Offset    int64       `json:"offset"`
	Children  []uuid.UUID `json:"children,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Event is a durable, keyed record reporting an outcome. Parent references
// the command (or prior event) that triggered it.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Parent    uuid.UUID       `json:"parent"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Topic     string          `json:"topic"`
	Partition int32           `json:"partition"`
	Offset    int64           `json:"offset"`
}

// RecordValue is the broker-carried payload for a command or event record.
// Parent is nil for commands and set for events.
type RecordValue struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
	Parent *uuid.UUID      `json:"parent,omitempty"`
}

// LogRecord is the broker-shaped envelope the hub demultiplexes: a keyed
// value plus its position in the log.
type LogRecord struct {
	Topic     string
	Key       uuid.UUID
	Value     RecordValue
	Partition int32
	Offset    int64
	Timestamp int64
}

// AppendAck is returned by a LogProducer once a record is durably appended.
type AppendAck struct {
	Topic     string
	Partition int32
	Offset    int64
	Timestamp int64
}

// NewID returns a time-ordered UUID (v1) suitable for Command.ID / Event.ID.
// v1 rather than the teacher's usual v4 (see pkg/messaging's uuid.New()
// calls) because spec.md requires listing-by-id to approximate ingestion
// order without consulting the broker offset.
func NewID() (uuid.UUID, error) {
	return uuid.NewUUID()
}

// NowMillis returns the current time as epoch milliseconds, the timestamp
// unit Command/Event/LogRecord all use.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
