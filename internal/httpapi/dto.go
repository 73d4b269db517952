package httpapi

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/index"
)

// createCommandRequest is the POST /commands body.
type createCommandRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// commandResponse mirrors domain.Command for the wire, omitting empty
// optional fields.
type commandResponse struct {
	ID        uuid.UUID       `json:"id"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Topic     string          `json:"topic"`
	Partition int32           `json:"partition"`
	Offset    int64           `json:"offset"`
	Children  []uuid.UUID     `json:"children,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func commandToResponse(c domain.Command) commandResponse {
	return commandResponse{
		ID: c.ID, Action: c.Action, Data: c.Data, Timestamp: c.Timestamp,
		Topic: c.Topic, Partition: c.Partition, Offset: c.Offset,
		Children: c.Children, Error: c.Error,
	}
}

// eventResponse mirrors domain.Event for the wire.
type eventResponse struct {
	ID        uuid.UUID       `json:"id"`
	Parent    uuid.UUID       `json:"parent"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Topic     string          `json:"topic"`
	Partition int32           `json:"partition"`
	Offset    int64           `json:"offset"`
}

func eventToResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID: e.ID, Parent: e.Parent, Action: e.Action, Data: e.Data,
		Timestamp: e.Timestamp, Topic: e.Topic, Partition: e.Partition, Offset: e.Offset,
	}
}

// pageResponse is the wire shape for a paginated index.Page.
type pageResponse[T any] struct {
	Items  []T   `json:"items"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Total  int64 `json:"total"`
}

func commandsPageToResponse(p index.Page[domain.Command]) pageResponse[commandResponse] {
	items := make([]commandResponse, len(p.Items))
	for i, c := range p.Items {
		items[i] = commandToResponse(c)
	}
	return pageResponse[commandResponse]{Items: items, Offset: p.Offset, Limit: p.Limit, Total: p.Total}
}

func eventsPageToResponse(p index.Page[domain.Event]) pageResponse[eventResponse] {
	items := make([]eventResponse, len(p.Items))
	for i, e := range p.Items {
		items[i] = eventToResponse(e)
	}
	return pageResponse[eventResponse]{Items: items, Offset: p.Offset, Limit: p.Limit, Total: p.Total}
}

// errorResponse is the wire shape for a rejected request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// metricsResponse mirrors commander.CommanderStats plus the replication
// mirror's own failure counter.
type metricsResponse struct {
	CommandsSubmitted  int64 `json:"commands_submitted"`
	SyncCompleted      int64 `json:"sync_completed"`
	SyncTimeouts       int64 `json:"sync_timeouts"`
	AppendFailures     int64 `json:"append_failures"`
	ActiveWaiters      int64 `json:"active_waiters"`
	ReplicationFailure int64 `json:"replication_failures"`
}
