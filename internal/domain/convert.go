package domain

import "github.com/google/uuid"

// CommandFromRecord projects a commands-topic LogRecord into the API-level
// Command shape the hub's command subscribers and Commander.streamCommands
// deliver.
func CommandFromRecord(rec LogRecord) Command {
	return Command{
		ID:        rec.Key,
		Action:    rec.Value.Action,
		Data:      rec.Value.Data,
		Timestamp: rec.Timestamp,
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
	}
}

// EventFromRecord projects an events-topic LogRecord into the API-level
// Event shape, carrying the parent reference used for correlation.
func EventFromRecord(rec LogRecord) Event {
	var parent uuid.UUID
	if rec.Value.Parent != nil {
		parent = *rec.Value.Parent
	}
	return Event{
		ID:        rec.Key,
		Parent:    parent,
		Action:    rec.Value.Action,
		Data:      rec.Value.Data,
		Timestamp: rec.Timestamp,
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
	}
}
