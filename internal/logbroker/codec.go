package logbroker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
)

// encode turns a domain.LogRecord into the generic messaging.Message the
// pkg/messaging brokers move around. The record key is carried both as the
// message ID and the partition key so adapters that key on either recover
// the same value.
func encode(rec domain.LogRecord) (*messaging.Message, error) {
	payload, err := json.Marshal(rec.Value)
	if err != nil {
		return nil, messaging.ErrSerializationFailed(err)
	}
	return &messaging.Message{
		ID:        rec.Key.String(),
		Topic:     rec.Topic,
		Key:       []byte(rec.Key.String()),
		Payload:   payload,
		Timestamp: time.UnixMilli(rec.Timestamp),
	}, nil
}

// decode reverses encode, recovering the LogRecord's key and value from a
// consumed message plus the position metadata the broker attached.
func decode(m *messaging.Message) (domain.LogRecord, error) {
	var value domain.RecordValue
	if err := json.Unmarshal(m.Payload, &value); err != nil {
		return domain.LogRecord{}, messaging.ErrSerializationFailed(err)
	}
	key, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.LogRecord{}, messaging.ErrSerializationFailed(err)
	}
	ts := m.Timestamp.UnixMilli()
	return domain.LogRecord{
		Topic:     m.Topic,
		Key:       key,
		Value:     value,
		Partition: m.Metadata.Partition,
		Offset:    m.Metadata.Offset,
		Timestamp: ts,
	}, nil
}
