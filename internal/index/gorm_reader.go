package index

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	dbsql "github.com/chris-alexander-pop/commander-core/pkg/database/sql"
	"github.com/chris-alexander-pop/commander-core/pkg/errors"
)

// commandRow is the GORM model backing the commands table. It mirrors
// domain.Command with column types a relational store can index and sort
// on; Data is stored as raw JSON text.
type commandRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action    string    `gorm:"index"`
	Data      []byte
	Timestamp int64 `gorm:"index"`
	Topic     string
	Partition int32
	Offset    int64
	Children  []byte `gorm:"column:children"` // JSON-encoded []uuid.UUID
	Error     string
}

func (commandRow) TableName() string { return "commands" }

// eventRow is the GORM model backing the events table.
type eventRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Parent    uuid.UUID `gorm:"type:uuid;index"`
	Action    string    `gorm:"index"`
	Data      []byte
	Timestamp int64 `gorm:"index"`
	Topic     string
	Partition int32
	Offset    int64
}

func (eventRow) TableName() string { return "events" }

// gormReader implements Reader over any relational store pkg/database/sql
// has an adapter for.
type gormReader struct {
	conn dbsql.SQL
}

// NewReader wraps an already-connected relational store as a Reader. Each
// adapter package (postgres/mysql/sqlite) calls this after dialing its own
// driver-specific connection.
func NewReader(conn dbsql.SQL) Reader {
	return &gormReader{conn: conn}
}

func (r *gormReader) ListCommands(ctx context.Context, offset, limit int) (Page[domain.Command], error) {
	db := r.conn.Get(ctx)

	var total int64
	if err := db.Model(&commandRow{}).Count(&total).Error; err != nil {
		return Page[domain.Command]{}, errors.Wrap(err, "counting commands")
	}

	var rows []commandRow
	if err := db.Order("timestamp ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return Page[domain.Command]{}, errors.Wrap(err, "listing commands")
	}

	items := make([]domain.Command, len(rows))
	for i, row := range rows {
		items[i] = commandFromRow(row)
	}

	return Page[domain.Command]{Items: items, Offset: offset, Limit: limit, Total: total}, nil
}

func (r *gormReader) GetCommand(ctx context.Context, id uuid.UUID) (*domain.Command, error) {
	var row commandRow
	err := r.conn.Get(ctx).First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting command")
	}
	cmd := commandFromRow(row)
	return &cmd, nil
}

func (r *gormReader) ListEvents(ctx context.Context, offset, limit int) (Page[domain.Event], error) {
	db := r.conn.Get(ctx)

	var total int64
	if err := db.Model(&eventRow{}).Count(&total).Error; err != nil {
		return Page[domain.Event]{}, errors.Wrap(err, "counting events")
	}

	var rows []eventRow
	if err := db.Order("timestamp ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return Page[domain.Event]{}, errors.Wrap(err, "listing events")
	}

	items := make([]domain.Event, len(rows))
	for i, row := range rows {
		items[i] = eventFromRow(row)
	}

	return Page[domain.Event]{Items: items, Offset: offset, Limit: limit, Total: total}, nil
}

func (r *gormReader) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var row eventRow
	err := r.conn.Get(ctx).First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting event")
	}
	ev := eventFromRow(row)
	return &ev, nil
}

func (r *gormReader) Close() error {
	return r.conn.Close()
}

func commandFromRow(row commandRow) domain.Command {
	var children []uuid.UUID
	if len(row.Children) > 0 {
		_ = json.Unmarshal(row.Children, &children)
	}
	return domain.Command{
		ID:        row.ID,
		Action:    row.Action,
		Data:      json.RawMessage(row.Data),
		Timestamp: row.Timestamp,
		Topic:     row.Topic,
		Partition: row.Partition,
		Offset:    row.Offset,
		Children:  children,
		Error:     row.Error,
	}
}

func eventFromRow(row eventRow) domain.Event {
	return domain.Event{
		ID:        row.ID,
		Parent:    row.Parent,
		Action:    row.Action,
		Data:      json.RawMessage(row.Data),
		Timestamp: row.Timestamp,
		Topic:     row.Topic,
		Partition: row.Partition,
		Offset:    row.Offset,
	}
}
