package index

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeConn struct {
	db *gorm.DB
}

func (f *fakeConn) Get(ctx context.Context) *gorm.DB { return f.db.WithContext(ctx) }
func (f *fakeConn) GetShard(ctx context.Context, key string) (*gorm.DB, error) {
	return f.db.WithContext(ctx), nil
}
func (f *fakeConn) Close() error { return nil }

func newTestReader(t *testing.T) Reader {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&commandRow{}, &eventRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewReader(&fakeConn{db: db})
}

func TestListAndGetCommand(t *testing.T) {
	reader := newTestReader(t)
	defer reader.Close()

	db := reader.(*gormReader).conn.Get(context.Background())

	id := uuid.New()
	children, _ := json.Marshal([]uuid.UUID{})
	row := commandRow{ID: id, Action: "create-widget", Data: []byte(`{"n":1}`), Timestamp: 1000, Topic: "commands", Children: children}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := reader.GetCommand(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCommand: %v", err)
	}
	if got.Action != "create-widget" {
		t.Fatalf("action = %q", got.Action)
	}

	page, err := reader.ListCommands(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}

	missing, err := reader.GetCommand(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetCommand for unknown id: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected a nil command for unknown id, got %+v", missing)
	}
}

func TestListAndGetEvent(t *testing.T) {
	reader := newTestReader(t)
	defer reader.Close()

	db := reader.(*gormReader).conn.Get(context.Background())

	parent := uuid.New()
	id := uuid.New()
	row := eventRow{ID: id, Parent: parent, Action: "widget-created", Data: []byte(`{}`), Timestamp: 2000, Topic: "events"}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := reader.GetEvent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got.Parent != parent {
		t.Fatalf("parent = %v, want %v", got.Parent, parent)
	}

	page, err := reader.ListEvents(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}

	missing, err := reader.GetEvent(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetEvent for unknown id: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected a nil event for unknown id, got %+v", missing)
	}
}
