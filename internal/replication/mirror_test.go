package replication_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/replication"
	"github.com/chris-alexander-pop/commander-core/pkg/streaming"
	"github.com/chris-alexander-pop/commander-core/pkg/streaming/adapters/memory"
)

func TestMirrorCommandsWritesOneRecordPerCommand(t *testing.T) {
	client := memory.New(streaming.Config{})
	m := replication.New(client, "commands-audit", 2, 8)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := make(chan domain.Command, 2)
	m.MirrorCommands(ctx, sink)

	id, _ := domain.NewID()
	sink <- domain.Command{ID: id, Action: "ship"}
	close(sink)

	deadline := time.Now().Add(time.Second)
	for len(client.GetRecords()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	records := client.GetRecords()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].StreamName != "commands-audit" {
		t.Fatalf("stream name = %q", records[0].StreamName)
	}
	if records[0].PartitionKey != id.String() {
		t.Fatalf("partition key = %q, want %q", records[0].PartitionKey, id.String())
	}
}

func TestMirrorWithNilClientIsNoop(t *testing.T) {
	m := replication.New(nil, "ignored", 2, 8)
	ctx := context.Background()

	sink := make(chan domain.Event, 1)
	m.MirrorEvents(ctx, sink)

	parent := uuid.New()
	sink <- domain.Event{ID: uuid.New(), Parent: parent, Action: "shipped"}
	close(sink)

	if m.Failures() != 0 {
		t.Fatalf("failures = %d, want 0", m.Failures())
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
