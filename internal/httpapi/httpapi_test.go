package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris-alexander-pop/commander-core/internal/commander"
	"github.com/chris-alexander-pop/commander-core/internal/domain"
	"github.com/chris-alexander-pop/commander-core/internal/fanout"
	"github.com/chris-alexander-pop/commander-core/internal/httpapi"
	"github.com/chris-alexander-pop/commander-core/internal/index"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker/adapters/memory"
	"github.com/google/uuid"
)

const (
	commandsTopic = "commands"
	eventsTopic   = "events"
)

type stubReader struct{}

func (stubReader) ListCommands(ctx context.Context, offset, limit int) (index.Page[domain.Command], error) {
	return index.Page[domain.Command]{Offset: offset, Limit: limit}, nil
}
func (stubReader) GetCommand(ctx context.Context, id uuid.UUID) (*domain.Command, error) {
	return nil, nil
}
func (stubReader) ListEvents(ctx context.Context, offset, limit int) (index.Page[domain.Event], error) {
	return index.Page[domain.Event]{Offset: offset, Limit: limit}, nil
}
func (stubReader) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return nil, nil
}
func (stubReader) Close() error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	broker := memory.New(memory.Config{})

	commandProducer, err := broker.Producer(commandsTopic)
	if err != nil {
		t.Fatalf("command producer: %v", err)
	}
	commandConsumer, err := broker.Consumer(commandsTopic, "")
	if err != nil {
		t.Fatalf("command consumer: %v", err)
	}
	eventConsumer, err := broker.Consumer(eventsTopic, "")
	if err != nil {
		t.Fatalf("event consumer: %v", err)
	}

	hub := fanout.New(logbroker.Merge(commandConsumer, eventConsumer), fanout.Config{
		CommandsTopic: commandsTopic,
		EventsTopic:   eventsTopic,
	})
	cmd := commander.New(commandProducer, hub, stubReader{}, nil, commander.Config{
		CommandsTopic: commandsTopic,
		EventsTopic:   eventsTopic,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cmd.Start(ctx)
	time.Sleep(20 * time.Millisecond)

	srv := httpapi.New(cmd, nil, httpapi.Config{
		Addr: ":0", RateLimit: 1000, RatePeriod: time.Minute, DefaultSyncTimeoutMS: 5000,
	})
	ts := httptest.NewServer(srv)

	return ts, func() {
		ts.Close()
		cancel()
		_ = cmd.Stop()
		_ = broker.Close()
	}
}

func doRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestCreateCommandAsync(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	body, _ := json.Marshal(map[string]any{"action": "ship", "data": map[string]string{"sku": "x"}})
	resp := doRequest(t, http.MethodPost, ts.URL+"/commands", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["action"] != "ship" {
		t.Fatalf("action = %v", got["action"])
	}
}

func TestCreateCommandRejectsEmptyAction(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	resp := doRequest(t, http.MethodPost, ts.URL+"/commands", []byte(`{}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestDirectEventWriteRejected(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	resp := doRequest(t, http.MethodPost, ts.URL+"/events", []byte(`{}`))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
