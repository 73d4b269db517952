package commander_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
)

// TestParallelSynchronousCreates exercises spec.md §8 scenario 5: 1000
// synchronous creates concurrently, each completed by a matching event
// produced in reverse submission order. Every call must return with the
// correct children entry, and the hub's waiter index must end empty.
func TestParallelSynchronousCreates(t *testing.T) {
	const n = 1000

	h := newTestCommander(t)
	defer h.cleanup()

	submitted, err := h.commander.StreamCommands(context.Background(), make(chan domain.Command, n))
	require.NoError(t, err)

	var (
		collectMu sync.Mutex
		ids       = make([]uuid.UUID, 0, n)
	)
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for i := 0; i < n; i++ {
			cmd := <-submitted
			collectMu.Lock()
			ids = append(ids, cmd.ID)
			collectMu.Unlock()
		}
	}()

	type outcome struct {
		cmd domain.Command
		err error
	}
	results := make([]outcome, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			cmd, err := h.commander.CreateCommandSync(context.Background(), domain.CommandParams{Action: "ship"}, 10*time.Second)
			results[i] = outcome{cmd, err}
		}()
	}

	require.Eventually(t, func() bool {
		select {
		case <-collectDone:
			return true
		default:
			return false
		}
	}, 10*time.Second, 10*time.Millisecond, "stream did not observe all %d submitted commands", n)

	collectMu.Lock()
	idsCopy := append([]uuid.UUID(nil), ids...)
	collectMu.Unlock()

	expectedEvent := make(map[uuid.UUID]uuid.UUID, n) // parent -> event id
	for i := len(idsCopy) - 1; i >= 0; i-- {
		parent := idsCopy[i]
		eventID := uuid.New()
		expectedEvent[parent] = eventID
		ack := <-h.eventProducer.Append(context.Background(), domain.LogRecord{
			Topic:     eventsTopic,
			Key:       eventID,
			Value:     domain.RecordValue{Action: "shipped", Parent: &parent},
			Timestamp: domain.NowMillis(),
		})
		require.NoError(t, ack.Err)
	}

	wg.Wait()

	for _, res := range results {
		require.NoError(t, res.err)
		require.Empty(t, res.cmd.Error, "command %s timed out instead of completing", res.cmd.ID)
		require.Len(t, res.cmd.Children, 1)
		require.Equal(t, expectedEvent[res.cmd.ID], res.cmd.Children[0])
	}

	require.Eventually(t, func() bool {
		return h.commander.Metrics().ActiveWaiters == 0
	}, time.Second, 10*time.Millisecond, "waiter index did not drain to zero")
}
