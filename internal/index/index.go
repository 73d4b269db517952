// Package index is the read-side of the command/event log: a paginated
// query surface over rows populated out-of-band (no indexer process lives
// in this repo — consistent with the core's non-goal on persisting
// commands/events itself).
package index

import (
	"context"

	"github.com/google/uuid"

	"github.com/chris-alexander-pop/commander-core/internal/domain"
)

// Page is a single page of a larger, offset-paginated result set.
type Page[T any] struct {
	Items  []T
	Offset int
	Limit  int
	Total  int64
}

// Reader is the read-only query surface over the indexed command/event
// history.
type Reader interface {
	ListCommands(ctx context.Context, offset, limit int) (Page[domain.Command], error)
	GetCommand(ctx context.Context, id uuid.UUID) (*domain.Command, error)
	ListEvents(ctx context.Context, offset, limit int) (Page[domain.Event], error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	Close() error
}
