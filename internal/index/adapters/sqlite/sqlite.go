// Package sqlite is the SQLite-backed internal/index.Reader, for local
// development and tests that don't need a running database server.
package sqlite

import (
	"github.com/chris-alexander-pop/commander-core/internal/index"
	dbsql "github.com/chris-alexander-pop/commander-core/pkg/database/sql"
	"github.com/chris-alexander-pop/commander-core/pkg/database/sql/adapters/sqlite"
)

// Config is the SQLite connection configuration. Only Name (the database
// file path, or ":memory:") and the pool settings are meaningful here.
type Config = dbsql.Config

// New opens the SQLite database at cfg.Name and returns a Reader over its
// commands/events tables.
func New(cfg Config) (index.Reader, error) {
	conn, err := sqlite.New(cfg)
	if err != nil {
		return nil, err
	}
	return index.NewReader(conn), nil
}
