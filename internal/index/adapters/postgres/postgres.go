// Package postgres is the Postgres-backed internal/index.Reader: the
// primary IndexReader deployment target.
package postgres

import (
	"github.com/chris-alexander-pop/commander-core/internal/index"
	dbsql "github.com/chris-alexander-pop/commander-core/pkg/database/sql"
	"github.com/chris-alexander-pop/commander-core/pkg/database/sql/adapters/postgres"
)

// Config is the Postgres connection configuration.
type Config = dbsql.Config

// New connects to Postgres and returns a Reader over its commands/events
// tables.
func New(cfg Config) (index.Reader, error) {
	conn, err := postgres.New(cfg)
	if err != nil {
		return nil, err
	}
	return index.NewReader(conn), nil
}
