// Package mysql is the MySQL-backed internal/index.Reader: the same query
// layer as postgres, a different dialect.
package mysql

import (
	"github.com/chris-alexander-pop/commander-core/internal/index"
	dbsql "github.com/chris-alexander-pop/commander-core/pkg/database/sql"
	"github.com/chris-alexander-pop/commander-core/pkg/database/sql/adapters/mysql"
)

// Config is the MySQL connection configuration.
type Config = dbsql.Config

// New connects to MySQL and returns a Reader over its commands/events
// tables.
func New(cfg Config) (index.Reader, error) {
	conn, err := mysql.New(cfg)
	if err != nil {
		return nil, err
	}
	return index.NewReader(conn), nil
}
