// Package sql defines the configuration and connection contract shared by
// the relational adapters in pkg/database/sql/adapters.
package sql

import (
	"context"
	"time"

	"github.com/chris-alexander-pop/commander-core/pkg/database"
	"gorm.io/gorm"
)

// Config configures a single relational connection. Fields not applicable to
// a driver (e.g. SSLMode for sqlite) are ignored by that driver's adapter.
type Config struct {
	Driver      database.Driver `env:"DB_DRIVER" env-default:"postgres"`
	Host        string          `env:"DB_HOST" env-default:"localhost"`
	Port        string          `env:"DB_PORT" env-default:"5432"`
	User        string          `env:"DB_USER"`
	Password    string          `env:"DB_PASSWORD"`
	Name        string          `env:"DB_NAME" env-default:"commander"`
	SSLMode     string          `env:"DB_SSL_MODE" env-default:"disable"`
	SSLRootCert string          `env:"DB_SSL_ROOT_CERT"`
	SSLCert     string          `env:"DB_SSL_CERT"`
	SSLKey      string          `env:"DB_SSL_KEY"`

	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

// SQL is the narrow contract a relational adapter exposes to the index
// package: a primary connection, an (optionally sharded) connection by key,
// and teardown. Document/KV/vector access is out of scope for this package;
// see database.DB for the broader manager contract InstrumentedManager wraps.
type SQL interface {
	Get(ctx context.Context) *gorm.DB
	GetShard(ctx context.Context, key string) (*gorm.DB, error)
	Close() error
}
