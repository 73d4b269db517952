// Package database provides a driver-agnostic connection manager for the
// relational adapters under pkg/database/sql/adapters.
package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/chris-alexander-pop/commander-core/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Driver identifies a supported relational backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// DB is the connection manager contract each adapter implements. GetDocument,
// GetKV and GetVector are kept for parity with deployments that pair a
// relational index with document, key-value or vector stores behind the same
// manager; the sql adapters in this tree return nil for them.
type DB interface {
	Get(ctx context.Context) *gorm.DB
	GetShard(ctx context.Context, key string) (*gorm.DB, error)
	GetDocument(ctx context.Context) interface{}
	GetKV(ctx context.Context) interface{}
	GetVector(ctx context.Context) interface{}
	Close() error
}

// NewGORMLogger adapts the global slog logger to GORM's logger.Interface so
// query logs flow through the same handler chain (trace correlation,
// sampling, redaction) as the rest of the service.
func NewGORMLogger() gormlogger.Interface {
	return gormlogger.New(
		slogWriter{},
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	logger.L().Warn(fmt.Sprintf(format, args...))
}

// LoadTLSConfig builds a tls.Config for drivers that accept one directly
// (mysql) rather than a DSN sslmode parameter (postgres, sqlite). It returns
// nil when sslMode requests no verification.
func LoadTLSConfig(sslMode, rootCert, cert, key string) (*tls.Config, error) {
	switch sslMode {
	case "", "disable", "false":
		return nil, nil
	}

	cfg := &tls.Config{}

	if rootCert != "" {
		pem, err := os.ReadFile(rootCert)
		if err != nil {
			return nil, fmt.Errorf("reading ssl root cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("failed to parse ssl root cert %s", rootCert)
		}
		cfg.RootCAs = pool
	}

	if sslMode == "skip-verify" {
		cfg.InsecureSkipVerify = true
	}

	if cert != "" && key != "" {
		pair, err := tls.LoadX509KeyPair(cert, key)
		if err != nil {
			return nil, fmt.Errorf("loading client cert/key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	if cfg.RootCAs == nil && !cfg.InsecureSkipVerify && len(cfg.Certificates) == 0 {
		return nil, nil
	}

	return cfg, nil
}
