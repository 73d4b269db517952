// Command commanderd is the broker core's entrypoint: it wires a log
// broker, a read-only index, the fanout hub, the commander, an optional
// replication mirror and the HTTP adapter into one running process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris-alexander-pop/commander-core/internal/commander"
	"github.com/chris-alexander-pop/commander-core/internal/fanout"
	"github.com/chris-alexander-pop/commander-core/internal/httpapi"
	"github.com/chris-alexander-pop/commander-core/internal/index"
	idxmysql "github.com/chris-alexander-pop/commander-core/internal/index/adapters/mysql"
	idxpostgres "github.com/chris-alexander-pop/commander-core/internal/index/adapters/postgres"
	idxsqlite "github.com/chris-alexander-pop/commander-core/internal/index/adapters/sqlite"
	"github.com/chris-alexander-pop/commander-core/internal/logbroker"
	brokerkafka "github.com/chris-alexander-pop/commander-core/internal/logbroker/adapters/kafka"
	brokermemory "github.com/chris-alexander-pop/commander-core/internal/logbroker/adapters/memory"
	"github.com/chris-alexander-pop/commander-core/internal/replication"
	"github.com/chris-alexander-pop/commander-core/pkg/config"
	"github.com/chris-alexander-pop/commander-core/pkg/database"
	dbsql "github.com/chris-alexander-pop/commander-core/pkg/database/sql"
	"github.com/chris-alexander-pop/commander-core/pkg/logger"
	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
	msgkafka "github.com/chris-alexander-pop/commander-core/pkg/messaging/adapters/kafka"
	"github.com/chris-alexander-pop/commander-core/pkg/streaming"
	streamingeventhubs "github.com/chris-alexander-pop/commander-core/pkg/streaming/adapters/eventhubs"
	streamingkinesis "github.com/chris-alexander-pop/commander-core/pkg/streaming/adapters/kinesis"
	streamingmemory "github.com/chris-alexander-pop/commander-core/pkg/streaming/adapters/memory"
	streamingpubsub "github.com/chris-alexander-pop/commander-core/pkg/streaming/adapters/pubsub"
	"github.com/chris-alexander-pop/commander-core/pkg/telemetry"
)

// Config is the process-level configuration, loaded from the environment
// (and an optional .env file) via pkg/config.
type Config struct {
	CommandsTopic            string `env:"COMMANDS_TOPIC" env-default:"commands" validate:"required"`
	EventsTopic              string `env:"EVENTS_TOPIC" env-default:"events" validate:"required"`
	SyncTimeoutMS            int    `env:"SYNC_TIMEOUT_MS" env-default:"5000"`
	MaxConcurrentSyncWaiters int64  `env:"MAX_CONCURRENT_SYNC_WAITERS" env-default:"0"`

	BrokerDriver string   `env:"BROKER_DRIVER" env-default:"memory"` // memory | kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`

	BrokerCBEnabled    bool          `env:"MSG_CB_ENABLED" env-default:"true"`
	BrokerCBThreshold  int64         `env:"MSG_CB_THRESHOLD" env-default:"5"`
	BrokerCBTimeout    time.Duration `env:"MSG_CB_TIMEOUT" env-default:"30s"`
	BrokerRetryEnabled bool          `env:"MSG_RETRY_ENABLED" env-default:"true"`
	BrokerRetryMax     int           `env:"MSG_RETRY_MAX" env-default:"3"`
	BrokerRetryBackoff time.Duration `env:"MSG_RETRY_BACKOFF" env-default:"100ms"`

	IndexDriver   string `env:"INDEX_DRIVER" env-default:"sqlite"` // postgres | mysql | sqlite
	IndexHost     string `env:"INDEX_HOST" env-default:"localhost"`
	IndexPort     string `env:"INDEX_PORT"`
	IndexUser     string `env:"INDEX_USER"`
	IndexPassword string `env:"INDEX_PASSWORD"`
	IndexName     string `env:"INDEX_NAME" env-default:"commander.db"`
	IndexSSLMode  string `env:"INDEX_SSL_MODE" env-default:"disable"`

	HTTPAddr       string        `env:"HTTP_ADDR" env-default:":8080"`
	HTTPRateLimit  int64         `env:"HTTP_RATE_LIMIT" env-default:"100"`
	HTTPRatePeriod time.Duration `env:"HTTP_RATE_PERIOD" env-default:"1m"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"INFO"`
	LogFormat string `env:"LOG_FORMAT" env-default:"JSON"`

	ReplicationStreamBackend string `env:"REPLICATION_STREAM_BACKEND" env-default:"none"` // none | memory | kinesis | pubsub | eventhubs
	ReplicationStreamName    string `env:"REPLICATION_STREAM_NAME" env-default:"commander-audit"`
	ReplicationGCPProjectID  string `env:"REPLICATION_GCP_PROJECT_ID"`
	ReplicationEventHubNS    string `env:"REPLICATION_EVENTHUB_NAMESPACE"`
	ReplicationWorkers       int    `env:"REPLICATION_WORKERS" env-default:"4"`
	ReplicationQueueSize     int    `env:"REPLICATION_QUEUE_SIZE" env-default:"256"`

	OTelEnabled  bool   `env:"OTEL_ENABLED" env-default:"false"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
}

func main() {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		panic(err)
	}

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logger.L()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.Init(telemetry.Config{ServiceName: "commanderd", Endpoint: cfg.OTelEndpoint})
		if err != nil {
			log.Error("failed to initialize telemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	producer, consumer, closeBroker, err := newBroker(cfg)
	if err != nil {
		log.Error("failed to initialize log broker", "error", err)
		os.Exit(1)
	}
	defer closeBroker()

	reader, err := newIndexReader(cfg)
	if err != nil {
		log.Error("failed to initialize index reader", "error", err)
		os.Exit(1)
	}
	defer func() { _ = reader.Close() }()

	hub := fanout.New(consumer, fanout.Config{
		CommandsTopic: cfg.CommandsTopic,
		EventsTopic:   cfg.EventsTopic,
	})

	cmd := commander.New(producer, hub, reader, nil, commander.Config{
		CommandsTopic:            cfg.CommandsTopic,
		EventsTopic:              cfg.EventsTopic,
		MaxConcurrentSyncWaiters: cfg.MaxConcurrentSyncWaiters,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Start(ctx)

	mirror, err := newReplicationMirror(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize replication mirror", "error", err)
		os.Exit(1)
	}
	if mirror != nil {
		defer mirror.Close()
		if commands, err := cmd.StreamCommands(ctx, nil); err == nil {
			mirror.MirrorCommands(ctx, commands)
		}
		if events, err := cmd.StreamEvents(ctx, nil); err == nil {
			mirror.MirrorEvents(ctx, events)
		}
	}

	server := httpapi.New(cmd, mirror, httpapi.Config{
		Addr:                 cfg.HTTPAddr,
		RateLimit:            cfg.HTTPRateLimit,
		RatePeriod:           cfg.HTTPRatePeriod,
		DefaultSyncTimeoutMS: cfg.SyncTimeoutMS,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("http server exited unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}
	if err := cmd.Stop(); err != nil {
		log.Error("commander stop error", "error", err)
	}
}

// newBroker selects the log broker backend and returns the commands-topic
// producer plus a merged consumer draining both topics into the hub.
func newBroker(cfg Config) (logbroker.LogProducer, logbroker.LogConsumer, func(), error) {
	switch cfg.BrokerDriver {
	case "kafka":
		broker, err := brokerkafka.New(brokerkafka.Config{
			Config: msgkafka.Config{Brokers: cfg.KafkaBrokers},
			Resilience: messaging.ResilientBrokerConfig{
				CircuitBreakerEnabled:   cfg.BrokerCBEnabled,
				CircuitBreakerThreshold: cfg.BrokerCBThreshold,
				CircuitBreakerTimeout:   cfg.BrokerCBTimeout,
				RetryEnabled:            cfg.BrokerRetryEnabled,
				RetryMaxAttempts:        cfg.BrokerRetryMax,
				RetryBackoff:            cfg.BrokerRetryBackoff,
			},
		})
		if err != nil {
			return nil, nil, nil, err
		}
		producer, err := broker.Producer(cfg.CommandsTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		commandConsumer, err := broker.Consumer(cfg.CommandsTopic, "")
		if err != nil {
			return nil, nil, nil, err
		}
		eventConsumer, err := broker.Consumer(cfg.EventsTopic, "")
		if err != nil {
			return nil, nil, nil, err
		}
		return producer, logbroker.Merge(commandConsumer, eventConsumer), func() { _ = broker.Close() }, nil
	default:
		broker := brokermemory.New(brokermemory.Config{})
		producer, err := broker.Producer(cfg.CommandsTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		commandConsumer, err := broker.Consumer(cfg.CommandsTopic, "")
		if err != nil {
			return nil, nil, nil, err
		}
		eventConsumer, err := broker.Consumer(cfg.EventsTopic, "")
		if err != nil {
			return nil, nil, nil, err
		}
		return producer, logbroker.Merge(commandConsumer, eventConsumer), func() { _ = broker.Close() }, nil
	}
}

func newIndexReader(cfg Config) (index.Reader, error) {
	sqlCfg := dbsql.Config{
		Host:     cfg.IndexHost,
		Port:     cfg.IndexPort,
		User:     cfg.IndexUser,
		Password: cfg.IndexPassword,
		Name:     cfg.IndexName,
		SSLMode:  cfg.IndexSSLMode,
	}
	switch cfg.IndexDriver {
	case "postgres":
		sqlCfg.Driver = database.DriverPostgres
		return idxpostgres.New(sqlCfg)
	case "mysql":
		sqlCfg.Driver = database.DriverMySQL
		return idxmysql.New(sqlCfg)
	default:
		sqlCfg.Driver = database.DriverSQLite
		return idxsqlite.New(sqlCfg)
	}
}

func newReplicationMirror(ctx context.Context, cfg Config) (*replication.Mirror, error) {
	var client streaming.Client
	switch cfg.ReplicationStreamBackend {
	case "memory":
		client = streamingmemory.New(streaming.Config{})
	case "kinesis":
		adapter, err := streamingkinesis.New(ctx)
		if err != nil {
			return nil, err
		}
		client = adapter
	case "pubsub":
		adapter, err := streamingpubsub.New(ctx, cfg.ReplicationGCPProjectID)
		if err != nil {
			return nil, err
		}
		client = adapter
	case "eventhubs":
		adapter, err := streamingeventhubs.New(cfg.ReplicationEventHubNS, cfg.ReplicationStreamName)
		if err != nil {
			return nil, err
		}
		client = adapter
	default:
		return nil, nil
	}
	return replication.New(client, cfg.ReplicationStreamName, cfg.ReplicationWorkers, cfg.ReplicationQueueSize), nil
}
