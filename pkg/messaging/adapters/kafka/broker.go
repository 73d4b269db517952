// Package kafka provides a messaging.Broker backed by Kafka via sarama. This
// is the only adapter in pkg/messaging that can serve as the append-only,
// strictly-ordered-per-partition log the command and event logs require;
// the other backends in the wider messaging ecosystem (NATS, SQS, ...) do
// not offer that ordering guarantee and are not wired here.
package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/chris-alexander-pop/commander-core/pkg/messaging"
)

// Config configures the Kafka broker connection.
type Config struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`

	// ClientID identifies this client to the Kafka cluster in logs/metrics.
	ClientID string `env:"KAFKA_CLIENT_ID" env-default:"commander-core"`

	// Version is the Kafka protocol version to negotiate.
	Version string `env:"KAFKA_VERSION" env-default:"3.6.0"`

	// ProducerRequiredAcks controls durability: -1 (all ISRs), 1 (leader only), 0 (none).
	ProducerRequiredAcks int16 `env:"KAFKA_PRODUCER_ACKS" env-default:"-1"`

	// ConsumerOffsetInitial controls where a new consumer group starts:
	// -2 (oldest) or -1 (newest), matching sarama's OffsetOldest/OffsetNewest.
	ConsumerOffsetInitial int64 `env:"KAFKA_CONSUMER_OFFSET_INITIAL" env-default:"-2"`
}

// Broker is a Kafka-backed messaging.Broker. It owns one shared client;
// producers and consumer groups created from it reuse that connection.
type Broker struct {
	cfg    Config
	client sarama.Client
}

// New dials the configured Kafka brokers and returns a ready-to-use Broker.
func New(cfg Config) (*Broker, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.ClientID
	saramaCfg.Producer.RequiredAcks = sarama.RequiredAcks(cfg.ProducerRequiredAcks)
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Consumer.Offsets.Initial = cfg.ConsumerOffsetInitial

	if cfg.Version != "" {
		v, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, messaging.ErrInvalidConfig("unparseable kafka version: "+cfg.Version, err)
		}
		saramaCfg.Version = v
	}

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, messaging.ErrConnectionFailed(err)
	}

	return &Broker{cfg: cfg, client: client}, nil
}

func (b *Broker) Producer(topic string) (messaging.Producer, error) {
	syncProducer, err := sarama.NewSyncProducerFromClient(b.client)
	if err != nil {
		return nil, messaging.ErrConnectionFailed(err)
	}
	return &producer{broker: b, topic: topic, producer: syncProducer}, nil
}

func (b *Broker) Consumer(topic string, group string) (messaging.Consumer, error) {
	if group == "" {
		group = b.cfg.ClientID + "-" + topic
	}
	cg, err := sarama.NewConsumerGroupFromClient(group, b.client)
	if err != nil {
		return nil, messaging.ErrConnectionFailed(err)
	}
	return &consumer{group: cg, topic: topic, groupName: group}, nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

func (b *Broker) Healthy(ctx context.Context) bool {
	controller, err := b.client.Controller()
	if err != nil || controller == nil {
		return false
	}
	connected, err := controller.Connected()
	return err == nil && connected
}
