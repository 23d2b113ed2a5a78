package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"ticketholds/pkg/logger"
)

// KafkaSinkConfig contains configuration for the release topic producer
type KafkaSinkConfig struct {
	Brokers         []string
	Topic           string
	RetryMax        int
	Timeout         time.Duration
	RequiredAcks    sarama.RequiredAcks
	CompressionType sarama.CompressionCodec
}

// DefaultKafkaSinkConfig returns a default producer configuration
func DefaultKafkaSinkConfig() KafkaSinkConfig {
	return KafkaSinkConfig{
		Brokers:         []string{"localhost:9092"},
		Topic:           "ticket-releases",
		RetryMax:        3,
		Timeout:         10 * time.Second,
		RequiredAcks:    sarama.WaitForAll,
		CompressionType: sarama.CompressionSnappy,
	}
}

// KafkaSink publishes release events to a Kafka topic
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

// NewKafkaSink connects an idempotent sync producer to the brokers
func NewKafkaSink(cfg KafkaSinkConfig, log *logger.Logger) (*KafkaSink, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = cfg.RequiredAcks
	saramaConfig.Producer.Compression = cfg.CompressionType
	saramaConfig.Producer.Retry.Max = cfg.RetryMax
	saramaConfig.Producer.Timeout = cfg.Timeout
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash on ticket type so releases for one ticket type stay ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaSinkWithProducer(producer, cfg.Topic, log), nil
}

// NewKafkaSinkWithProducer wraps an existing producer
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaSink {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaSink{producer: producer, topic: topic, logger: log}
}

func (k *KafkaSink) Name() string {
	return "kafka"
}

func (k *KafkaSink) Publish(ctx context.Context, event ReleaseEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal release event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   k.createHeaders(event),
		Timestamp: event.Timestamp,
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// SendMessage only honours Producer.Timeout, so ctx is raced against it.
	// An abandoned send still completes in the background.
	result := make(chan sendResult, 1)
	go func() {
		partition, offset, err := k.producer.SendMessage(message)
		result <- sendResult{partition: partition, offset: offset, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("release event send to Kafka abandoned: %w", ctx.Err())
	case r := <-result:
		if r.err != nil {
			return fmt.Errorf("failed to send release event to Kafka: %w", r.err)
		}
		k.logger.Debug("Release event published to Kafka",
			slog.String("topic", k.topic),
			slog.Int("partition", int(r.partition)),
			slog.Int64("offset", r.offset),
			slog.String("hold_id", event.HoldID),
		)
		return nil
	}
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

func (k *KafkaSink) createHeaders(event ReleaseEvent) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte("inventory.released")},
		{Key: []byte("reason"), Value: []byte(event.Reason)},
		{Key: []byte("event_id"), Value: []byte(event.EventID)},
	}
}

func (k *KafkaSink) Close() error {
	if err := k.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
