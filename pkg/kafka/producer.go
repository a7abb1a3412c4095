package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes match outcome events
type Producer struct {
	writer messageWriter
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, cfg.Topic, logger)
}

func newProducer(writer messageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		topic:  topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) message(event *OutcomeEvent) (kafka.Message, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.TransactionID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "status", Value: []byte(event.Result.Status)},
			{Key: "region_code", Value: []byte(event.RegionCode)},
		},
	}, nil
}

// PublishOutcome publishes a single outcome event keyed by transaction id
func (p *Producer) PublishOutcome(ctx context.Context, event *OutcomeEvent) error {
	return p.PublishOutcomes(ctx, []*OutcomeEvent{event})
}

// PublishOutcomes publishes outcome events in one batch
func (p *Producer) PublishOutcomes(ctx context.Context, events []*OutcomeEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishOutcomes")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		msg, err := p.message(event)
		if err != nil {
			return err
		}
		messages[i] = msg
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, messages...)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordKafkaPublish(p.topic, "error", elapsed)
		p.logger.WithContext(ctx).WithError(err).WithField("batch_size", len(events)).Error("Failed to publish outcome events")
		return err
	}

	metrics.RecordKafkaPublish(p.topic, "ok", elapsed)
	p.logger.WithContext(ctx).WithField("batch_size", len(events)).Debug("Published outcome events")
	return nil
}
