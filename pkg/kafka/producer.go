package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
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
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// withTraceHeaders adds W3C trace context headers so downstream consumers can
// join the publishing trace
func withTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	if tp := tracing.GetTraceParent(ctx); tp != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(tp)})
	}
	if ts := tracing.GetTraceState(ctx); ts != "" {
		headers = append(headers, kafka.Header{Key: "tracestate", Value: []byte(ts)})
	}
	return headers
}

// ProductEvent represents a canonical product lifecycle event
type ProductEvent struct {
	EventType string          `json:"event_type"` // product.created, product.updated
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Category  string          `json:"category"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MappingEvent represents a sku mapping lifecycle event
type MappingEvent struct {
	EventType   string    `json:"event_type"` // mapping.created, mapping.verified
	MappingID   string    `json:"mapping_id"`
	Source      string    `json:"source"`
	ExternalSKU string    `json:"external_sku"`
	CanonicalID string    `json:"canonical_id"`
	Confidence  float64   `json:"confidence"`
	Status      string    `json:"status"`
	ResolvedBy  string    `json:"resolved_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PublishProductEvent publishes a product event to Kafka
func (p *Producer) PublishProductEvent(ctx context.Context, event *ProductEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishProductEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.ProductID),
		Value: data,
		Headers: withTraceHeaders(ctx, []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "category", Value: []byte(event.Category)},
		}),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish product event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"product_id": event.ProductID,
	}).Debug("Published product event")

	return nil
}

// PublishMappingEvent publishes a mapping event to Kafka
func (p *Producer) PublishMappingEvent(ctx context.Context, event *MappingEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishMappingEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.CanonicalID),
		Value: data,
		Headers: withTraceHeaders(ctx, []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source", Value: []byte(event.Source)},
		}),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish mapping event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":   event.EventType,
		"mapping_id":   event.MappingID,
		"canonical_id": event.CanonicalID,
	}).Debug("Published mapping event")

	return nil
}
