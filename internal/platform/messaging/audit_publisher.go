// Package messaging publishes transaction audit events to Kafka. The
// audit topic is the structured log sink consumed by downstream
// reporting; payloads must be redacted before they reach Publish.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/segmentio/kafka-go"
)

// AuditEvent is one structured audit record keyed by transaction id.
type AuditEvent struct {
	TransactionID uuid.UUID      `json:"transaction_id"`
	Operation     string         `json:"operation"`
	Status        string         `json:"status"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"` // redacted upstream
	Timestamp     time.Time      `json:"timestamp"`
}

// AuditPublisher publishes audit events.
type AuditPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaAuditPublisher implements AuditPublisher on a Kafka topic.
type KafkaAuditPublisher struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewKafkaAuditPublisher creates the audit publisher and ensures the
// audit topic exists.
func NewKafkaAuditPublisher(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*KafkaAuditPublisher, error) {
	if cfg.AuditTopic == "" {
		return nil, fmt.Errorf("kafka audit topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for audit publisher: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.AuditTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure audit topic %s exists: %w", cfg.AuditTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // audit events must not block the payment path
		WriteTimeout: cfg.WriteTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write audit events asynchronously", "topic", cfg.AuditTopic, "error", err, "count", len(messages))
			}
		},
	}

	return &KafkaAuditPublisher{
		logger: logger,
		writer: writer,
		topic:  cfg.AuditTopic,
	}, nil
}

// Publish emits one audit event keyed by transaction id.
func (p *KafkaAuditPublisher) Publish(ctx context.Context, event AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TransactionID.String()),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish audit event",
			"topic", p.topic,
			"transaction_id", event.TransactionID.String(),
			"operation", event.Operation,
			"error", err,
		)
		return fmt.Errorf("failed to publish audit event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published audit event",
		"topic", p.topic,
		"transaction_id", event.TransactionID.String(),
		"operation", event.Operation,
	)
	return nil
}

func (p *KafkaAuditPublisher) Close() error {
	p.logger.Info("Closing Kafka audit publisher", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
