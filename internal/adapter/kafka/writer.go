// Package kafka publishes resolution events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/agri-advisory-service/internal/config"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces resolution events to a Kafka topic.
// It implements advisory.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured resolution topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the writer as a resolution sink.
func (w *Writer) Name() string { return "kafka" }

// Record publishes a single resolution. Events of one kind share a partition.
func (w *Writer) Record(ctx context.Context, res domain.Resolution) error {
	msg, err := serializeToMessage(res)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s resolution: %w", res.Kind, err)
	}
	w.logger.Debug("resolution published", "kind", res.Kind, "request_id", res.RequestID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Resolution into a Kafka message.
func serializeToMessage(res domain.Resolution) (kafkago.Message, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize resolution: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(res.Kind),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(res.Kind)},
			{Key: "source", Value: []byte(res.Source)},
			{Key: "resolved_at", Value: []byte(res.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
