// Package kafka publishes dispatch audit records to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-skill-service/internal/config"
	"github.com/couchcryptid/weather-skill-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces dispatch records to the audit topic.
// It implements audit.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured audit topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes records in a single WriteMessages call. Records are
// keyed by request ID so retries of one request land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.DispatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write audit batch: %w", err)
	}
	w.logger.Debug("audit batch written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func serializeToMessage(rec domain.DispatchRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dispatch record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.RequestID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(rec.Kind)},
			{Key: "handled_at", Value: []byte(rec.HandledAt.Format(time.RFC3339))},
		},
	}, nil
}
