// Package kafka mirrors normalized reach records onto a Kafka topic for
// downstream consumers that want the flat records without querying the
// feature service.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/reach-data-etl/internal/export"
)

// Publisher produces one message per feature record.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the records topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishRecords serializes and publishes the records in a single
// WriteMessages call. Messages are keyed by reach identifier so repeated
// runs of the same data land on the same partitions.
func (p *Publisher) PublishRecords(ctx context.Context, records []export.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], now)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a feature record into a Kafka message.
func serializeToMessage(rec export.Record, publishedAt string) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}

	var key []byte
	if id, ok := rec.Attributes["reach_id"].(int64); ok {
		key = []byte(strconv.FormatInt(id, 10))
	}
	return kafkago.Message{
		Key:   key,
		Value: data,
		Headers: []kafkago.Header{
			{Key: "published_at", Value: []byte(publishedAt)},
		},
	}, nil
}
