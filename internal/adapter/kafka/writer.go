// Package kafka publishes finished year counts to a Kafka topic so other
// consumers can reuse aggregation results without hitting NOAA themselves.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces year-count messages to a Kafka topic.
// It implements aggregate.FrameSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the year-count topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishYearCount serializes and publishes one aggregated year for a county.
func (w *Writer) PublishYearCount(ctx context.Context, fips string, yc domain.YearCount) error {
	msg, err := serializeToMessage(fips, yc)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a YearCount into a Kafka message keyed by
// county and year so compacted topics retain the latest count per year.
func serializeToMessage(fips string, yc domain.YearCount) (kafkago.Message, error) {
	value, err := json.Marshal(struct {
		FIPS  string `json:"fips"`
		Year  int    `json:"year"`
		Count int    `json:"count"`
	}{FIPS: fips, Year: yc.Year, Count: yc.Count})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize year count: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", fips, yc.Year)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "fips", Value: []byte(fips)},
			{Key: "emitted_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
