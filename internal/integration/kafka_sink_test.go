//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/couchcryptid/rainfall-trends/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "rainfall-year-counts"

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("rainfall-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestSinkPublishesYearCounts verifies that kafka.Writer round-trips year
// counts through a real broker with the expected key, value, and headers.
func TestSinkPublishesYearCounts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	writer := kafka.NewWriter([]string{broker}, testSinkTopic, observability.NewTestLogger())
	t.Cleanup(func() { _ = writer.Close() })

	counts := []domain.YearCount{
		{Year: 2023, Count: 11},
		{Year: 2024, Count: 0},
		{Year: 2025, Count: 7},
	}
	for _, yc := range counts {
		require.NoError(t, writer.PublishYearCount(ctx, "48453", yc))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range counts {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		assert.Equal(t, fmt.Sprintf("48453:%d", want.Year), string(msg.Key))

		var got struct {
			FIPS  string `json:"fips"`
			Year  int    `json:"year"`
			Count int    `json:"count"`
		}
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, "48453", got.FIPS)
		assert.Equal(t, want.Year, got.Year)
		assert.Equal(t, want.Count, got.Count)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "48453", headers["fips"])
		_, err = time.Parse(time.RFC3339, headers["emitted_at"])
		assert.NoError(t, err, "emitted_at should be valid RFC3339")
	}
}
