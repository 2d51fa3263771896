//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/adapter/kafka"
	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/simulator"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testImpactTopic = "test-meteor-impacts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the duration of the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("meteor-impact-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
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
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestStrikesPublishedToKafka drives strikes through the simulator and reads
// the resulting events back from the impact topic.
func TestStrikesPublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testImpactTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaImpactTopic: testImpactTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	publisher := simulator.NewPublisher(writer, 16, 10, 100*time.Millisecond, discardLogger(), metrics)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, publisher.Run(runCtx))
	}()
	t.Cleanup(func() { stop(); <-done })

	consts := domain.DefaultConstants()
	sim := simulator.New(domain.NewModel(consts), simulator.NewConfigStore(consts, nil, ""),
		discardLogger(), metrics, simulator.WithSink(publisher))
	require.Eventually(t, func() bool { return sim.CheckReadiness(ctx) == nil }, 10*time.Second, 50*time.Millisecond)

	first, err := sim.Strike(ctx, domain.StrikeRequest{Center: &domain.LngLat{Lng: -47.88, Lat: -15.79}})
	require.NoError(t, err)
	diameter := 50.0
	second, err := sim.Strike(ctx, domain.StrikeRequest{
		Center: &domain.LngLat{Lng: 2.35, Lat: 48.85},
		Meteor: &domain.MeteorOverride{DiameterMeters: &diameter, Material: domain.MaterialIron},
	})
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testImpactTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range []domain.ImpactEvent{first, second} {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from impact topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, want.ID, string(msg.Key))
		assert.Equal(t, strconv.FormatUint(want.Sequence, 10), headers["sequence"])
		assert.Equal(t, string(want.Material), headers["material"])

		var got domain.ImpactEvent
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want.Sequence, got.Sequence)
		assert.Equal(t, want.Center, got.Center)
		assert.Len(t, got.Rings, domain.RingCount)
		assert.Equal(t, want.Render.Add[0].SourceID, got.Render.Add[0].SourceID)
	}
}
