//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-normalizer/internal/adapter/kafka"
	"github.com/couchcryptid/weather-normalizer/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-normalizer/internal/config"
	"github.com/couchcryptid/weather-normalizer/internal/domain"
	"github.com/couchcryptid/weather-normalizer/internal/observability"
	"github.com/couchcryptid/weather-normalizer/internal/pipeline"
	"github.com/couchcryptid/weather-normalizer/internal/reader"
)

const (
	testSourceTopic = "test-ingest"
	testSinkTopic   = "test-records"
)

// recordMessage holds a deserialized message read from the sink topic.
type recordMessage struct {
	Record  kafka.RecordMessage
	Key     string
	Headers map[string]string
}

// readRecord reads a single message from the sink consumer and deserializes it.
func readRecord(ctx context.Context, t *testing.T, consumer *kafkago.Reader) recordMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec kafka.RecordMessage
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal sink message")

	return recordMessage{Record: rec, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer(metrics *observability.Metrics) *pipeline.WeatherTransformer {
	opts := reader.Options{Logger: discardLogger()}
	return pipeline.NewTransformer(
		reader.NewDispatcher(opts, metrics),
		reader.NewAssembler(opts, domain.DefaultRanges),
		metrics, discardLogger(),
	)
}

func newSinkConsumer(broker string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
}

func ingestMessage(t *testing.T, key string, req domain.IngestRequest) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(key), Value: payload}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) round-trip an ingest request and its records through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	path := writeTableFixture(t, 3)
	msg := ingestMessage(t, "GVA", domain.IngestRequest{Station: "GVA", Path: path, Format: "csv"})

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msg))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	extractor := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = extractor.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = extractor.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("GVA"), raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	metrics := observability.NewMetricsForTesting()
	nt, err := newTransformer(metrics).Transform(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, 3, nt.Table.Len())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.NormalizedTable{nt}))

	consumer := newSinkConsumer(broker)
	t.Cleanup(func() { _ = consumer.Close() })

	first := readRecord(ctx, t, consumer)
	assert.Equal(t, "GVA|2017-01-01T00:00:00Z", first.Key)
	assert.Equal(t, "GVA", first.Headers["station"])
	assert.Equal(t, "csv", first.Headers["format"])
	assert.Equal(t, nt.RunID, first.Headers["run_id"])
	_, err = time.Parse(time.RFC3339, first.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "GVA", first.Record.Station)
	assert.Equal(t, 1, first.Record.Month)
	require.NotNil(t, first.Record.TDB)
	assert.InDelta(t, nt.Table.Records[0].TDB, *first.Record.TDB, 1e-9)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer
// and SQLite) with real Kafka and verifies every hourly record is published.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	const hours = 48
	path := writeTableFixture(t, hours)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		ingestMessage(t, "GVA", domain.IngestRequest{Station: "GVA", Path: path, Format: "csv"}),
	))

	extractor := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = extractor.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	store, err := sqlite.Open(":memory:", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(extractor, newTransformer(metrics), pipeline.MultiLoader{writer, store}, discardLogger(), metrics, 10)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(broker)
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]recordMessage, 0, hours)
	for len(received) < hours {
		received = append(received, readRecord(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	keys := make(map[string]bool, hours)
	for _, rm := range received {
		assert.False(t, keys[rm.Key], "duplicate key %s", rm.Key)
		keys[rm.Key] = true
		assert.Equal(t, "GVA", rm.Record.Station)
		assert.NotNil(t, rm.Record.TDB, "tdb present at %s", rm.Key)
	}
	assert.True(t, keys["GVA|2017-01-02T23:00:00Z"], "last hour published")

	stored, err := store.Records(ctx, "GVA")
	require.NoError(t, err)
	assert.Equal(t, hours, stored.Len())
	require.NoError(t, p.CheckReadiness(ctx))
}

// TestPipelineTransformError verifies that an invalid request (poison pill) is
// skipped and the pipeline continues processing valid requests.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	path := writeTableFixture(t, 1)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		ingestMessage(t, "ghost", domain.IngestRequest{Station: "ZRH", Path: "/nonexistent/ZRH.epw"}),
		ingestMessage(t, "GVA", domain.IngestRequest{Station: "GVA", Path: path, Format: "csv"}),
	))

	extractor := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = extractor.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(extractor, newTransformer(metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(broker)
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readRecord(ctx, t, consumer)
	assert.Equal(t, "GVA", rm.Record.Station)

	// Verify no second message arrives (both bad requests were skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
