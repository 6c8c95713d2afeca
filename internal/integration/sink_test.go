//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/permit-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/permit-risk-etl/internal/adapter/socrata"
	"github.com/couchcryptid/permit-risk-etl/internal/config"
	"github.com/couchcryptid/permit-risk-etl/internal/domain"
	"github.com/couchcryptid/permit-risk-etl/internal/observability"
	"github.com/couchcryptid/permit-risk-etl/internal/orchestrator"
	"github.com/couchcryptid/permit-risk-etl/internal/store/sqlite"
)

const testSinkTopic = "test-canonical-permits"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-broker Kafka container and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

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

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestSinkEndToEnd runs a full refresh against a fake catalog, with the store
// on disk and the sink on real Kafka, then verifies the published canonical
// records match what was committed.
func TestSinkEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"permit_number":"2026-001","original_address1":"500 E 5TH ST","permit_type_desc":"Building Permit","total_job_valuation":"125000","issue_date":"2026-08-01T00:00:00.000","status_current":"issued","original_zip":"78704"},
			{"permit_number":"2026-002","original_address1":"","permit_type_desc":"Electrical Permit","issue_date":"2026-08-02T00:00:00.000","original_zip":"78704"}
		]`)
	}))
	t.Cleanup(catalog.Close)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "permits.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	austin := config.DefaultSources()[0]
	sources := []orchestrator.Source{{
		Catalog: socrata.NewClient("austin", catalog.URL, austin.OrderBy, 100, 10*time.Second, discardLogger()),
		Fields:  austin.Fields,
	}}

	orch := orchestrator.New(sources, store, nil, writer, discardLogger(),
		observability.NewMetricsForTesting(), 10*time.Second)

	outcomes := orch.RefreshAll(ctx)
	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, 1, outcomes[0].Inserted, "record without a location is dropped")

	// The committed record is in the store.
	rec, err := store.Lookup(ctx, "austin-2026-001")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "500 E 5TH ST", rec.LocationText)

	// And on the sink topic, keyed by record ID with origin metadata.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	assert.Equal(t, "austin-2026-001", string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "austin", headers["origin"])
	_, err = time.Parse(time.RFC3339, headers["observed_at"])
	assert.NoError(t, err, "observed_at header should be valid RFC3339")

	var published domain.CanonicalRecord
	require.NoError(t, json.Unmarshal(msg.Value, &published))
	assert.Equal(t, rec.ID, published.ID)
	assert.Equal(t, "Building Permit", published.Category)
	assert.Equal(t, 125000.0, published.ValueEstimate)
	assert.Equal(t, "78704", published.AreaKey)

	// No second message: the dropped record was never published.
	shortCtx, shortCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(shortCtx)
	shortCancel()
	assert.Error(t, err, "expected exactly one message on sink topic")
}
