package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "data/permits.db", cfg.DBPath)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 1000, cfg.RowCap)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.EnrichInterval)
	assert.Equal(t, 50, cfg.EnrichBatchSize)
	assert.Equal(t, time.Second, cfg.EnrichBatchDelay)
	assert.Equal(t, "https://api.census.gov/data/2023/acs/acs5", cfg.CensusBaseURL)
	assert.Empty(t, cfg.CensusAPIKey)
	assert.Equal(t, 15*time.Second, cfg.CensusTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "canonical-permits", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("DB_PATH", "/var/lib/permits/permits.db")
	t.Setenv("FETCH_TIMEOUT", "25s")
	t.Setenv("ROW_CAP", "250")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("ENRICH_INTERVAL", "12h")
	t.Setenv("ENRICH_BATCH_SIZE", "25")
	t.Setenv("ENRICH_BATCH_DELAY", "250ms")
	t.Setenv("CENSUS_BASE_URL", "https://api.census.gov/data/2021/acs/acs5")
	t.Setenv("CENSUS_API_KEY", "secret")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "permits-out")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/lib/permits/permits.db", cfg.DBPath)
	assert.Equal(t, 25*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 250, cfg.RowCap)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 12*time.Hour, cfg.EnrichInterval)
	assert.Equal(t, 25, cfg.EnrichBatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.EnrichBatchDelay)
	assert.Equal(t, "https://api.census.gov/data/2021/acs/acs5", cfg.CensusBaseURL)
	assert.Equal(t, "secret", cfg.CensusAPIKey)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "permits-out", cfg.KafkaSinkTopic)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"FETCH_TIMEOUT":     "soon",
		"REFRESH_INTERVAL":  "-1h",
		"ROW_CAP":           "zero",
		"ENRICH_BATCH_SIZE": "-50",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	require.Len(t, sources, 4)

	seen := make(map[string]bool)
	for _, src := range sources {
		assert.NotEmpty(t, src.Origin)
		assert.NotEmpty(t, src.Endpoint)
		assert.NotEmpty(t, src.Fields.Location, "%s must map a location field", src.Origin)
		assert.False(t, seen[src.Origin], "duplicate origin %s", src.Origin)
		seen[src.Origin] = true

		switch src.Family {
		case FamilySocrata, FamilyArcGIS:
		case FamilyCarto:
			assert.NotEmpty(t, src.Table)
		default:
			t.Fatalf("unknown family %q", src.Family)
		}
	}
}
