package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DBPath string

	// Ingestion.
	FetchTimeout    time.Duration
	RowCap          int
	RefreshInterval time.Duration

	// Enrichment.
	EnrichInterval   time.Duration
	EnrichBatchSize  int
	EnrichBatchDelay time.Duration
	CensusBaseURL    string
	CensusAPIKey     string
	CensusTimeout    time.Duration

	// Optional Kafka sink for downstream consumers.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
		DBPath:    envOrDefault("DB_PATH", "data/permits.db"),

		CensusBaseURL: envOrDefault("CENSUS_BASE_URL", "https://api.census.gov/data/2023/acs/acs5"),
		CensusAPIKey:  os.Getenv("CENSUS_API_KEY"),

		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "canonical-permits"),
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationEnv("FETCH_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = durationEnv("REFRESH_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.EnrichInterval, err = durationEnv("ENRICH_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.EnrichBatchDelay, err = durationEnv("ENRICH_BATCH_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.CensusTimeout, err = durationEnv("CENSUS_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RowCap, err = intEnv("ROW_CAP", 1000); err != nil {
		return nil, err
	}
	if cfg.EnrichBatchSize, err = intEnv("ENRICH_BATCH_SIZE", 50); err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.CensusBaseURL == "" {
		return nil, errors.New("CENSUS_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
