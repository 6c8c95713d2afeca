// Package cli holds the permitd subcommands and the shared service wiring
// they run on.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/permit-risk-etl/internal/adapter/arcgis"
	"github.com/couchcryptid/permit-risk-etl/internal/adapter/carto"
	"github.com/couchcryptid/permit-risk-etl/internal/adapter/census"
	kafkaadapter "github.com/couchcryptid/permit-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/permit-risk-etl/internal/adapter/socrata"
	"github.com/couchcryptid/permit-risk-etl/internal/config"
	"github.com/couchcryptid/permit-risk-etl/internal/domain"
	"github.com/couchcryptid/permit-risk-etl/internal/enrich"
	"github.com/couchcryptid/permit-risk-etl/internal/observability"
	"github.com/couchcryptid/permit-risk-etl/internal/orchestrator"
	"github.com/couchcryptid/permit-risk-etl/internal/store/sqlite"
)

// ACS variable codes behind the poverty rate and building age indicators.
const (
	acsPovertyNumerator   = "B17001_002E" // population below poverty line
	acsPovertyDenominator = "B17001_001E" // poverty status universe
	acsMedianBuildYear    = "B25035_001E" // median year structure built
)

// app is the assembled service graph shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	store   *sqlite.Store
	orch    *orchestrator.Orchestrator
	engine  *enrich.Engine
	sink    *kafkaadapter.Writer // nil when KAFKA_ENABLED is off
}

// buildApp loads configuration and wires every component. Callers own
// shutdown via close.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sources := make([]orchestrator.Source, 0, len(config.DefaultSources()))
	for _, spec := range config.DefaultSources() {
		catalog, err := buildCatalog(spec, cfg, logger)
		if err != nil {
			store.Close() //nolint:errcheck
			return nil, err
		}
		sources = append(sources, orchestrator.Source{Catalog: catalog, Fields: spec.Fields})
	}

	indicators := census.NewClient(cfg.CensusBaseURL, cfg.CensusAPIKey,
		acsPovertyNumerator, acsPovertyDenominator, acsMedianBuildYear,
		cfg.CensusTimeout, logger)
	engine := enrich.New(store, store, indicators, logger, metrics,
		cfg.EnrichBatchSize, cfg.EnrichBatchDelay)

	var sink *kafkaadapter.Writer
	var publisher orchestrator.Publisher
	if cfg.KafkaEnabled {
		sink = kafkaadapter.NewWriter(cfg, logger)
		publisher = sink
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	orch := orchestrator.New(sources, store, engine, publisher, logger, metrics, cfg.FetchTimeout)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   store,
		orch:    orch,
		engine:  engine,
		sink:    sink,
	}, nil
}

func (a *app) close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("store close error", "error", err)
	}
}

// buildCatalog constructs the protocol client for one registered source.
func buildCatalog(spec config.SourceSpec, cfg *config.Config, logger *slog.Logger) (domain.Catalog, error) {
	rowCap := spec.RowCap
	if rowCap <= 0 {
		rowCap = cfg.RowCap
	}
	switch spec.Family {
	case config.FamilySocrata:
		return socrata.NewClient(spec.Origin, spec.Endpoint, spec.OrderBy, rowCap, cfg.FetchTimeout, logger), nil
	case config.FamilyArcGIS:
		return arcgis.NewClient(spec.Origin, spec.Endpoint, spec.OrderBy, rowCap, cfg.FetchTimeout, logger), nil
	case config.FamilyCarto:
		return carto.NewClient(spec.Origin, spec.Endpoint, spec.Table, spec.OrderBy, rowCap, cfg.FetchTimeout, logger), nil
	default:
		return nil, fmt.Errorf("source %s: unknown protocol family %q", spec.Origin, spec.Family)
	}
}
