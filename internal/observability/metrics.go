package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and enrichment pipeline.
type Metrics struct {
	// Ingestion metrics.
	RecordsUpserted *prometheus.CounterVec // label: origin
	RecordsDropped  *prometheus.CounterVec // label: origin (malformed, skipped)
	FetchErrors     *prometheus.CounterVec // label: origin (transport/envelope failures)
	RefreshDuration prometheus.Histogram
	RefreshRunning  prometheus.Gauge

	// Enrichment metrics.
	AreasScored       prometheus.Counter
	AreasSkipped      prometheus.Counter // no usable indicators this cycle
	EnrichBatchErrors prometheus.Counter
	EnrichDuration    prometheus.Histogram

	// Sink metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "records_upserted_total",
			Help:      "Canonical records written to the store, by origin.",
		}, []string{"origin"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "records_dropped_total",
			Help:      "Native records dropped during normalization, by origin.",
		}, []string{"origin"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "fetch_errors_total",
			Help:      "Catalog fetch failures (transport or envelope), by origin.",
		}, []string{"origin"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "permit_etl",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete refresh cycle across all catalogs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "permit_etl",
			Name:      "refresh_running",
			Help:      "1 while a refresh cycle is in flight, 0 otherwise.",
		}),
		AreasScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "areas_scored_total",
			Help:      "Area risk rows replaced by enrichment cycles.",
		}),
		AreasSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "areas_skipped_total",
			Help:      "Areas left unscored in a cycle for lack of indicators.",
		}),
		EnrichBatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "enrich_batch_errors_total",
			Help:      "Indicator batches abandoned after a transport failure.",
		}),
		EnrichDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "permit_etl",
			Name:      "enrich_duration_seconds",
			Help:      "Duration of a complete enrichment cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "records_published_total",
			Help:      "Canonical records published to the Kafka sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "permit_etl",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka sink publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.RecordsUpserted,
		m.RecordsDropped,
		m.FetchErrors,
		m.RefreshDuration,
		m.RefreshRunning,
		m.AreasScored,
		m.AreasSkipped,
		m.EnrichBatchErrors,
		m.EnrichDuration,
		m.RecordsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// avoid "already registered" panics against the default registry.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsUpserted:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "permit_etl", Name: "records_upserted_total"}, []string{"origin"}),
		RecordsDropped:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "permit_etl", Name: "records_dropped_total"}, []string{"origin"}),
		FetchErrors:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "permit_etl", Name: "fetch_errors_total"}, []string{"origin"}),
		RefreshDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "permit_etl", Name: "refresh_duration_seconds"}),
		RefreshRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "permit_etl", Name: "refresh_running"}),
		AreasScored:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "permit_etl", Name: "areas_scored_total"}),
		AreasSkipped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "permit_etl", Name: "areas_skipped_total"}),
		EnrichBatchErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "permit_etl", Name: "enrich_batch_errors_total"}),
		EnrichDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "permit_etl", Name: "enrich_duration_seconds"}),
		RecordsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "permit_etl", Name: "records_published_total"}),
		PublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "permit_etl", Name: "publish_errors_total"}),
	}
}
