// Package orchestrator drives one refresh cycle: every registered catalog is
// fetched concurrently, normalized, and upserted, with failures isolated per
// catalog; enrichment runs once after all catalogs settle.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
	"github.com/couchcryptid/permit-risk-etl/internal/observability"
)

// Source pairs a catalog client with the field mapping that translates its
// native schema.
type Source struct {
	Catalog domain.Catalog
	Fields  domain.FieldMap
}

// RecordUpserter persists one catalog's normalized batch atomically.
type RecordUpserter interface {
	UpsertBatch(ctx context.Context, records []domain.CanonicalRecord) (int, error)
}

// Enricher recomputes area risk rows from the stored working set.
type Enricher interface {
	RescoreAll(ctx context.Context) error
}

// Publisher forwards committed records to an optional downstream sink.
// Publish failures never affect the store.
type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.CanonicalRecord) error
}

// Outcome is one catalog's contribution to a refresh cycle. A failed catalog
// contributes zero inserts and is never escalated; the next scheduled cycle
// is the retry mechanism.
type Outcome struct {
	Origin   string `json:"origin"`
	Inserted int    `json:"inserted"`
	Err      error  `json:"-"`
}

// Orchestrator coordinates the registered sources against the shared store.
type Orchestrator struct {
	sources      []Source
	store        RecordUpserter
	enricher     Enricher
	publisher    Publisher // nil when the sink is disabled
	logger       *slog.Logger
	metrics      *observability.Metrics
	fetchTimeout time.Duration

	ready atomic.Bool
	mu    sync.Mutex
	last  []Outcome
}

// New creates an Orchestrator over an explicit source registry. Pass a nil
// publisher to disable the downstream sink.
func New(sources []Source, store RecordUpserter, enricher Enricher, publisher Publisher,
	logger *slog.Logger, metrics *observability.Metrics, fetchTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		sources:      sources,
		store:        store,
		enricher:     enricher,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		fetchTimeout: fetchTimeout,
	}
}

// RefreshAll runs one full ingestion cycle and then triggers enrichment
// exactly once. Catalogs run concurrently; one catalog's failure neither
// cancels its siblings nor the enrichment pass. Safe to invoke repeatedly —
// upserts make cycles idempotent.
func (o *Orchestrator) RefreshAll(ctx context.Context) []Outcome {
	runID := uuid.NewString()[:8]
	logger := o.logger.With("run_id", runID)
	start := time.Now()

	o.metrics.RefreshRunning.Set(1)
	defer o.metrics.RefreshRunning.Set(0)

	logger.Info("refresh cycle starting", "catalogs", len(o.sources))

	outcomes := make([]Outcome, len(o.sources))
	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			outcomes[i] = o.refreshOne(ctx, src, logger)
		}(i, src)
	}
	wg.Wait()

	total := 0
	for _, out := range outcomes {
		total += out.Inserted
	}

	o.mu.Lock()
	o.last = outcomes
	o.mu.Unlock()
	o.ready.Store(true)

	o.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	logger.Info("refresh cycle complete", "inserted", total, "duration", time.Since(start))

	if o.enricher != nil {
		if err := o.enricher.RescoreAll(ctx); err != nil {
			logger.Error("enrichment cycle failed", "error", err)
		}
	}
	return outcomes
}

// refreshOne runs the fetch-normalize-upsert pipeline for a single catalog.
func (o *Orchestrator) refreshOne(ctx context.Context, src Source, logger *slog.Logger) Outcome {
	origin := src.Catalog.Origin()

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	natives, err := src.Catalog.FetchBatch(fetchCtx)
	if err != nil {
		logger.Error("catalog fetch failed", "origin", origin, "error", err)
		o.metrics.FetchErrors.WithLabelValues(origin).Inc()
		return Outcome{Origin: origin, Err: err}
	}

	observedAt := domain.Now()
	records := make([]domain.CanonicalRecord, 0, len(natives))
	dropped := 0
	for _, native := range natives {
		rec, err := domain.Normalize(origin, src.Fields, native, observedAt)
		if err != nil {
			// Malformed siblings never abort the batch.
			logger.Debug("record dropped", "origin", origin, "error", err)
			dropped++
			continue
		}
		records = append(records, rec)
	}
	if dropped > 0 {
		o.metrics.RecordsDropped.WithLabelValues(origin).Add(float64(dropped))
	}

	inserted, err := o.store.UpsertBatch(ctx, records)
	if err != nil {
		logger.Error("batch upsert failed", "origin", origin, "records", len(records), "error", err)
		o.metrics.FetchErrors.WithLabelValues(origin).Inc()
		return Outcome{Origin: origin, Err: err}
	}
	o.metrics.RecordsUpserted.WithLabelValues(origin).Add(float64(inserted))

	if o.publisher != nil && inserted > 0 {
		if err := o.publisher.PublishBatch(ctx, records); err != nil {
			logger.Warn("sink publish failed", "origin", origin, "error", err)
			o.metrics.PublishErrors.Inc()
		} else {
			o.metrics.RecordsPublished.Add(float64(inserted))
		}
	}

	logger.Info("catalog refreshed", "origin", origin, "fetched", len(natives),
		"inserted", inserted, "dropped", dropped)
	return Outcome{Origin: origin, Inserted: inserted}
}

// CheckReadiness returns nil once at least one refresh cycle has completed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no refresh cycle has completed yet")
	}
	return nil
}

// LastOutcomes returns the per-catalog results of the most recent cycle.
func (o *Orchestrator) LastOutcomes() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Outcome, len(o.last))
	copy(out, o.last)
	return out
}
