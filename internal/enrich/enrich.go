// Package enrich recomputes per-area risk classifications from an external
// demographic aggregate source.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
	"github.com/couchcryptid/permit-risk-etl/internal/observability"
)

// AreaKeyLister supplies the enrichment working set from the record store.
type AreaKeyLister interface {
	DistinctAreaKeys(ctx context.Context) ([]string, error)
}

// RiskWriter replaces one area's risk row. The enrichment engine is the only
// writer of risk rows.
type RiskWriter interface {
	ReplaceAreaRisk(ctx context.Context, risk domain.AreaRisk) error
}

// Engine batches area keys against the indicator source and persists the
// derived scores. Batches run sequentially: the external source expects
// pacing, and the rows share one store.
type Engine struct {
	keys      AreaKeyLister
	risks     RiskWriter
	source    domain.IndicatorSource
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
}

// New creates an enrichment engine. batchDelay paces consecutive indicator
// requests within one cycle.
func New(keys AreaKeyLister, risks RiskWriter, source domain.IndicatorSource,
	logger *slog.Logger, metrics *observability.Metrics, batchSize int, batchDelay time.Duration) *Engine {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Engine{
		keys:      keys,
		risks:     risks,
		source:    source,
		limiter:   rate.NewLimiter(rate.Every(batchDelay), 1),
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// RescoreAll runs one enrichment cycle over every distinct area key in the
// store. A batch-level transport failure is logged and that batch's keys
// keep their previous rows; it is not retried within the cycle. An area
// whose indicators are all unavailable is skipped, never downgraded to
// unscored.
func (e *Engine) RescoreAll(ctx context.Context) error {
	start := time.Now()

	keys, err := e.keys.DistinctAreaKeys(ctx)
	if err != nil {
		return fmt.Errorf("list area keys: %w", err)
	}
	if len(keys) == 0 {
		e.logger.Info("enrichment skipped, no area keys observed")
		return nil
	}

	e.logger.Info("enrichment cycle starting", "areas", len(keys), "batch_size", e.batchSize)

	scored, skipped := 0, 0
	for batchStart := 0; batchStart < len(keys); batchStart += e.batchSize {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		batch := keys[batchStart:min(batchStart+e.batchSize, len(keys))]

		rows, err := e.source.FetchIndicators(ctx, batch)
		if err != nil {
			e.logger.Error("indicator batch failed", "batch_size", len(batch), "error", err)
			e.metrics.EnrichBatchErrors.Inc()
			continue
		}

		for _, row := range rows {
			risk, ok := domain.BuildAreaRisk(row.AreaKey,
				domain.PovertyRate(row.PovertyNumerator, row.PovertyDenominator),
				row.MedianBuildYear)
			if !ok {
				skipped++
				continue
			}
			if err := e.risks.ReplaceAreaRisk(ctx, risk); err != nil {
				e.logger.Error("risk row replace failed", "area_key", row.AreaKey, "error", err)
				continue
			}
			scored++
		}
	}

	e.metrics.AreasScored.Add(float64(scored))
	e.metrics.AreasSkipped.Add(float64(skipped))
	e.metrics.EnrichDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("enrichment cycle complete", "scored", scored, "skipped", skipped,
		"duration", time.Since(start))
	return nil
}
