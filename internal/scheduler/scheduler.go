// Package scheduler triggers ingestion and enrichment on independent fixed
// cadences.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/permit-risk-etl/internal/orchestrator"
)

// Refresher runs one full ingestion cycle (which itself triggers enrichment).
type Refresher interface {
	RefreshAll(ctx context.Context) []orchestrator.Outcome
}

// Enricher runs one standalone enrichment cycle.
type Enricher interface {
	RescoreAll(ctx context.Context) error
}

// Scheduler owns the two timer loops. Both operations are idempotent, so a
// missed or doubled tick is harmless; ticks never overlap because each loop
// invokes its operation synchronously.
type Scheduler struct {
	refresher       Refresher
	enricher        Enricher
	refreshInterval time.Duration
	enrichInterval  time.Duration
	clock           clockwork.Clock
	logger          *slog.Logger
}

// New creates a Scheduler on the real clock.
func New(refresher Refresher, enricher Enricher, refreshInterval, enrichInterval time.Duration, logger *slog.Logger) *Scheduler {
	return NewWithClock(refresher, enricher, refreshInterval, enrichInterval, clockwork.NewRealClock(), logger)
}

// NewWithClock creates a Scheduler on an injected clock for tests.
func NewWithClock(refresher Refresher, enricher Enricher, refreshInterval, enrichInterval time.Duration,
	clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher:       refresher,
		enricher:        enricher,
		refreshInterval: refreshInterval,
		enrichInterval:  enrichInterval,
		clock:           clock,
		logger:          logger,
	}
}

// Run performs an initial refresh immediately, then ticks both cadences
// until the context is cancelled. A refresh already includes an enrichment
// pass; the separate enrichment cadence keeps risk rows current between
// the less frequent ingestion runs.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler starting",
		"refresh_interval", s.refreshInterval, "enrich_interval", s.enrichInterval)

	s.refresher.RefreshAll(ctx)

	refreshTicker := s.clock.NewTicker(s.refreshInterval)
	defer refreshTicker.Stop()
	enrichTicker := s.clock.NewTicker(s.enrichInterval)
	defer enrichTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return
		case <-refreshTicker.Chan():
			s.refresher.RefreshAll(ctx)
		case <-enrichTicker.Chan():
			if err := s.enricher.RescoreAll(ctx); err != nil {
				s.logger.Error("scheduled enrichment failed", "error", err)
			}
		}
	}
}
