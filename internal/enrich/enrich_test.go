package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
	"github.com/couchcryptid/permit-risk-etl/internal/observability"
)

type fakeLister struct {
	keys []string
	err  error
}

func (f *fakeLister) DistinctAreaKeys(context.Context) ([]string, error) {
	return f.keys, f.err
}

type fakeRiskWriter struct {
	rows map[string]domain.AreaRisk
	err  error
}

func (f *fakeRiskWriter) ReplaceAreaRisk(_ context.Context, risk domain.AreaRisk) error {
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = make(map[string]domain.AreaRisk)
	}
	f.rows[risk.AreaKey] = risk
	return nil
}

type fakeIndicatorSource struct {
	batches   [][]string
	rowsFor   func(keys []string) []domain.IndicatorRow
	failBatch int // 1-based index of the batch to fail, 0 disables
}

func (f *fakeIndicatorSource) FetchIndicators(_ context.Context, keys []string) ([]domain.IndicatorRow, error) {
	f.batches = append(f.batches, keys)
	if f.failBatch == len(f.batches) {
		return nil, errors.New("upstream timeout")
	}
	if f.rowsFor == nil {
		return nil, nil
	}
	return f.rowsFor(keys), nil
}

func ptr[T any](v T) *T { return &v }

func scoredRow(key string) domain.IndicatorRow {
	return domain.IndicatorRow{
		AreaKey:            key,
		PovertyNumerator:   ptr(200.0),
		PovertyDenominator: ptr(1000.0),
		MedianBuildYear:    ptr(1985),
	}
}

func newTestEngine(keys AreaKeyLister, risks RiskWriter, source domain.IndicatorSource, batchSize int) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(keys, risks, source, logger, observability.NewMetricsForTesting(), batchSize, time.Millisecond)
}

func TestRescoreAll_ScoresEveryArea(t *testing.T) {
	lister := &fakeLister{keys: []string{"78704", "60614"}}
	writer := &fakeRiskWriter{}
	source := &fakeIndicatorSource{rowsFor: func(keys []string) []domain.IndicatorRow {
		rows := make([]domain.IndicatorRow, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, scoredRow(k))
		}
		return rows
	}}
	engine := newTestEngine(lister, writer, source, 50)

	require.NoError(t, engine.RescoreAll(context.Background()))

	require.Len(t, writer.rows, 2)
	risk := writer.rows["78704"]
	require.NotNil(t, risk.PovertyRate)
	assert.InDelta(t, 20.0, *risk.PovertyRate, 0.001)
	assert.NotEmpty(t, risk.RiskLevel)
}

func TestRescoreAll_BatchPartitioning(t *testing.T) {
	keys := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		keys = append(keys, "60000")
	}
	source := &fakeIndicatorSource{}
	engine := newTestEngine(&fakeLister{keys: keys}, &fakeRiskWriter{}, source, 50)

	require.NoError(t, engine.RescoreAll(context.Background()))

	require.Len(t, source.batches, 3)
	assert.Len(t, source.batches[0], 50)
	assert.Len(t, source.batches[1], 50)
	assert.Len(t, source.batches[2], 20)
}

func TestRescoreAll_SkipsAreaWithNoIndicators(t *testing.T) {
	writer := &fakeRiskWriter{}
	source := &fakeIndicatorSource{rowsFor: func([]string) []domain.IndicatorRow {
		return []domain.IndicatorRow{{AreaKey: "19147"}}
	}}
	engine := newTestEngine(&fakeLister{keys: []string{"19147"}}, writer, source, 50)

	require.NoError(t, engine.RescoreAll(context.Background()))

	assert.Empty(t, writer.rows, "an area with no usable indicators keeps no row")
}

func TestRescoreAll_FailedBatchDoesNotAbortCycle(t *testing.T) {
	keys := []string{"78704", "78705", "60614", "60615"}
	writer := &fakeRiskWriter{}
	source := &fakeIndicatorSource{
		failBatch: 1,
		rowsFor: func(keys []string) []domain.IndicatorRow {
			rows := make([]domain.IndicatorRow, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, scoredRow(k))
			}
			return rows
		},
	}
	engine := newTestEngine(&fakeLister{keys: keys}, writer, source, 2)

	require.NoError(t, engine.RescoreAll(context.Background()))

	require.Len(t, source.batches, 2, "the cycle continues past the failed batch")
	assert.NotContains(t, writer.rows, "78704")
	assert.Contains(t, writer.rows, "60614")
	assert.Contains(t, writer.rows, "60615")
}

func TestRescoreAll_NoAreaKeys(t *testing.T) {
	source := &fakeIndicatorSource{}
	engine := newTestEngine(&fakeLister{}, &fakeRiskWriter{}, source, 50)

	require.NoError(t, engine.RescoreAll(context.Background()))
	assert.Empty(t, source.batches, "no indicator requests without a working set")
}

func TestRescoreAll_ListerError(t *testing.T) {
	engine := newTestEngine(&fakeLister{err: errors.New("db locked")}, &fakeRiskWriter{}, &fakeIndicatorSource{}, 50)
	assert.Error(t, engine.RescoreAll(context.Background()))
}
