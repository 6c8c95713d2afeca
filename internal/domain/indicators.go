package domain

import "context"

// IndicatorRow carries the demographic aggregates returned for one area key.
// A nil pointer means the source had no usable value for that indicator.
type IndicatorRow struct {
	AreaKey            string
	PovertyNumerator   *float64
	PovertyDenominator *float64
	MedianBuildYear    *int
}

// IndicatorSource fetches demographic aggregates for a batch of area keys.
type IndicatorSource interface {
	FetchIndicators(ctx context.Context, areaKeys []string) ([]IndicatorRow, error)
}
