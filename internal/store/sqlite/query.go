package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

const (
	// DefaultQueryLimit is applied when a caller passes no limit or an
	// invalid one.
	DefaultQueryLimit = 100
	// MaxQueryLimit is the hard result ceiling; requested limits are
	// clamped to it.
	MaxQueryLimit = 500
)

// Filter describes a conjunctive permit query. Zero values mean "no
// constraint".
type Filter struct {
	Origin           string
	CategoryContains string
	AreaKey          string
	MinValue         float64
	WithinDays       int    // event date within the last N days
	RiskFloor        string // "high" -> HIGH only, "medium" -> HIGH or MEDIUM
	Limit            int
}

// RecordWithRisk is a permit joined with its area's risk row, when scored.
type RecordWithRisk struct {
	domain.CanonicalRecord
	Risk *domain.AreaRisk `json:"risk,omitempty"`
}

// Stats summarizes the merged store for operators; persistently failing
// sources show up as stagnant per-origin counts without log crawling.
type Stats struct {
	TotalRecords    int            `json:"total_records"`
	PerOriginCounts map[string]int `json:"per_origin_counts"`
	RiskLevelCounts map[string]int `json:"risk_level_counts"`
	LastObservedAt  *time.Time     `json:"last_observed_at,omitempty"`
}

// Query returns permits matching every set filter field, joined against
// area risk, newest event first then highest value, capped at the clamped
// limit.
func (s *Store) Query(ctx context.Context, f Filter) ([]RecordWithRisk, error) {
	var conds []string
	var args []any

	if f.Origin != "" {
		conds = append(conds, "p.origin = ?")
		args = append(args, f.Origin)
	}
	if f.CategoryContains != "" {
		conds = append(conds, "p.category LIKE '%' || ? || '%'")
		args = append(args, f.CategoryContains)
	}
	if f.AreaKey != "" {
		conds = append(conds, "p.area_key = ?")
		args = append(args, f.AreaKey)
	}
	if f.MinValue > 0 {
		conds = append(conds, "p.value_estimate >= ?")
		args = append(args, f.MinValue)
	}
	if f.WithinDays > 0 {
		cutoff := domain.Now().AddDate(0, 0, -f.WithinDays).Format(time.DateOnly)
		conds = append(conds, "p.event_date != '' AND p.event_date >= ?")
		args = append(args, cutoff)
	}
	switch strings.ToLower(f.RiskFloor) {
	case "high":
		conds = append(conds, "r.risk_level = 'HIGH'")
	case "medium":
		conds = append(conds, "r.risk_level IN ('HIGH', 'MEDIUM')")
	}

	query := `
		SELECT p.id, p.origin, p.location_text, p.category, p.value_estimate,
			p.responsible_party, p.event_date, p.lifecycle_status, p.area_key,
			p.notes, p.observed_at,
			r.poverty_rate, r.median_build_year, r.crime_score, r.fire_score,
			r.risk_level, r.updated_at
		FROM permits p
		LEFT JOIN area_risk r ON r.area_key = p.area_key`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY p.event_date DESC, p.value_estimate DESC\n\t\tLIMIT ?"
	args = append(args, clampLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query permits: %w", err)
	}
	defer rows.Close()

	var results []RecordWithRisk
	for rows.Next() {
		var rec RecordWithRisk
		var observedAt string
		var povertyRate sql.NullFloat64
		var buildYear, crimeScore, fireScore sql.NullInt64
		var riskLevel, updatedAt sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Origin, &rec.LocationText, &rec.Category,
			&rec.ValueEstimate, &rec.ResponsibleParty, &rec.EventDate,
			&rec.LifecycleStatus, &rec.AreaKey, &rec.Notes, &observedAt,
			&povertyRate, &buildYear, &crimeScore, &fireScore,
			&riskLevel, &updatedAt,
		); err != nil {
			return nil, err
		}
		rec.ObservedAt = parseTime(observedAt)

		if riskLevel.Valid {
			risk := &domain.AreaRisk{
				AreaKey:    rec.AreaKey,
				CrimeScore: int(crimeScore.Int64),
				FireScore:  int(fireScore.Int64),
				RiskLevel:  domain.RiskLevel(riskLevel.String),
				UpdatedAt:  parseTime(updatedAt.String),
			}
			if povertyRate.Valid {
				risk.PovertyRate = &povertyRate.Float64
			}
			if buildYear.Valid {
				year := int(buildYear.Int64)
				risk.MedianBuildYear = &year
			}
			rec.Risk = risk
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// QueryStats aggregates record counts per origin, scored areas per risk
// level, and the most recent ingestion timestamp.
func (s *Store) QueryStats(ctx context.Context) (Stats, error) {
	stats := Stats{
		PerOriginCounts: make(map[string]int),
		RiskLevelCounts: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT origin, COUNT(*) FROM permits GROUP BY origin`)
	if err != nil {
		return Stats{}, fmt.Errorf("stats per origin: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var origin string
		var count int
		if err := rows.Scan(&origin, &count); err != nil {
			return Stats{}, err
		}
		stats.PerOriginCounts[origin] = count
		stats.TotalRecords += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	riskRows, err := s.db.QueryContext(ctx, `SELECT risk_level, COUNT(*) FROM area_risk GROUP BY risk_level`)
	if err != nil {
		return Stats{}, fmt.Errorf("stats risk levels: %w", err)
	}
	defer riskRows.Close()
	for riskRows.Next() {
		var level string
		var count int
		if err := riskRows.Scan(&level, &count); err != nil {
			return Stats{}, err
		}
		stats.RiskLevelCounts[level] = count
	}
	if err := riskRows.Err(); err != nil {
		return Stats{}, err
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(observed_at) FROM permits`).Scan(&last); err != nil {
		return Stats{}, fmt.Errorf("stats last observed: %w", err)
	}
	if last.Valid {
		t := parseTime(last.String)
		stats.LastObservedAt = &t
	}
	return stats, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
