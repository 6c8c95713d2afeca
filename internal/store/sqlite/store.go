// Package sqlite persists canonical permit records and per-area risk rows.
//
// Permit rows are owned by the ingestion side and written replace-on-conflict
// in one transaction per catalog batch; area_risk rows are owned exclusively
// by the enrichment engine. WAL mode keeps reads from blocking behind the
// single writer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

// Store wraps the SQLite handle behind the operations the pipeline needs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. The parent directory is created when missing.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertBatch writes one catalog's normalized records in a single
// transaction: either every record in the batch commits or none do.
// Replacing an existing ID overwrites all fields, ObservedAt included.
// Returns the number of rows written.
func (s *Store) UpsertBatch(ctx context.Context, records []domain.CanonicalRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO permits (id, origin, location_text, category, value_estimate,
			responsible_party, event_date, lifecycle_status, area_key, notes, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			origin = excluded.origin,
			location_text = excluded.location_text,
			category = excluded.category,
			value_estimate = excluded.value_estimate,
			responsible_party = excluded.responsible_party,
			event_date = excluded.event_date,
			lifecycle_status = excluded.lifecycle_status,
			area_key = excluded.area_key,
			notes = excluded.notes,
			observed_at = excluded.observed_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, rec := range records {
		// Persisted rows always carry an ID and a location.
		if rec.ID == "" || rec.LocationText == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Origin, rec.LocationText, rec.Category, rec.ValueEstimate,
			rec.ResponsibleParty, rec.EventDate, rec.LifecycleStatus, rec.AreaKey,
			rec.Notes, formatTime(rec.ObservedAt),
		); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", rec.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return written, nil
}

// Lookup fetches one record by ID, or nil when absent.
func (s *Store) Lookup(ctx context.Context, id string) (*domain.CanonicalRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, origin, location_text, category, value_estimate, responsible_party,
			event_date, lifecycle_status, area_key, notes, observed_at
		FROM permits WHERE id = ?`, id)

	var rec domain.CanonicalRecord
	var observedAt string
	err := row.Scan(&rec.ID, &rec.Origin, &rec.LocationText, &rec.Category,
		&rec.ValueEstimate, &rec.ResponsibleParty, &rec.EventDate,
		&rec.LifecycleStatus, &rec.AreaKey, &rec.Notes, &observedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.ObservedAt = parseTime(observedAt)
	return &rec, nil
}

// DistinctAreaKeys returns the enrichment working set: every distinct
// 5-character area key present on any record. Empty and malformed keys are
// excluded; keys no record carries are never enriched.
func (s *Store) DistinctAreaKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT area_key FROM permits
		WHERE length(area_key) = 5
		ORDER BY area_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// ReplaceAreaRisk replaces the risk row for one area wholesale.
func (s *Store) ReplaceAreaRisk(ctx context.Context, risk domain.AreaRisk) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO area_risk (area_key, poverty_rate, median_build_year,
			crime_score, fire_score, risk_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(area_key) DO UPDATE SET
			poverty_rate = excluded.poverty_rate,
			median_build_year = excluded.median_build_year,
			crime_score = excluded.crime_score,
			fire_score = excluded.fire_score,
			risk_level = excluded.risk_level,
			updated_at = excluded.updated_at`,
		risk.AreaKey, risk.PovertyRate, risk.MedianBuildYear,
		risk.CrimeScore, risk.FireScore, string(risk.RiskLevel),
		formatTime(risk.UpdatedAt),
	)
	return err
}

// AreaRisk fetches the risk row for one area key, or nil when unscored.
func (s *Store) AreaRisk(ctx context.Context, areaKey string) (*domain.AreaRisk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT area_key, poverty_rate, median_build_year, crime_score,
			fire_score, risk_level, updated_at
		FROM area_risk WHERE area_key = ?`, areaKey)

	var risk domain.AreaRisk
	var povertyRate sql.NullFloat64
	var buildYear sql.NullInt64
	var updatedAt string
	err := row.Scan(&risk.AreaKey, &povertyRate, &buildYear,
		&risk.CrimeScore, &risk.FireScore, &risk.RiskLevel, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if povertyRate.Valid {
		risk.PovertyRate = &povertyRate.Float64
	}
	if buildYear.Valid {
		year := int(buildYear.Int64)
		risk.MedianBuildYear = &year
	}
	risk.UpdatedAt = parseTime(updatedAt)
	return &risk, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
