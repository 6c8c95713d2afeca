package domain

import "time"

// CanonicalRecord is the unified permit entity stored regardless of which
// municipal catalog produced it.
type CanonicalRecord struct {
	ID               string    `json:"id"`
	Origin           string    `json:"origin"`
	LocationText     string    `json:"location"`
	Category         string    `json:"category,omitempty"`
	ValueEstimate    float64   `json:"value_estimate"`
	ResponsibleParty string    `json:"responsible_party,omitempty"`
	EventDate        string    `json:"event_date,omitempty"` // ISO date (2006-01-02), empty when unknown
	LifecycleStatus  string    `json:"status,omitempty"`
	AreaKey          string    `json:"area_key,omitempty"` // 5-digit postal code, empty when unknown
	Notes            string    `json:"notes,omitempty"`
	ObservedAt       time.Time `json:"observed_at"`
}

// RiskLevel classifies a postal area's derived risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// AreaRisk holds the derived risk classification for one postal area.
// Rows are replaced wholesale each enrichment cycle; an area with no signal
// this cycle keeps its previous row.
type AreaRisk struct {
	AreaKey         string    `json:"area_key"`
	PovertyRate     *float64  `json:"poverty_rate,omitempty"` // percent, 0-100
	MedianBuildYear *int      `json:"median_build_year,omitempty"`
	CrimeScore      int       `json:"crime_score"` // 1-10
	FireScore       int       `json:"fire_score"`  // 1-10
	RiskLevel       RiskLevel `json:"risk_level"`
	UpdatedAt       time.Time `json:"updated_at"`
}
