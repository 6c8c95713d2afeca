package config

import "github.com/couchcryptid/permit-risk-etl/internal/domain"

// Protocol family names for SourceSpec.
const (
	FamilySocrata = "socrata"
	FamilyArcGIS  = "arcgis"
	FamilyCarto   = "carto"
)

// SourceSpec describes one registered catalog: which protocol family talks
// to it, where it lives, and how its native fields map onto the canonical
// record. Adding a city is a new entry here, not new code.
type SourceSpec struct {
	Origin   string
	Family   string
	Endpoint string
	Table    string // carto only
	OrderBy  string // optional result ordering hint, native column syntax
	RowCap   int    // 0 means the configured default
	Fields   domain.FieldMap
}

// DefaultSources is the registry of catalogs ingested out of the box.
func DefaultSources() []SourceSpec {
	return []SourceSpec{
		{
			Origin:   "austin",
			Family:   FamilySocrata,
			Endpoint: "https://data.austintexas.gov/resource/3syk-w9eu.json",
			OrderBy:  "issue_date DESC",
			Fields: domain.FieldMap{
				ID:             "permit_number",
				Location:       "original_address1",
				Category:       "permit_type_desc",
				Value:          "total_job_valuation",
				Party:          "contractor_company_name",
				Date:           "issue_date",
				Status:         "status_current",
				AreaKey:        "original_zip",
				Notes:          "description",
				StatusFallback: "issued",
			},
		},
		{
			Origin:   "chicago",
			Family:   FamilySocrata,
			Endpoint: "https://data.cityofchicago.org/resource/ydr8-5enu.json",
			OrderBy:  "issue_date DESC",
			Fields: domain.FieldMap{
				ID:             "permit_",
				Location:       "street_address",
				Category:       "permit_type",
				Value:          "reported_cost",
				Party:          "contact_1_name",
				Date:           "issue_date",
				AreaKey:        "zip_code",
				Notes:          "work_description",
				StatusFallback: "issued",
			},
		},
		{
			Origin:   "nashville",
			Family:   FamilyArcGIS,
			Endpoint: "https://services2.arcgis.com/HdTo6HJqh92wn4D8/arcgis/rest/services/Building_Permits/FeatureServer/0/query",
			OrderBy:  "DATE_ISSUED DESC",
			Fields: domain.FieldMap{
				ID:               "PERMIT_NUM",
				Location:         "ADDRESS",
				Category:         "PERMIT_TYPE_DESC",
				Value:            "CONST_COST",
				Party:            "CONTRACTOR",
				Date:             "DATE_ISSUED",
				AreaKey:          "ZIP",
				Notes:            "PURPOSE",
				EpochMillisDates: true,
				StatusFallback:   "issued",
			},
		},
		{
			Origin:   "philadelphia",
			Family:   FamilyCarto,
			Endpoint: "https://phl.carto.com/api/v2/sql",
			Table:    "permits",
			OrderBy:  "permitissuedate DESC",
			Fields: domain.FieldMap{
				ID:             "permitnumber",
				Location:       "address",
				Category:       "permitdescription",
				Value:          "approvedscopeofwork_value",
				Party:          "contractorname",
				Date:           "permitissuedate",
				Status:         "status",
				AreaKey:        "zip",
				Notes:          "approvedscopeofwork",
				StatusFallback: "issued",
			},
		},
	}
}
