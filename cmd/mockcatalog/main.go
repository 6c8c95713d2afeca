// Command mockcatalog serves deterministic synthetic permit data in every
// upstream wire format the service ingests: a Socrata-style flat array, an
// ArcGIS-style feature envelope, a CARTO-style rows envelope, and an
// ACS-style indicator table. Point the source registry and CENSUS_BASE_URL
// at it for local development without touching live municipal endpoints.
//
// Usage:
//
//	go run ./cmd/mockcatalog -addr :9090 -rows 200 -seed 1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var baseDate = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

var (
	categories = []string{"Building Permit", "Electrical Permit", "Plumbing Permit", "Demolition Permit", "Mechanical Permit"}
	streets    = []string{"ELM ST", "OAK AVE", "LAKE DR", "MAIN ST", "5TH AVE", "PINE RD"}
	statuses   = []string{"issued", "active", "final", "expired"}
	zips       = []string{"78704", "78705", "60614", "60622", "37203", "19147"}
)

type permit struct {
	id       string
	address  string
	category string
	value    float64
	party    string
	issued   time.Time
	status   string
	zip      string
	notes    string
}

// generate produces a reproducible permit set for one origin.
func generate(origin string, n int, seed int64) []permit {
	rng := rand.New(rand.NewSource(seed + int64(len(origin))))
	permits := make([]permit, n)
	for i := range permits {
		permits[i] = permit{
			id:       fmt.Sprintf("%s-2026-%05d", strings.ToUpper(origin[:2]), i+1),
			address:  fmt.Sprintf("%d %s", 100+rng.Intn(9900), streets[rng.Intn(len(streets))]),
			category: categories[rng.Intn(len(categories))],
			value:    float64(rng.Intn(500)) * 1000,
			party:    fmt.Sprintf("Contractor %c LLC", 'A'+rng.Intn(26)),
			issued:   baseDate.AddDate(0, 0, -rng.Intn(90)),
			status:   statuses[rng.Intn(len(statuses))],
			zip:      zips[rng.Intn(len(zips))],
			notes:    "synthetic fixture record",
		}
	}
	return permits
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	rows := flag.Int("rows", 200, "permits per catalog")
	seed := flag.Int64("seed", 1, "rng seed for reproducible fixtures")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/socrata/permits.json", socrataHandler(generate("austin", *rows, *seed)))
	mux.HandleFunc("/arcgis/query", arcgisHandler(generate("nashville", *rows, *seed)))
	mux.HandleFunc("/carto/api/v2/sql", cartoHandler(generate("philadelphia", *rows, *seed)))
	mux.HandleFunc("/census/data", censusHandler())

	log.Printf("mockcatalog listening on %s (%d rows per catalog, seed %d)", *addr, *rows, *seed)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func socrataHandler(permits []permit) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := limitParam(r, "$limit", len(permits))
		out := make([]map[string]any, 0, limit)
		for _, p := range permits[:limit] {
			out = append(out, map[string]any{
				"permit_number":           p.id,
				"original_address1":       p.address,
				"permit_type_desc":        p.category,
				"total_job_valuation":     strconv.FormatFloat(p.value, 'f', 2, 64),
				"contractor_company_name": p.party,
				"issue_date":              p.issued.Format("2006-01-02T15:04:05.000"),
				"status_current":          p.status,
				"original_zip":            p.zip,
				"description":             p.notes,
			})
		}
		writeJSON(w, out)
	}
}

func arcgisHandler(permits []permit) http.HandlerFunc {
	type feature struct {
		Attributes map[string]any `json:"attributes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit := limitParam(r, "resultRecordCount", len(permits))
		features := make([]feature, 0, limit)
		for _, p := range permits[:limit] {
			features = append(features, feature{Attributes: map[string]any{
				"PERMIT_NUM":       p.id,
				"ADDRESS":          p.address,
				"PERMIT_TYPE_DESC": p.category,
				"CONST_COST":       p.value,
				"CONTRACTOR":       p.party,
				"DATE_ISSUED":      p.issued.UnixMilli(),
				"ZIP":              p.zip,
				"PURPOSE":          p.notes,
			}})
		}
		writeJSON(w, map[string]any{"features": features})
	}
}

func cartoHandler(permits []permit) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := len(permits)
		// The query arrives as "SELECT * FROM permits ... LIMIT n".
		if q := r.URL.Query().Get("q"); q != "" {
			if idx := strings.LastIndex(q, "LIMIT "); idx >= 0 {
				if n, err := strconv.Atoi(strings.TrimSpace(q[idx+6:])); err == nil && n < limit {
					limit = n
				}
			}
		}
		rows := make([]map[string]any, 0, limit)
		for _, p := range permits[:limit] {
			rows = append(rows, map[string]any{
				"permitnumber":              p.id,
				"address":                   p.address,
				"permitdescription":         p.category,
				"approvedscopeofwork_value": p.value,
				"contractorname":            p.party,
				"permitissuedate":           p.issued.Format("2006-01-02T15:04:05"),
				"status":                    p.status,
				"zip":                       p.zip,
				"approvedscopeofwork":       p.notes,
			})
		}
		writeJSON(w, map[string]any{"rows": rows, "total_rows": limit})
	}
}

// censusHandler emits the array-of-arrays indicator table, header row first.
// Indicator values derive from a hash of the area key so repeated fetches
// agree.
func censusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forParam := r.URL.Query().Get("for")
		keys := strings.Split(strings.TrimPrefix(forParam, "zip code tabulation area:"), ",")

		out := [][]*string{
			{sp("B17001_002E"), sp("B17001_001E"), sp("B25035_001E"), sp("zip code tabulation area")},
		}
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			h := fnv.New32a()
			h.Write([]byte(key))
			v := h.Sum32()
			poor := 500 + v%4000
			universe := uint32(20000)
			year := 1940 + v%80
			out = append(out, []*string{
				sp(strconv.Itoa(int(poor))),
				sp(strconv.Itoa(int(universe))),
				sp(strconv.Itoa(int(year))),
				sp(key),
			})
		}
		writeJSON(w, out)
	}
}

func limitParam(r *http.Request, name string, max int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && n > 0 && n < max {
		return n
	}
	return max
}

func sp(s string) *string { return &s }

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
