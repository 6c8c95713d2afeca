// Package census fetches demographic aggregates from an American Community
// Survey style API: a batch of area keys and indicator codes in, a JSON
// array-of-arrays with a leading header row out.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

// Client implements domain.IndicatorSource against an ACS-style endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	povertyNum string // e.g. B17001_002E, population below poverty line
	povertyDen string // e.g. B17001_001E, poverty universe population
	buildYear  string // e.g. B25035_001E, median structure build year
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an indicator client. The API key may be empty; the
// public endpoint accepts keyless requests at a reduced rate.
func NewClient(baseURL, apiKey, povertyNum, povertyDen, buildYear string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		povertyNum: povertyNum,
		povertyDen: povertyDen,
		buildYear:  buildYear,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchIndicators retrieves the configured indicators for a batch of postal
// area keys. Rows come back as [numerator, denominator, buildYear, areaKey]
// behind a header row, which is skipped.
func (c *Client) FetchIndicators(ctx context.Context, areaKeys []string) ([]domain.IndicatorRow, error) {
	if len(areaKeys) == 0 {
		return nil, nil
	}

	params := url.Values{
		"get": {strings.Join([]string{c.povertyNum, c.povertyDen, c.buildYear}, ",")},
		"for": {"zip code tabulation area:" + strings.Join(areaKeys, ",")},
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indicator request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("indicator API error: status %d: %s", resp.StatusCode, body)
	}

	// Cell values may be JSON null for suppressed estimates.
	var table [][]*string
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode indicator response: %w", err)
	}
	if len(table) < 2 {
		return nil, nil
	}

	rows := make([]domain.IndicatorRow, 0, len(table)-1)
	for _, cells := range table[1:] {
		if len(cells) < 4 || cells[3] == nil {
			continue
		}
		rows = append(rows, domain.IndicatorRow{
			AreaKey:            *cells[3],
			PovertyNumerator:   parseEstimate(cells[0]),
			PovertyDenominator: parseEstimate(cells[1]),
			MedianBuildYear:    parseYear(cells[2]),
		})
	}
	return rows, nil
}

// parseEstimate converts a cell to a float, treating null, unparseable, and
// the ACS negative suppression sentinels (-666666666 and friends) as absent.
func parseEstimate(cell *string) *float64 {
	if cell == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*cell), 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func parseYear(cell *string) *int {
	v := parseEstimate(cell)
	if v == nil {
		return nil
	}
	year := int(*v)
	if year <= 0 {
		return nil
	}
	return &year
}
