// Package arcgis fetches permit rows from ArcGIS FeatureServer query
// endpoints, which return a feature collection with records nested under
// features[].attributes and dates encoded as epoch milliseconds.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

// Client implements domain.Catalog for one FeatureServer layer.
type Client struct {
	origin     string
	endpoint   string // .../FeatureServer/<layer>/query
	orderBy    string
	rowCap     int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an ArcGIS catalog client for one layer query URL.
func NewClient(origin, endpoint, orderBy string, rowCap int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		origin:   origin,
		endpoint: endpoint,
		orderBy:  orderBy,
		rowCap:   rowCap,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) Origin() string { return c.origin }

// FetchBatch retrieves up to the row cap of feature attributes.
func (c *Client) FetchBatch(ctx context.Context) ([]domain.NativeRecord, error) {
	params := url.Values{
		"where":             {"1=1"},
		"outFields":         {"*"},
		"f":                 {"json"},
		"resultRecordCount": {strconv.Itoa(c.rowCap)},
	}
	if c.orderBy != "" {
		params.Set("orderByFields", c.orderBy)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s catalog request: %w", c.origin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s catalog error: status %d: %s", c.origin, resp.StatusCode, body)
	}

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%s decode envelope: %w", c.origin, err)
	}
	// FeatureServer reports errors inside a 200 response.
	if envelope.Error != nil {
		return nil, fmt.Errorf("%s catalog error: code %d: %s", c.origin, envelope.Error.Code, envelope.Error.Message)
	}

	records := make([]domain.NativeRecord, 0, len(envelope.Features))
	for _, f := range envelope.Features {
		if f.Attributes != nil {
			records = append(records, f.Attributes)
		}
	}
	return records, nil
}

// FeatureServer response envelope.

type response struct {
	Features []feature      `json:"features"`
	Error    *responseError `json:"error"`
}

type feature struct {
	Attributes domain.NativeRecord `json:"attributes"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
