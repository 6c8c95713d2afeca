// Package socrata fetches permit rows from Socrata (SODA) open-data
// endpoints, which return a flat JSON array of records.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

// Client implements domain.Catalog for one Socrata dataset.
type Client struct {
	origin     string
	endpoint   string
	orderBy    string
	rowCap     int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Socrata catalog client for one dataset resource URL.
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

// FetchBatch retrieves up to the row cap of native records, most recent
// first when an ordering hint is configured.
func (c *Client) FetchBatch(ctx context.Context) ([]domain.NativeRecord, error) {
	params := url.Values{
		"$limit": {fmt.Sprintf("%d", c.rowCap)},
	}
	if c.orderBy != "" {
		params.Set("$order", c.orderBy)
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

	// Socrata error payloads are JSON objects, not arrays, so decoding
	// doubles as envelope validation.
	var records []domain.NativeRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%s decode envelope: %w", c.origin, err)
	}
	return records, nil
}
