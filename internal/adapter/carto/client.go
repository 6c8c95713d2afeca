// Package carto fetches permit rows from CARTO SQL API endpoints, which
// return query results in a {rows: [...]} envelope.
package carto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

// Client implements domain.Catalog for one table behind a CARTO SQL API.
type Client struct {
	origin     string
	endpoint   string // e.g. https://phl.carto.com/api/v2/sql
	table      string
	orderBy    string
	rowCap     int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a CARTO catalog client querying one permits table.
func NewClient(origin, endpoint, table, orderBy string, rowCap int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		origin:   origin,
		endpoint: endpoint,
		table:    table,
		orderBy:  orderBy,
		rowCap:   rowCap,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) Origin() string { return c.origin }

// FetchBatch runs a SELECT against the configured table and returns the rows.
func (c *Client) FetchBatch(ctx context.Context) ([]domain.NativeRecord, error) {
	var query strings.Builder
	fmt.Fprintf(&query, "SELECT * FROM %s", c.table)
	if c.orderBy != "" {
		fmt.Fprintf(&query, " ORDER BY %s", c.orderBy)
	}
	fmt.Fprintf(&query, " LIMIT %d", c.rowCap)

	params := url.Values{"q": {query.String()}}

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
	if len(envelope.Error) > 0 {
		return nil, fmt.Errorf("%s catalog error: %s", c.origin, strings.Join(envelope.Error, "; "))
	}
	return envelope.Rows, nil
}

// CARTO SQL API response envelope. Errors arrive as a string list.
type response struct {
	Rows  []domain.NativeRecord `json:"rows"`
	Error []string              `json:"error"`
}
