package carto

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_FetchBatch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		assert.Equal(t, "SELECT * FROM permits ORDER BY permitissuedate DESC LIMIT 1000", q)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rows":[
			{"permitnumber":"P-1","address":"901 S DELAWARE AVE","zip":"19147"}
		],"total_rows":1}`))
	}))
	defer srv.Close()

	c := NewClient("philadelphia", srv.URL, "permits", "permitissuedate DESC", 1000, 5*time.Second, discardLogger())
	records, err := c.FetchBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "P-1", records[0]["permitnumber"])
}

func TestClient_FetchBatch_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":["relation \"permits\" does not exist"]}`))
	}))
	defer srv.Close()

	c := NewClient("philadelphia", srv.URL, "permits", "", 1000, 5*time.Second, discardLogger())
	_, err := c.FetchBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestClient_FetchBatch_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("philadelphia", srv.URL, "permits", "", 1000, 5*time.Second, discardLogger())
	_, err := c.FetchBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
