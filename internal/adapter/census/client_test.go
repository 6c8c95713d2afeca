package census

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

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key", "B17001_002E", "B17001_001E", "B25035_001E", 5*time.Second, discardLogger())
}

func TestClient_FetchIndicators_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "B17001_002E,B17001_001E,B25035_001E", r.URL.Query().Get("get"))
		assert.Equal(t, "zip code tabulation area:78704,19147", r.URL.Query().Get("for"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			["B17001_002E","B17001_001E","B25035_001E","zip code tabulation area"],
			["2100","10500","1968","78704"],
			[null,null,"1925","19147"]
		]`))
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).FetchIndicators(context.Background(), []string{"78704", "19147"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].PovertyNumerator)
	assert.Equal(t, 2100.0, *rows[0].PovertyNumerator)
	require.NotNil(t, rows[0].PovertyDenominator)
	assert.Equal(t, 10500.0, *rows[0].PovertyDenominator)
	require.NotNil(t, rows[0].MedianBuildYear)
	assert.Equal(t, 1968, *rows[0].MedianBuildYear)
	assert.Equal(t, "78704", rows[0].AreaKey)

	assert.Nil(t, rows[1].PovertyNumerator)
	assert.Nil(t, rows[1].PovertyDenominator)
	require.NotNil(t, rows[1].MedianBuildYear)
	assert.Equal(t, 1925, *rows[1].MedianBuildYear)
}

func TestClient_FetchIndicators_SuppressionSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			["B17001_002E","B17001_001E","B25035_001E","zip code tabulation area"],
			["-666666666","-666666666","-666666666","99999"]
		]`))
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).FetchIndicators(context.Background(), []string{"99999"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PovertyNumerator)
	assert.Nil(t, rows[0].PovertyDenominator)
	assert.Nil(t, rows[0].MedianBuildYear)
}

func TestClient_FetchIndicators_EmptyBatch(t *testing.T) {
	rows, err := testClient("http://unused.invalid").FetchIndicators(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClient_FetchIndicators_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "error: unknown variable", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchIndicators(context.Background(), []string{"78704"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestClient_FetchIndicators_HeaderOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[["B17001_002E","B17001_001E","B25035_001E","zip code tabulation area"]]`))
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).FetchIndicators(context.Background(), []string{"78704"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
