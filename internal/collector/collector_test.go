package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/recorder"
)

func TestCollector_WritesRawFiles(t *testing.T) {
	dir := t.TempDir()
	quotes := []Quote{
		{Date: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), Price: 100},
		{Date: time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), Price: 101.5},
	}
	c := New(
		&MockFetcher{Quotes: quotes},
		&MockFetcher{Quotes: quotes},
		dir, 30,
		[]string{"AAPL"}, []string{"bitcoin"},
		recorder.NewNoopRecorder(),
	)

	summary := c.Run(context.Background())
	assert.Equal(t, 2, summary.Succeeded())

	data, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,symbol,price\n2024-05-01,AAPL,100\n2024-05-02,AAPL,101.5\n", string(data))

	// Coin ids become uppercase symbols.
	_, err = os.Stat(filepath.Join(dir, "BITCOIN.csv"))
	assert.NoError(t, err)
}

func TestCollector_IsolatesFetchFailure(t *testing.T) {
	dir := t.TempDir()
	good := []Quote{
		{Date: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), Price: 1},
	}
	c := New(
		&MockFetcher{Err: errors.New("rate limited")},
		&MockFetcher{Quotes: good},
		dir, 30,
		[]string{"AAPL"}, []string{"ethereum"},
		recorder.NewNoopRecorder(),
	)

	summary := c.Run(context.Background())
	assert.Equal(t, 1, summary.Succeeded())
	assert.Equal(t, 1, summary.Failed())

	_, err := os.Stat(filepath.Join(dir, "ETHEREUM.csv"))
	assert.NoError(t, err)
}

func TestYahooFetcher_ParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704067200,1704153600,1704240000],
			"indicators":{"quote":[{"close":[100.5,null,102.25]}]}}]}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	quotes, err := f.FetchDaily(context.Background(), "AAPL", 3)
	require.NoError(t, err)
	require.Len(t, quotes, 2, "null closes are skipped")
	assert.Equal(t, 100.5, quotes[0].Price)
	assert.Equal(t, 102.25, quotes[1].Price)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), quotes[0].Date)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchDaily(context.Background(), "NOPE", 3)
	assert.ErrorContains(t, err, "No data found")
}

func TestCoinGeckoFetcher_ParsesMarketChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[[1704067200000,42000.5],[1704153600000,43100.0]]}`))
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher("")
	f.BaseURL = srv.URL

	quotes, err := f.FetchDaily(context.Background(), "bitcoin", 2)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 42000.5, quotes[0].Price)
	assert.Equal(t, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC), quotes[1].Date)
}
