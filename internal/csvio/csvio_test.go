package csvio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.CSV", "notes.txt", "c.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a.CSV"), paths[0])
	assert.Equal(t, filepath.Join(dir, "c.csv"), paths[2])
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,price\n2024-01-01,100\n2024-01-02,101,extra\n"), 0o644))

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "price"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[1], 3, "ragged rows are preserved")
}

func TestWriteProcessed_HeaderContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "GOLD.csv")
	pct := 1.5
	series := []model.Entry{
		{
			Date:   time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			Symbol: "GOLD",
			Price:  100,
		},
		{
			Date:           time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
			Symbol:         "GOLD",
			Price:          101.5,
			DailyChangePct: &pct,
		},
	}
	require.NoError(t, WriteProcessed(path, series))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "date,symbol,price,Daily_Change_%,Weekly_Change_7d_%,Monthly_Change_30d_%\n" +
		"2024-03-01,GOLD,100,,,\n" +
		"2024-03-02,GOLD,101.5,1.5,,\n"
	assert.Equal(t, want, string(data))
}

func TestWriteForecast_HeaderContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast_BTC.csv")
	points := []model.ForecastPoint{
		{
			Date:     time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			Symbol:   "BTC",
			Forecast: 50000.25,
			Lower:    49000,
			Upper:    51000.5,
		},
	}
	require.NoError(t, WriteForecast(path, points))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "date,symbol,forecast,ci_lower,ci_upper\n" +
		"2024-04-01,BTC,50000.25,49000,51000.5\n"
	assert.Equal(t, want, string(data))
}
