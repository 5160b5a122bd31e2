// Package csvio reads and writes the delimited files that are the only
// persistent state of the system: raw inputs, processed series and forecast
// tables.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"MacroPulse/internal/model"
)

// ProcessedHeader is the column contract of processed output files. The
// downstream charting consumer binds to these names; order is stable.
var ProcessedHeader = []string{
	"date", "symbol", "price",
	"Daily_Change_%", "Weekly_Change_7d_%", "Monthly_Change_30d_%",
}

// ForecastHeader is the column contract of forecast output files.
var ForecastHeader = []string{"date", "symbol", "forecast", "ci_lower", "ci_upper"}

// RawHeader is the column set the collector emits.
var RawHeader = []string{"date", "symbol", "price"}

const dateLayout = "2006-01-02"

// Discover returns the sorted paths of all CSV files directly inside dir.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadTable reads a CSV file into a Table. The first record is the header.
// Ragged rows are kept; the pipeline decides what to do with them.
func ReadTable(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file %s", path)
	}
	return &model.Table{Columns: records[0], Rows: records[1:]}, nil
}

// WriteProcessed writes an aligned, change-augmented series. Output is
// deterministic: identical input yields byte-identical files.
func WriteProcessed(path string, series []model.Entry) error {
	records := make([][]string, len(series))
	for i, e := range series {
		records[i] = []string{
			e.Date.Format(dateLayout),
			e.Symbol,
			formatFloat(e.Price),
			formatNullable(e.DailyChangePct),
			formatNullable(e.WeeklyChangePct),
			formatNullable(e.MonthlyChangePct),
		}
	}
	return writeCSV(path, ProcessedHeader, records)
}

// WriteForecast writes a per-symbol forecast table.
func WriteForecast(path string, points []model.ForecastPoint) error {
	records := make([][]string, len(points))
	for i, p := range points {
		records[i] = []string{
			p.Date.Format(dateLayout),
			p.Symbol,
			formatFloat(p.Forecast),
			formatFloat(p.Lower),
			formatFloat(p.Upper),
		}
	}
	return writeCSV(path, ForecastHeader, records)
}

// WriteRaw writes collector output in the raw input schema.
func WriteRaw(path, symbol string, dates []string, prices []float64) error {
	if len(dates) != len(prices) {
		return fmt.Errorf("dates/prices length mismatch: %d vs %d", len(dates), len(prices))
	}
	records := make([][]string, len(dates))
	for i := range dates {
		records[i] = []string{dates[i], symbol, formatFloat(prices[i])}
	}
	return writeCSV(path, RawHeader, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
