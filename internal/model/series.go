package model

import "time"

// Table is one raw tabular input unit: a header plus string-valued rows.
// Cell values are kept verbatim until the pipeline coerces them.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Entry is one calendar day of a normalized per-symbol series.
// Change percentages are nil while there is insufficient history
// for the corresponding lag.
type Entry struct {
	Date             time.Time
	Symbol           string
	Price            float64
	DailyChangePct   *float64
	WeeklyChangePct  *float64
	MonthlyChangePct *float64
}

// ForecastPoint is one future daily step of a symbol forecast.
// Lower <= Forecast <= Upper holds for every point a fitted model emits.
type ForecastPoint struct {
	Date     time.Time
	Symbol   string
	Forecast float64
	Lower    float64
	Upper    float64
}
