package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"MacroPulse/internal/model"
)

// observation is one surviving input row before calendar reindexing.
// Price is nil when the cell was present but not numeric.
type observation struct {
	date   time.Time
	symbol string
	price  *float64
}

// dateLayouts are tried in order when parsing the date column. Layouts with
// a zone are converted to UTC before the wall-clock date is taken.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700 MST",
}

// parseDate parses a timestamp-like value and reduces it to a calendar date
// at UTC midnight. Zone-aware values keep their UTC-equivalent wall-clock
// date. Unix seconds and milliseconds are accepted. Unparseable values
// return ok=false, never an error.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return toCalendarDay(ts.UTC()), true
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case len(s) >= 13: // milliseconds
			return toCalendarDay(time.UnixMilli(n).UTC()), true
		case len(s) >= 10: // seconds
			return toCalendarDay(time.Unix(n, 0).UTC()), true
		}
	}
	return time.Time{}, false
}

func toCalendarDay(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// parsePrice coerces a cell to a number; non-numeric values become nil,
// mirroring the drop-then-fill treatment of bad price cells.
func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Align converts a normalized table into a single-symbol, gap-free daily
// series. Rows with an unparseable date or an empty price cell are dropped
// (and counted); the survivors are sorted, reindexed onto every calendar day
// between their min and max date, and filled.
//
// Filled prices mean "unchanged since the last known value". This is an
// explicit approximation for non-trading days, not observed data, and it
// understates volatility on the filled days.
func Align(t *model.Table) ([]model.Entry, int, error) {
	dateIdx := t.ColumnIndex(ColDate)
	symIdx := t.ColumnIndex(ColSymbol)
	priceIdx := t.ColumnIndex(ColPrice)
	if dateIdx < 0 || symIdx < 0 || priceIdx < 0 {
		var missing []string
		for col, idx := range map[string]int{ColDate: dateIdx, ColSymbol: symIdx, ColPrice: priceIdx} {
			if idx < 0 {
				missing = append(missing, col)
			}
		}
		sort.Strings(missing)
		return nil, 0, &SchemaError{Missing: missing, Present: t.Columns}
	}

	var obs []observation
	dropped := 0
	for _, row := range t.Rows {
		if len(row) <= dateIdx || len(row) <= symIdx || len(row) <= priceIdx {
			dropped++
			continue
		}
		date, ok := parseDate(row[dateIdx])
		if !ok || strings.TrimSpace(row[priceIdx]) == "" {
			dropped++
			continue
		}
		obs = append(obs, observation{
			date:   date,
			symbol: strings.TrimSpace(row[symIdx]),
			price:  parsePrice(row[priceIdx]),
		})
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("rows dropped for missing date/price")
	}
	if len(obs) == 0 {
		return nil, dropped, &InsufficientDataError{Reason: "no usable rows after filtering"}
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].date.Before(obs[j].date) })

	calendar := buildCalendar(obs[0].date, obs[len(obs)-1].date)
	series, err := fillGaps(calendar, obs)
	if err != nil {
		return nil, dropped, err
	}
	return series, dropped, nil
}

// buildCalendar returns every calendar day from first to last inclusive.
func buildCalendar(first, last time.Time) []time.Time {
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// fillGaps reindexes observations onto the calendar, then forward- and
// backward-fills symbol and price. Duplicate dates keep the last observation,
// so reruns over already-aligned data are stable.
func fillGaps(calendar []time.Time, obs []observation) ([]model.Entry, error) {
	byDate := make(map[time.Time]observation, len(obs))
	for _, o := range obs {
		byDate[o.date] = o
	}

	symbols := make([]string, len(calendar))
	prices := make([]*float64, len(calendar))
	for i, day := range calendar {
		if o, ok := byDate[day]; ok {
			symbols[i] = o.symbol
			prices[i] = o.price
		}
	}

	// Forward fill, then backward fill for any leading gap.
	for i := 1; i < len(calendar); i++ {
		if symbols[i] == "" {
			symbols[i] = symbols[i-1]
		}
		if prices[i] == nil {
			prices[i] = prices[i-1]
		}
	}
	for i := len(calendar) - 2; i >= 0; i-- {
		if symbols[i] == "" {
			symbols[i] = symbols[i+1]
		}
		if prices[i] == nil {
			prices[i] = prices[i+1]
		}
	}

	if prices[0] == nil {
		return nil, &InsufficientDataError{Reason: "all price values are null"}
	}

	series := make([]model.Entry, len(calendar))
	for i, day := range calendar {
		series[i] = model.Entry{
			Date:   day,
			Symbol: symbols[i],
			Price:  *prices[i],
		}
	}
	return series, nil
}
