package pipeline

import "MacroPulse/internal/model"

// Change lags, in days.
const (
	LagDaily   = 1
	LagWeekly  = 7
	LagMonthly = 30
)

// Changes appends daily, weekly and monthly percentage-change features to an
// aligned series. The first lag entries of each feature are nil by
// definition. Pure: the input slice is not modified; empty input passes
// through unchanged.
func Changes(series []model.Entry) []model.Entry {
	out := make([]model.Entry, len(series))
	copy(out, series)
	for i := range out {
		out[i].DailyChangePct = changeAt(series, i, LagDaily)
		out[i].WeeklyChangePct = changeAt(series, i, LagWeekly)
		out[i].MonthlyChangePct = changeAt(series, i, LagMonthly)
	}
	return out
}

func changeAt(series []model.Entry, i, lag int) *float64 {
	if i < lag {
		return nil
	}
	prev := series[i-lag].Price
	if prev == 0 {
		return nil
	}
	pct := (series[i].Price - prev) / prev * 100
	return &pct
}
