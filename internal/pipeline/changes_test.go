package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func makeSeries(prices []float64) []model.Entry {
	start := day(2024, time.January, 1)
	series := make([]model.Entry, len(prices))
	for i, p := range prices {
		series[i] = model.Entry{Date: start.AddDate(0, 0, i), Symbol: "T", Price: p}
	}
	return series
}

func TestChanges_Formula(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.5
	}
	out := Changes(makeSeries(prices))
	require.Len(t, out, 40)

	for i, e := range out {
		for _, tc := range []struct {
			lag int
			got *float64
		}{
			{LagDaily, e.DailyChangePct},
			{LagWeekly, e.WeeklyChangePct},
			{LagMonthly, e.MonthlyChangePct},
		} {
			if i < tc.lag {
				assert.Nil(t, tc.got, "row %d lag %d", i, tc.lag)
				continue
			}
			require.NotNil(t, tc.got, "row %d lag %d", i, tc.lag)
			want := (prices[i] - prices[i-tc.lag]) / prices[i-tc.lag] * 100
			assert.InEpsilon(t, want, *tc.got, 1e-9)
		}
	}
}

func TestChanges_ConstantPrice(t *testing.T) {
	out := Changes(makeSeries([]float64{100, 100, 100, 100}))

	assert.Nil(t, out[0].DailyChangePct)
	for i := 1; i < len(out); i++ {
		require.NotNil(t, out[i].DailyChangePct)
		assert.Equal(t, 0.0, *out[i].DailyChangePct)
	}
}

func TestChanges_EmptyInput(t *testing.T) {
	assert.Empty(t, Changes(nil))
}

func TestChanges_DoesNotMutateInput(t *testing.T) {
	in := makeSeries([]float64{100, 101})
	Changes(in)
	assert.Nil(t, in[0].DailyChangePct)
	assert.Nil(t, in[1].DailyChangePct)
}

func TestChanges_ZeroPreviousPriceIsNull(t *testing.T) {
	out := Changes(makeSeries([]float64{0, 50}))
	assert.Nil(t, out[1].DailyChangePct)
}
