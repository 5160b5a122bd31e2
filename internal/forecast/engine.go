package forecast

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"MacroPulse/internal/model"
	"MacroPulse/internal/pipeline"
)

// ModelFitError wraps a numerical failure during model estimation or
// forecasting for one symbol.
type ModelFitError struct {
	Symbol string
	Err    error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model fit for %s: %v", e.Symbol, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }

// Engine produces multi-step forecasts for aligned single-symbol series.
type Engine struct {
	Steps           int
	MinObservations int

	// NewModel builds a fresh model per symbol; defaults to ARIMA(1,1,1).
	NewModel func() Model
}

// NewEngine returns an engine emitting the given number of daily steps with
// intervals at the given confidence level.
func NewEngine(steps, minObservations int, confidence float64) *Engine {
	return &Engine{
		Steps:           steps,
		MinObservations: minObservations,
		NewModel:        func() Model { return NewARIMA(confidence) },
	}
}

// Run fits a model to the aligned price series and returns exactly
// e.Steps forecast points, dated contiguously from the day after the last
// historical date.
//
// A series shorter than MinObservations returns *pipeline.InsufficientDataError:
// short series are known to make the model numerically unstable, so the fit
// is not attempted. Numerical failures return *ModelFitError. Both are
// per-symbol skip signals for the caller.
func (e *Engine) Run(symbol string, series []model.Entry) ([]model.ForecastPoint, error) {
	if len(series) < e.MinObservations {
		log.Warn().
			Str("symbol", symbol).
			Int("observations", len(series)).
			Int("required", e.MinObservations).
			Msg("not enough data points, skipping forecast")
		return nil, &pipeline.InsufficientDataError{
			Reason: fmt.Sprintf("%d observations, need at least %d", len(series), e.MinObservations),
		}
	}

	prices := make([]float64, len(series))
	for i, entry := range series {
		prices[i] = entry.Price
	}

	m := e.NewModel()
	if err := m.Fit(prices); err != nil {
		return nil, &ModelFitError{Symbol: symbol, Err: err}
	}
	result, err := m.Forecast(e.Steps)
	if err != nil {
		return nil, &ModelFitError{Symbol: symbol, Err: err}
	}

	lastDate := series[len(series)-1].Date
	points := make([]model.ForecastPoint, e.Steps)
	for h := 0; h < e.Steps; h++ {
		points[h] = model.ForecastPoint{
			Date:     lastDate.AddDate(0, 0, h+1),
			Symbol:   symbol,
			Forecast: result.Mean[h],
			Lower:    result.Lower[h],
			Upper:    result.Upper[h],
		}
	}
	return points, nil
}
