// Package forecast fits per-symbol time-series models and projects them
// forward with confidence intervals.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// Result holds point forecasts and a two-sided confidence band.
// Slices are the same length.
type Result struct {
	Mean  []float64
	Lower []float64
	Upper []float64
}

// Model is the narrow interface the engine drives, so the statistical
// implementation is swappable without touching alignment or persistence.
type Model interface {
	Fit(series []float64) error
	Forecast(steps int) (*Result, error)
}

// ARIMA implements Model for an ARIMA(1,1,1) process: the series is
// differenced once and an ARMA(1,1) is fitted to the differences by
// maximizing the conditional Gaussian likelihood.
type ARIMA struct {
	confidence float64

	phi    float64
	theta  float64
	sigma2 float64

	lastLevel float64 // last observed value of the undifferenced series
	lastDiff  float64 // last value of the differenced series
	lastResid float64 // last one-step residual
	fitted    bool
}

// NewARIMA returns an unfitted ARIMA(1,1,1) model emitting intervals at the
// given two-sided confidence level (e.g. 0.95).
func NewARIMA(confidence float64) *ARIMA {
	return &ARIMA{confidence: confidence}
}

// Fit estimates the model parameters from the full series.
func (m *ARIMA) Fit(series []float64) error {
	if len(series) < 4 {
		return fmt.Errorf("need at least 4 observations, got %d", len(series))
	}
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("series contains non-finite values")
		}
	}

	w := make([]float64, len(series)-1)
	constant := true
	for i := 1; i < len(series); i++ {
		w[i-1] = series[i] - series[i-1]
		if w[i-1] != 0 {
			constant = false
		}
	}

	m.lastLevel = series[len(series)-1]
	m.lastDiff = w[len(w)-1]

	if constant {
		// A flat series carries no innovation variance; the forecast is the
		// constant itself with a collapsed interval.
		m.phi, m.theta, m.sigma2, m.lastResid = 0, 0, 0, 0
		m.fitted = true
		return nil
	}

	// Stationarity and invertibility are enforced by optimizing over
	// tanh-transformed parameters, keeping |phi| < 1 and |theta| < 1.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sse, _ := cssARMA11(w, math.Tanh(x[0]), math.Tanh(x[1]))
			if math.IsNaN(sse) || math.IsInf(sse, 0) || sse <= 0 {
				return math.Inf(1)
			}
			return math.Log(sse)
		},
	}
	result, err := optimize.Minimize(problem, []float64{0.1, 0.1}, nil, &optimize.NelderMead{})
	if err != nil {
		return fmt.Errorf("parameter estimation did not converge: %w", err)
	}

	m.phi = math.Tanh(result.X[0])
	m.theta = math.Tanh(result.X[1])

	sse, lastResid := cssARMA11(w, m.phi, m.theta)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return errors.New("residual variance is not finite")
	}
	m.sigma2 = sse / float64(len(w)-1)
	m.lastResid = lastResid
	m.fitted = true
	return nil
}

// cssARMA11 returns the conditional sum of squared one-step residuals of an
// ARMA(1,1) on w, conditioning on the first observation with a zero initial
// residual, plus the final residual.
func cssARMA11(w []float64, phi, theta float64) (sse, lastResid float64) {
	e := 0.0
	for t := 1; t < len(w); t++ {
		e = w[t] - phi*w[t-1] - theta*e
		sse += e * e
	}
	return sse, e
}

// Forecast projects the fitted model the given number of steps ahead.
// Interval widths come from the cumulative psi-weight variance of the
// integrated process.
func (m *ARIMA) Forecast(steps int) (*Result, error) {
	if !m.fitted {
		return nil, errors.New("model is not fitted")
	}
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	res := &Result{
		Mean:  make([]float64, steps),
		Lower: make([]float64, steps),
		Upper: make([]float64, steps),
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + m.confidence/2)

	// Point forecasts: project the differenced process and cumulate.
	wHat := m.phi*m.lastDiff + m.theta*m.lastResid
	level := m.lastLevel

	// Psi-weights of the integrated series: Psi_0 = 1,
	// Psi_j = Psi_{j-1} + (phi+theta)*phi^(j-1).
	cumPsi := 1.0
	psiPow := m.phi + m.theta
	varAcc := 0.0

	for h := 0; h < steps; h++ {
		level += wHat
		wHat *= m.phi

		varAcc += cumPsi * cumPsi
		cumPsi += psiPow
		psiPow *= m.phi

		se := math.Sqrt(m.sigma2 * varAcc)
		res.Mean[h] = level
		res.Lower[h] = level - z*se
		res.Upper[h] = level + z*se

		if math.IsNaN(level) || math.IsInf(level, 0) || math.IsNaN(se) || math.IsInf(se, 0) {
			return nil, fmt.Errorf("forecast diverged at step %d", h+1)
		}
	}
	return res, nil
}
