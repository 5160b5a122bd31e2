// Package runner orchestrates batch runs: it discovers input units, drives
// the pipeline and forecast engine over them, isolates per-unit failures and
// persists results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"MacroPulse/internal/config"
	"MacroPulse/internal/csvio"
	"MacroPulse/internal/forecast"
	"MacroPulse/internal/model"
	"MacroPulse/internal/pipeline"
	"MacroPulse/internal/recorder"
)

// ErrNoInput is returned when the input location yields zero files.
var ErrNoInput = errors.New("no input files found")

// ErrNoReadableInput is returned when files were found but none could be
// read or parsed. No output is written in that case.
var ErrNoReadableInput = errors.New("no readable input files")

// Runner executes the processing and forecasting passes.
type Runner struct {
	cfg    *config.Config
	engine *forecast.Engine
	rec    recorder.Recorder
}

// New builds a Runner from configuration. rec may be a NoopRecorder.
func New(cfg *config.Config, rec recorder.Recorder) *Runner {
	return &Runner{
		cfg:    cfg,
		engine: forecast.NewEngine(cfg.Forecast.Steps, cfg.Forecast.MinObservations, cfg.Forecast.Confidence),
		rec:    rec,
	}
}

// Process discovers raw CSV files and, for each one, normalizes columns,
// aligns the series onto a gap-free daily calendar, derives change features
// and writes the processed file under a symbol-derived name. Individual file
// failures never abort the batch; the run fails only when there are no input
// files or none of them are readable.
func (r *Runner) Process(ctx context.Context) (*model.Summary, error) {
	summary := newSummary("process")
	defer summary.finish(r.rec)

	files, err := csvio.Discover(r.cfg.Paths.Raw)
	if err != nil {
		return summary.Summary, fmt.Errorf("discover raw files: %w", err)
	}
	if len(files) == 0 {
		return summary.Summary, fmt.Errorf("%w in %s", ErrNoInput, r.cfg.Paths.Raw)
	}
	log.Info().Int("files", len(files)).Str("dir", r.cfg.Paths.Raw).Msg("processing raw files")

	var anyReadable atomic.Bool
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Runner.Workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			readable, result := r.processFile(file)
			summary.add(result)
			if readable {
				anyReadable.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary.Summary, err
	}
	if !anyReadable.Load() {
		return summary.Summary, fmt.Errorf("%w in %s", ErrNoReadableInput, r.cfg.Paths.Raw)
	}
	return summary.Summary, nil
}

// processFile runs one raw file through the pipeline. The returned bool
// reports whether the file could at least be read and parsed.
func (r *Runner) processFile(path string) (bool, model.UnitResult) {
	unit := filepath.Base(path)

	table, err := csvio.ReadTable(path)
	if err != nil {
		log.Warn().Str("file", unit).Err(err).Msg("cannot read file")
		return false, model.UnitResult{Unit: unit, Status: model.StatusFailed, Reason: err.Error()}
	}

	normalized, err := pipeline.Normalize(table, path)
	if err != nil {
		return true, classify(unit, "", err)
	}
	series, dropped, err := pipeline.Align(normalized)
	if err != nil {
		return true, classify(unit, "", err)
	}
	series = pipeline.Changes(series)

	symbol := series[0].Symbol
	outPath := filepath.Join(r.cfg.Paths.Processed, symbol+".csv")
	if err := csvio.WriteProcessed(outPath, series); err != nil {
		log.Error().Str("file", unit).Err(err).Msg("write processed file")
		return true, model.UnitResult{Unit: unit, Symbol: symbol, Status: model.StatusFailed, Reason: err.Error()}
	}

	log.Info().
		Str("file", unit).
		Str("symbol", symbol).
		Int("rows", len(series)).
		Int("dropped", dropped).
		Str("from", series[0].Date.Format("2006-01-02")).
		Str("to", series[len(series)-1].Date.Format("2006-01-02")).
		Msg("processed")
	return true, model.UnitResult{Unit: unit, Symbol: symbol, Status: model.StatusSucceeded}
}

// Forecast discovers processed files, groups their rows by symbol and fits a
// forecast per symbol. Skipped symbols leave any existing forecast file in
// place unless forecast.remove_stale is set.
func (r *Runner) Forecast(ctx context.Context) (*model.Summary, error) {
	summary := newSummary("forecast")
	defer summary.finish(r.rec)

	files, err := csvio.Discover(r.cfg.Paths.Processed)
	if err != nil {
		return summary.Summary, fmt.Errorf("discover processed files: %w", err)
	}
	if len(files) == 0 {
		return summary.Summary, fmt.Errorf("%w in %s", ErrNoInput, r.cfg.Paths.Processed)
	}

	groups, err := r.groupBySymbol(files)
	if err != nil {
		return summary.Summary, err
	}

	symbols := make([]string, 0, len(groups))
	for sym := range groups {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	log.Info().Int("symbols", len(symbols)).Msg("forecasting")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Runner.Workers)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summary.add(r.forecastSymbol(sym, groups[sym]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary.Summary, err
	}
	return summary.Summary, nil
}

// groupBySymbol reads every processed file and splits rows by symbol into
// minimal date/symbol/price tables for re-alignment. Fails only when no file
// is readable.
func (r *Runner) groupBySymbol(files []string) (map[string]*model.Table, error) {
	groups := make(map[string]*model.Table)
	readable := 0
	for _, file := range files {
		table, err := csvio.ReadTable(file)
		if err != nil {
			log.Warn().Str("file", filepath.Base(file)).Err(err).Msg("cannot read processed file")
			continue
		}
		dateIdx := table.ColumnIndex(pipeline.ColDate)
		symIdx := table.ColumnIndex(pipeline.ColSymbol)
		priceIdx := table.ColumnIndex(pipeline.ColPrice)
		if dateIdx < 0 || symIdx < 0 || priceIdx < 0 {
			log.Warn().Str("file", filepath.Base(file)).Msg("processed file missing required columns")
			continue
		}
		readable++
		for _, row := range table.Rows {
			if len(row) <= dateIdx || len(row) <= symIdx || len(row) <= priceIdx {
				continue
			}
			sym := row[symIdx]
			group, ok := groups[sym]
			if !ok {
				group = &model.Table{Columns: []string{pipeline.ColDate, pipeline.ColSymbol, pipeline.ColPrice}}
				groups[sym] = group
			}
			group.Rows = append(group.Rows, []string{row[dateIdx], sym, row[priceIdx]})
		}
	}
	if readable == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoReadableInput, r.cfg.Paths.Processed)
	}
	return groups, nil
}

func (r *Runner) forecastSymbol(symbol string, table *model.Table) model.UnitResult {
	series, _, err := pipeline.Align(table)
	if err != nil {
		return classify(symbol, symbol, err)
	}

	points, err := r.engine.Run(symbol, series)
	if err != nil {
		result := classify(symbol, symbol, err)
		if result.Status == model.StatusSkipped && r.cfg.Forecast.RemoveStale {
			r.removeStaleForecast(symbol)
		}
		return result
	}

	outPath := filepath.Join(r.cfg.Paths.Forecast, "forecast_"+symbol+".csv")
	if err := csvio.WriteForecast(outPath, points); err != nil {
		log.Error().Str("symbol", symbol).Err(err).Msg("write forecast file")
		return model.UnitResult{Unit: symbol, Symbol: symbol, Status: model.StatusFailed, Reason: err.Error()}
	}

	log.Info().Str("symbol", symbol).Int("steps", len(points)).Msg("forecast saved")
	return model.UnitResult{Unit: symbol, Symbol: symbol, Status: model.StatusSucceeded}
}

// removeStaleForecast deletes a previously written forecast for a symbol
// that was skipped this run, so the downstream consumer never sees an
// outdated band. Only active when forecast.remove_stale is configured.
func (r *Runner) removeStaleForecast(symbol string) {
	path := filepath.Join(r.cfg.Paths.Forecast, "forecast_"+symbol+".csv")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("symbol", symbol).Err(err).Msg("remove stale forecast")
	}
}

// classify turns a pipeline or forecast error into a unit result. Expected
// conditions (schema mismatch, thin data) are skips; model failures are
// skips logged at error level; anything else is a failure.
func classify(unit, symbol string, err error) model.UnitResult {
	var schemaErr *pipeline.SchemaError
	var dataErr *pipeline.InsufficientDataError
	var fitErr *forecast.ModelFitError

	switch {
	case errors.As(err, &schemaErr):
		log.Warn().Str("unit", unit).Err(err).Msg("schema mismatch, skipping")
		return model.UnitResult{Unit: unit, Symbol: symbol, Status: model.StatusSkipped, Reason: err.Error()}
	case errors.As(err, &dataErr):
		log.Warn().Str("unit", unit).Err(err).Msg("insufficient data, skipping")
		return model.UnitResult{Unit: unit, Symbol: symbol, Status: model.StatusSkipped, Reason: err.Error()}
	case errors.As(err, &fitErr):
		log.Error().Str("unit", unit).Err(err).Msg("model fit failed, skipping")
		return model.UnitResult{Unit: unit, Symbol: symbol, Status: model.StatusSkipped, Reason: err.Error()}
	default:
		log.Error().Str("unit", unit).Err(err).Msg("unit failed")
		return model.UnitResult{Unit: unit, Symbol: symbol, Status: model.StatusFailed, Reason: err.Error()}
	}
}

// runSummary accumulates unit results safely across workers.
type runSummary struct {
	*model.Summary
	mu sync.Mutex
}

func newSummary(mode string) *runSummary {
	return &runSummary{
		Summary: &model.Summary{
			RunID:   uuid.NewString(),
			Mode:    mode,
			Started: time.Now(),
		},
	}
}

func (s *runSummary) add(result model.UnitResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Units = append(s.Units, result)
}

func (s *runSummary) finish(rec recorder.Recorder) {
	s.Duration = time.Since(s.Started)
	log.Info().
		Str("run_id", s.RunID).
		Str("mode", s.Mode).
		Int("succeeded", s.Succeeded()).
		Int("skipped", s.Skipped()).
		Int("failed", s.Failed()).
		Dur("duration", s.Duration).
		Msg("run complete")
	if err := rec.RecordRun(s.Summary); err != nil {
		log.Error().Err(err).Msg("record run")
	}
}
