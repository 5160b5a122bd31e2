package collector

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"MacroPulse/internal/csvio"
	"MacroPulse/internal/model"
	"MacroPulse/internal/recorder"
)

// MockFetcher returns fixed quotes for development and testing.
type MockFetcher struct {
	Quotes []Quote
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, _ string, _ int) ([]Quote, error) {
	return m.Quotes, m.Err
}

// Collector fetches configured targets and writes one raw CSV per symbol.
type Collector struct {
	Stocks  Fetcher // Yahoo tickers
	Crypto  Fetcher // CoinGecko coin ids
	RawDir  string
	Days    int
	Symbols []string
	Coins   []string
	rec     recorder.Recorder
}

// New builds a Collector. rec may be a NoopRecorder.
func New(stocks, crypto Fetcher, rawDir string, days int, symbols, coins []string, rec recorder.Recorder) *Collector {
	return &Collector{
		Stocks:  stocks,
		Crypto:  crypto,
		RawDir:  rawDir,
		Days:    days,
		Symbols: symbols,
		Coins:   coins,
		rec:     rec,
	}
}

// Run fetches every configured target. Per-target fetch failures are
// isolated: the run continues and the summary records the failure.
func (c *Collector) Run(ctx context.Context) *model.Summary {
	summary := &model.Summary{
		RunID:   uuid.NewString(),
		Mode:    "collect",
		Started: time.Now(),
	}

	for _, symbol := range c.Symbols {
		summary.Units = append(summary.Units, c.collect(ctx, c.Stocks, symbol, symbol))
	}
	for _, coin := range c.Coins {
		summary.Units = append(summary.Units, c.collect(ctx, c.Crypto, coin, strings.ToUpper(coin)))
	}

	summary.Duration = time.Since(summary.Started)
	log.Info().
		Str("run_id", summary.RunID).
		Int("succeeded", summary.Succeeded()).
		Int("failed", summary.Failed()).
		Dur("duration", summary.Duration).
		Msg("collection complete")
	if err := c.rec.RecordRun(summary); err != nil {
		log.Error().Err(err).Msg("record run")
	}
	return summary
}

func (c *Collector) collect(ctx context.Context, fetcher Fetcher, target, symbol string) model.UnitResult {
	quotes, err := fetcher.FetchDaily(ctx, target, c.Days)
	if err != nil {
		log.Error().Str("source", fetcher.Name()).Str("target", target).Err(err).Msg("fetch failed")
		return model.UnitResult{Unit: target, Symbol: symbol, Status: model.StatusFailed, Reason: err.Error()}
	}
	if len(quotes) == 0 {
		log.Warn().Str("source", fetcher.Name()).Str("target", target).Msg("no data returned")
		return model.UnitResult{Unit: target, Symbol: symbol, Status: model.StatusSkipped, Reason: "no data returned"}
	}

	dates := make([]string, len(quotes))
	prices := make([]float64, len(quotes))
	for i, q := range quotes {
		dates[i] = q.Date.Format("2006-01-02")
		prices[i] = q.Price
	}

	path := filepath.Join(c.RawDir, symbol+".csv")
	if err := csvio.WriteRaw(path, symbol, dates, prices); err != nil {
		log.Error().Str("symbol", symbol).Err(err).Msg("write raw file")
		return model.UnitResult{Unit: target, Symbol: symbol, Status: model.StatusFailed, Reason: err.Error()}
	}

	log.Info().Str("source", fetcher.Name()).Str("symbol", symbol).Int("rows", len(quotes)).Msg("saved raw data")
	return model.UnitResult{Unit: target, Symbol: symbol, Status: model.StatusSucceeded}
}
