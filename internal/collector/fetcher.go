// Package collector fetches daily price history from public providers and
// emits raw CSV files in the pipeline's input schema. It is a producer for
// the processing pass; nothing in the pipeline depends on it.
package collector

import (
	"context"
	"time"
)

// Quote is one daily closing price.
type Quote struct {
	Date  time.Time
	Price float64
}

// Fetcher fetches daily price history for one target identifier.
type Fetcher interface {
	FetchDaily(ctx context.Context, target string, days int) ([]Quote, error)
	Name() string
}
