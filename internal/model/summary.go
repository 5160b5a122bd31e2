package model

import "time"

// UnitStatus classifies the outcome of a single file or symbol.
type UnitStatus string

const (
	StatusSucceeded UnitStatus = "succeeded"
	StatusSkipped   UnitStatus = "skipped"
	StatusFailed    UnitStatus = "failed"
)

// UnitResult records the outcome of one processing unit. Reason is empty
// for succeeded units.
type UnitResult struct {
	Unit   string // source file or symbol
	Symbol string
	Status UnitStatus
	Reason string
}

// Summary aggregates the per-unit results of one batch run.
type Summary struct {
	RunID    string
	Mode     string
	Started  time.Time
	Duration time.Duration
	Units    []UnitResult
}

// Succeeded returns the number of units that completed with output.
func (s *Summary) Succeeded() int { return s.count(StatusSucceeded) }

// Skipped returns the number of units skipped for a known, expected reason.
func (s *Summary) Skipped() int { return s.count(StatusSkipped) }

// Failed returns the number of units that failed unexpectedly.
func (s *Summary) Failed() int { return s.count(StatusFailed) }

func (s *Summary) count(st UnitStatus) int {
	n := 0
	for _, u := range s.Units {
		if u.Status == st {
			n++
		}
	}
	return n
}
