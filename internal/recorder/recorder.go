package recorder

import "MacroPulse/internal/model"

// Recorder persists batch-run history for later inspection.
type Recorder interface {
	RecordRun(summary *model.Summary) error
	Close() error
}
