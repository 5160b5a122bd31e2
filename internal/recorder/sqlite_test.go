package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer r.Close()

	summary := &model.Summary{
		RunID:    "run-1",
		Mode:     "process",
		Started:  time.Now(),
		Duration: 1500 * time.Millisecond,
		Units: []model.UnitResult{
			{Unit: "AAPL.csv", Symbol: "AAPL", Status: model.StatusSucceeded},
			{Unit: "BAD.csv", Status: model.StatusSkipped, Reason: "missing columns: date"},
		},
	}
	require.NoError(t, r.RecordRun(summary))

	var succeeded, skipped int
	row := r.db.QueryRow(`SELECT succeeded, skipped FROM runs WHERE id = ?`, "run-1")
	require.NoError(t, row.Scan(&succeeded, &skipped))
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, skipped)

	var units int
	row = r.db.QueryRow(`SELECT COUNT(*) FROM run_units WHERE run_id = ?`, "run-1")
	require.NoError(t, row.Scan(&units))
	assert.Equal(t, 2, units)
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// Migrations are idempotent.
	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}
