package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	history, err := OpenHistory(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, history.Close())
	})
	return history
}

func TestRecordAndListBreaks(t *testing.T) {
	history := openTestHistory(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for index, outcome := range []string{"completed", "skipped", "completed"} {
		started := base.Add(time.Duration(index) * time.Hour)
		_, err := history.RecordBreak(ctx, BreakRecord{
			CycleID:   "cycle-a",
			Outcome:   outcome,
			Delays:    index,
			StartedAt: started,
			EndedAt:   started.Add(5 * time.Minute),
		})
		require.NoError(t, err)
	}

	records, err := history.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "completed", records[0].Outcome, "newest first")
	assert.Equal(t, 2, records[0].Delays)
	assert.Equal(t, 1, records[1].Delays)
	assert.True(t, records[0].EndedAt.After(records[1].EndedAt))

	totals, err := history.AggregateTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Completed: 2, Skipped: 1}, totals)
}

func TestRecentOnEmptyHistory(t *testing.T) {
	history := openTestHistory(t)
	records, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
