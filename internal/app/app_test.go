package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drneuraldog/lookaway/internal/app"
	"github.com/drneuraldog/lookaway/internal/core/clock"
	"github.com/drneuraldog/lookaway/internal/core/model"
	"github.com/drneuraldog/lookaway/internal/storage"
)

func TestRunRecordsCompletedBreaks(t *testing.T) {
	dir := t.TempDir()
	schedulePath := filepath.Join(dir, "schedule.yaml")
	cycles := []model.WorkCycleConfig{
		model.NewWorkCycleConfig(model.Span(2, model.UnitSeconds), model.Span(1, model.UnitSeconds)),
	}
	require.NoError(t, storage.SaveScheduleFile(schedulePath, cycles))

	history, err := storage.OpenHistory(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = history.Close()
	})

	virtual := clock.NewVirtual(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, app.Options{
			TickInterval: time.Second,
			SchedulePath: schedulePath,
			History:      history,
			Clock:        virtual,
			Log:          zerolog.Nop(),
		})
	}()

	// Work 2s, break 1s: three ticks finish one full cycle.
	for i := 0; i < 3; i++ {
		virtual.BlockUntil(1)
		virtual.Advance(time.Second)
	}
	virtual.BlockUntil(1)

	cancel()
	require.NoError(t, <-done)

	records, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "completed", records[0].Outcome)
	assert.Equal(t, cycles[0].ID, records[0].CycleID)
	assert.True(t, records[0].EndedAt.After(records[0].StartedAt))
}

func TestRunShutsDownCleanly(t *testing.T) {
	// A missing schedule file falls back to defaults; verify clean shutdown
	// with nothing but the engine wired.
	virtual := clock.NewVirtual(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, app.Options{
			TickInterval: time.Second,
			SchedulePath: filepath.Join(t.TempDir(), "absent.yaml"),
			Clock:        virtual,
			Log:          zerolog.Nop(),
		})
	}()

	virtual.BlockUntil(1)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, virtual.Sleepers(), "all clock waiters must be released at teardown")
}
