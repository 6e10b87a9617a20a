package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsEditsToTargetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cycles: []\n"), 0o644))

	changed := make(chan struct{}, 4)
	scheduleWatcher, err := New(path, func() { changed <- struct{}{} }, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, scheduleWatcher.Start(context.Background()))
	t.Cleanup(func() {
		_ = scheduleWatcher.Stop()
	})

	require.NoError(t, os.WriteFile(path, []byte("cycles: [] # edited\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("edit was not reported")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cycles: []\n"), 0o644))

	changed := make(chan struct{}, 4)
	scheduleWatcher, err := New(path, func() { changed <- struct{}{} }, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, scheduleWatcher.Start(context.Background()))
	t.Cleanup(func() {
		_ = scheduleWatcher.Stop()
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-changed:
		t.Fatal("sibling file edit must not be reported")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")

	scheduleWatcher, err := New(path, func() {}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, scheduleWatcher.Start(context.Background()))

	require.NoError(t, scheduleWatcher.Stop())
	require.NoError(t, scheduleWatcher.Stop())
}
