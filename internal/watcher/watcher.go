// Package watcher observes the schedule file and reports edits so the
// daemon can reload without restarting.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher monitors one file for writes. It watches the parent directory so
// that editors which replace the file atomically are still seen.
type Watcher struct {
	targetPath string
	parentPath string
	onChange   func()
	watcher    *fsnotify.Watcher
	cancel     context.CancelFunc
	mu         sync.Mutex
	running    bool
	debounce   time.Duration
	log        zerolog.Logger
}

// New creates a Watcher for the given file. The onChange callback runs on
// the watcher goroutine after edits settle.
func New(targetPath string, onChange func(), logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		targetPath: targetPath,
		parentPath: filepath.Dir(targetPath),
		onChange:   onChange,
		watcher:    fsw,
		debounce:   250 * time.Millisecond,
		log:        logger,
	}, nil
}

// Start begins watching. It is a no-op on a running watcher.
func (watcher *Watcher) Start(ctx context.Context) error {
	watcher.mu.Lock()
	if watcher.running {
		watcher.mu.Unlock()
		return nil
	}
	watcher.running = true
	runCtx, cancel := context.WithCancel(ctx)
	watcher.cancel = cancel
	watcher.mu.Unlock()

	if err := watcher.watcher.Add(watcher.parentPath); err != nil {
		watcher.log.Warn().Err(err).Str("path", watcher.parentPath).
			Msg("schedule watch failed, edits require a restart")
		return err
	}

	go watcher.watchLoop(runCtx)
	return nil
}

// Stop stops watching. Idempotent.
func (watcher *Watcher) Stop() error {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	if !watcher.running {
		return nil
	}
	watcher.running = false
	watcher.cancel()
	return watcher.watcher.Close()
}

func (watcher *Watcher) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(watcher.targetPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(watcher.debounce)
			} else {
				debounceTimer.Reset(watcher.debounce)
			}
			pending = debounceTimer.C
		case <-pending:
			pending = nil
			watcher.log.Debug().Str("path", watcher.targetPath).Msg("schedule file changed")
			watcher.onChange()
		case err, ok := <-watcher.watcher.Errors:
			if !ok {
				return
			}
			watcher.log.Warn().Err(err).Msg("schedule watch error")
		}
	}
}
