// Package app wires the schedule engine, the activity monitors and the
// persistence sinks into one runnable daemon.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/drneuraldog/lookaway/internal/core/clock"
	"github.com/drneuraldog/lookaway/internal/core/schedule"
	"github.com/drneuraldog/lookaway/internal/monitor/camera"
	"github.com/drneuraldog/lookaway/internal/monitor/syssleep"
	"github.com/drneuraldog/lookaway/internal/monitor/useractivity"
	"github.com/drneuraldog/lookaway/internal/notify"
	"github.com/drneuraldog/lookaway/internal/storage"
	"github.com/drneuraldog/lookaway/internal/watcher"
)

// AppName is used for config paths and the single-instance lock.
const AppName = "lookaway"

// Options carries the daemon's collaborators. Nil monitor sources disable
// the respective monitor.
type Options struct {
	TickInterval   time.Duration
	SchedulePath   string
	Thresholds     []useractivity.Threshold
	IdleSampler    useractivity.Sampler
	CameraProvider camera.Provider
	SleepSource    syssleep.Source
	Notifier       *notify.Notifier
	History        *storage.History
	Clock          clock.Clock
	Log            zerolog.Logger
}

// Run starts the daemon and blocks until the context is cancelled. On
// return every background task has been joined and no further events fire.
func Run(ctx context.Context, options Options) error {
	logger := options.Log
	timeSource := options.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}

	cycles := storage.LoadScheduleFile(options.SchedulePath, logger)
	engine, err := schedule.New(timeSource, cycles, schedule.Config{TickInterval: options.TickInterval})
	if err != nil {
		return err
	}

	if options.CameraProvider != nil {
		cameraMonitor := camera.New(options.CameraProvider, logger)
		engine.SetBreakGate(cameraMonitor.IsConnected)
		cameraMonitor.StartListening(func(connected bool) {
			logger.Info().Bool("connected", connected).Msg("camera activity changed")
		})
		defer cameraMonitor.StopListening()
		logger.Info().Int("active", cameraMonitor.ActiveCameraCount()).Msg("camera monitor started")
	}

	if options.SleepSource != nil {
		sleepMonitor := syssleep.New(options.SleepSource, logger)
		sleepMonitor.StartListening(func(state syssleep.State) {
			if state == syssleep.StateSleeping {
				logger.Info().Msg("system asleep, pausing schedule")
				engine.Pause()
				return
			}
			logger.Info().Msg("system awake, resuming schedule")
			engine.Resume()
		})
		defer sleepMonitor.StopListening()
	}

	events := engine.Subscribe(64)
	if err := engine.Start(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		consumeEvents(events, options, logger)
		return nil
	})

	if options.IdleSampler != nil && len(options.Thresholds) > 0 {
		inactivity := useractivity.New(timeSource, options.Thresholds, options.IdleSampler,
			useractivity.Config{PollInterval: options.TickInterval}, logger)
		group.Go(func() error {
			return watchInactivity(groupCtx, inactivity, engine, timeSource, options.TickInterval, logger)
		})
	}

	if options.SchedulePath != "" {
		scheduleWatcher, err := watcher.New(options.SchedulePath, func() {
			reloaded := storage.LoadScheduleFile(options.SchedulePath, logger)
			if err := engine.SetSchedule(reloaded); err != nil {
				logger.Warn().Err(err).Msg("schedule reload rejected, keeping previous")
				return
			}
			logger.Info().Int("cycles", len(reloaded)).Msg("schedule reloaded")
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("schedule watcher unavailable")
		} else {
			_ = scheduleWatcher.Start(groupCtx)
			defer func() {
				_ = scheduleWatcher.Stop()
			}()
		}
	}

	group.Go(func() error {
		<-groupCtx.Done()
		engine.Stop()
		return nil
	})

	return group.Wait()
}

// consumeEvents drives the notification and history sinks from the engine's
// event stream. Returns when the stream closes.
func consumeEvents(events <-chan schedule.Event, options Options, logger zerolog.Logger) {
	var breakStarted time.Time
	var breakCycle string
	for event := range events {
		switch event.Type {
		case schedule.EventBreakStart:
			breakStarted = event.At
			breakCycle = event.CycleID
			logger.Info().Str("cycle", event.CycleID).
				Str("length", schedule.FormatRemaining(event.Remaining)).
				Msg("break started")
			if options.Notifier != nil {
				options.Notifier.Send("Time to look away",
					"Rest your eyes for "+schedule.FormatRemaining(event.Remaining))
			}
		case schedule.EventWorkStart:
			if event.Outcome == schedule.OutcomeNone {
				continue
			}
			logger.Info().Str("outcome", string(event.Outcome)).Msg("break ended")
			if options.Notifier != nil && event.Outcome == schedule.OutcomeCompleted {
				options.Notifier.Send("Break over", "Back to work.")
			}
			if options.History != nil {
				// Writes must survive teardown while the stream drains.
				_, err := options.History.RecordBreak(context.Background(), storage.BreakRecord{
					CycleID:   breakCycle,
					Outcome:   string(event.Outcome),
					Delays:    event.Delays,
					StartedAt: breakStarted,
					EndedAt:   event.At,
				})
				if err != nil {
					logger.Warn().Err(err).Msg("break history write failed")
				}
			}
		}
	}
}

// watchInactivity resets the work countdown whenever the user has been away
// past every configured threshold.
func watchInactivity(ctx context.Context, monitor *useractivity.Monitor, engine *schedule.Schedule,
	timeSource clock.Clock, interval time.Duration, logger zerolog.Logger) error {
	for {
		if err := monitor.WaitForInactivity(ctx); err != nil {
			if errors.Is(err, useractivity.ErrUnsupported) {
				logger.Warn().Msg("idle detection unavailable, inactivity resets disabled")
				return nil
			}
			return nil
		}
		logger.Debug().Msg("user inactive, restarting work countdown")
		engine.ResetWork()
		if err := timeSource.Sleep(ctx, interval); err != nil {
			return nil
		}
	}
}
