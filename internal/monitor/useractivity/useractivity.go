// Package useractivity detects when the user has stopped interacting with
// the machine, judged against a set of per-input-kind idle thresholds.
package useractivity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/drneuraldog/lookaway/internal/core/clock"
)

// ErrUnsupported indicates idle sampling is not available for an input kind
// on this system.
var ErrUnsupported = errors.New("idle sampling unsupported")

// Kind identifies a class of input events.
type Kind string

const (
	KindKeyUp       Kind = "key_up"
	KindLeftMouseUp Kind = "left_mouse_up"
	KindMouseMoved  Kind = "mouse_moved"
)

// Threshold pairs an input kind with the idle time that must elapse for it.
type Threshold struct {
	Kind Kind
	Idle time.Duration
}

// Sampler reports the time since the last interaction of the given kind.
type Sampler func(kind Kind) (time.Duration, error)

// Config contains runtime options for a Monitor.
type Config struct {
	PollInterval time.Duration
}

// Monitor polls an injected sampler until every configured threshold is
// exceeded at the same time.
type Monitor struct {
	timeSource clock.Clock
	interval   time.Duration
	thresholds []Threshold
	sample     Sampler
	log        zerolog.Logger
}

// New creates a Monitor. The sampler is required unless the threshold set is
// empty.
func New(timeSource clock.Clock, thresholds []Threshold, sampler Sampler, options Config, logger zerolog.Logger) *Monitor {
	if options.PollInterval <= 0 {
		options.PollInterval = time.Second
	}
	return &Monitor{
		timeSource: timeSource,
		interval:   options.PollInterval,
		thresholds: append([]Threshold(nil), thresholds...),
		sample:     sampler,
		log:        logger,
	}
}

// WaitForInactivity blocks until every threshold is exceeded simultaneously,
// re-sampling the full set once per poll interval. With no thresholds
// configured it returns immediately without sampling. Kinds the sampler
// reports as unsupported stop being evaluated; if every kind is unsupported
// the wait fails with ErrUnsupported.
func (monitor *Monitor) WaitForInactivity(ctx context.Context) error {
	if len(monitor.thresholds) == 0 {
		return nil
	}

	supported := append([]Threshold(nil), monitor.thresholds...)
	for {
		remaining := supported[:0]
		satisfied := true
		for _, threshold := range supported {
			idle, err := monitor.sample(threshold.Kind)
			if err != nil {
				if errors.Is(err, ErrUnsupported) {
					monitor.log.Warn().Str("kind", string(threshold.Kind)).
						Msg("idle sampling unsupported, dropping threshold")
					continue
				}
				monitor.log.Warn().Err(err).Str("kind", string(threshold.Kind)).
					Msg("idle sample failed")
				satisfied = false
				remaining = append(remaining, threshold)
				continue
			}
			remaining = append(remaining, threshold)
			if idle <= threshold.Idle {
				satisfied = false
			}
		}
		supported = remaining

		if len(supported) == 0 {
			return ErrUnsupported
		}
		if satisfied {
			return nil
		}
		if err := monitor.timeSource.Sleep(ctx, monitor.interval); err != nil {
			return err
		}
	}
}

// Thresholds returns a copy of the configured threshold set.
func (monitor *Monitor) Thresholds() []Threshold {
	return append([]Threshold(nil), monitor.thresholds...)
}
