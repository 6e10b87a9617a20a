// Package model holds the configuration value types shared by the engine,
// storage and the CLI.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Unit is the time unit of a TimeSpan.
type Unit string

const (
	UnitSeconds Unit = "seconds"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
)

// ErrUnknownUnit indicates a TimeSpan with an unrecognized unit.
var ErrUnknownUnit = errors.New("unknown time unit")

// ErrEmptySchedule indicates a schedule with no work cycles.
var ErrEmptySchedule = errors.New("schedule has no work cycles")

// TimeSpan is a value with a time unit. All engine math normalizes to
// seconds.
type TimeSpan struct {
	Value int  `yaml:"value"`
	Unit  Unit `yaml:"unit"`
}

// Seconds returns the span normalized to whole seconds.
func (span TimeSpan) Seconds() int {
	switch span.Unit {
	case UnitMinutes:
		return span.Value * 60
	case UnitHours:
		return span.Value * 3600
	default:
		return span.Value
	}
}

// Duration returns the span as a time.Duration.
func (span TimeSpan) Duration() time.Duration {
	return time.Duration(span.Seconds()) * time.Second
}

// Validate checks the span for a known unit and a positive value.
func (span TimeSpan) Validate() error {
	switch span.Unit {
	case UnitSeconds, UnitMinutes, UnitHours:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownUnit, span.Unit)
	}
	if span.Value <= 0 {
		return fmt.Errorf("time span must be positive, got %d %s", span.Value, span.Unit)
	}
	return nil
}

// Span is a TimeSpan constructor shorthand.
func Span(value int, unit Unit) TimeSpan {
	return TimeSpan{Value: value, Unit: unit}
}

// WorkCycleConfig is one configured work/break pair. The ID is opaque and
// only used to keep list edits stable.
type WorkCycleConfig struct {
	ID    string   `yaml:"id"`
	Work  TimeSpan `yaml:"work"`
	Break TimeSpan `yaml:"break"`
}

// NewWorkCycleConfig creates a cycle config with a fresh id.
func NewWorkCycleConfig(work, rest TimeSpan) WorkCycleConfig {
	return WorkCycleConfig{
		ID:    uuid.NewString(),
		Work:  work,
		Break: rest,
	}
}

// Validate checks both spans of the cycle.
func (config WorkCycleConfig) Validate() error {
	if err := config.Work.Validate(); err != nil {
		return fmt.Errorf("work length: %w", err)
	}
	if err := config.Break.Validate(); err != nil {
		return fmt.Errorf("break length: %w", err)
	}
	return nil
}

// ValidateSchedule checks an ordered cycle list for use by the engine.
func ValidateSchedule(cycles []WorkCycleConfig) error {
	if len(cycles) == 0 {
		return ErrEmptySchedule
	}
	for index, cycle := range cycles {
		if err := cycle.Validate(); err != nil {
			return fmt.Errorf("cycle %d: %w", index, err)
		}
	}
	return nil
}

// DefaultSchedule returns the built-in schedule used when nothing is stored:
// three 15-minute work stretches with 10-second micro breaks, then one with a
// 5-minute rest.
func DefaultSchedule() []WorkCycleConfig {
	return []WorkCycleConfig{
		NewWorkCycleConfig(Span(15, UnitMinutes), Span(10, UnitSeconds)),
		NewWorkCycleConfig(Span(15, UnitMinutes), Span(10, UnitSeconds)),
		NewWorkCycleConfig(Span(15, UnitMinutes), Span(10, UnitSeconds)),
		NewWorkCycleConfig(Span(15, UnitMinutes), Span(5, UnitMinutes)),
	}
}
