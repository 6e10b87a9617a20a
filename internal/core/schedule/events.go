package schedule

import "time"

// EventType defines the type of Schedule event.
type EventType string

const (
	// EventBreakStart is the break trigger that launches the interruption.
	EventBreakStart EventType = "break_start"
	// EventWorkStart fires when a cycle enters its work phase, including the
	// advance past a finished or skipped break.
	EventWorkStart EventType = "work_start"
	// EventProgress fires once per tick with the running countdown.
	EventProgress EventType = "progress"
	EventPaused   EventType = "paused"
	EventResumed  EventType = "resumed"
)

// Outcome records how the phase preceding a work start ended.
type Outcome string

const (
	// OutcomeCompleted means the break ran its full length.
	OutcomeCompleted Outcome = "completed"
	// OutcomeSkipped means the user skipped out of a break.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNone means no break ended, e.g. work was skipped or the
	// schedule was reconfigured.
	OutcomeNone Outcome = ""
)

// Event represents a Schedule update for observers.
type Event struct {
	Type        EventType
	Phase       Phase
	Remaining   time.Duration
	PhaseLength time.Duration
	CycleID     string
	Outcome     Outcome
	// Delays counts the delay extensions applied to the break that just
	// ended; only set on EventWorkStart.
	Delays int
	At     time.Time
}
