// Package schedule implements the break scheduling state machine: an ordered
// list of work cycles, the countdown that advances through their phases, and
// the commands a user can issue against it.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/drneuraldog/lookaway/internal/core/clock"
	"github.com/drneuraldog/lookaway/internal/core/model"
)

// Config contains runtime options for a Schedule.
type Config struct {
	TickInterval time.Duration
}

// Schedule orchestrates a wrapping sequence of work cycles. All state is
// guarded by a single mutex so that commands are atomic with respect to the
// tick loop.
type Schedule struct {
	mu           sync.Mutex
	timeSource   clock.Clock
	tickInterval time.Duration
	cycles       []*WorkCycle
	configs      []model.WorkCycleConfig
	active       int
	completed    int
	delayed      int
	skipped      int
	paused       bool
	running      bool
	breakGate    func() bool
	events       []chan Event
	cancel       context.CancelFunc
	done         chan struct{}
}

// Snapshot is a read-only view of the schedule state.
type Snapshot struct {
	Phase       Phase
	Remaining   time.Duration
	PhaseLength time.Duration
	CycleID     string
	ActiveCycle int
	CycleCount  int
	Completed   int
	Delayed     int
	Skipped     int
	Paused      bool
	Running     bool
}

// New creates a Schedule over the given cycle list. The list must be valid
// and non-empty.
func New(timeSource clock.Clock, cycles []model.WorkCycleConfig, options Config) (*Schedule, error) {
	if err := model.ValidateSchedule(cycles); err != nil {
		return nil, err
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}

	runtime := make([]*WorkCycle, len(cycles))
	for index, config := range cycles {
		runtime[index] = newWorkCycle(config)
	}

	return &Schedule{
		timeSource:   timeSource,
		tickInterval: options.TickInterval,
		cycles:       runtime,
		configs:      append([]model.WorkCycleConfig(nil), cycles...),
	}, nil
}

// SetBreakGate installs a predicate consulted when the work phase expires.
// While it returns true the break trigger is deferred one tick at a time.
func (schedule *Schedule) SetBreakGate(gate func() bool) {
	schedule.mu.Lock()
	defer schedule.mu.Unlock()
	schedule.breakGate = gate
}

// Subscribe registers a new observer channel. The channel is closed by Stop.
func (schedule *Schedule) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	schedule.mu.Lock()
	schedule.events = append(schedule.events, ch)
	schedule.mu.Unlock()
	return ch
}

// Start launches the ticking loop on the first cycle's work phase. Calling
// Start on a running schedule is a no-op.
func (schedule *Schedule) Start(ctx context.Context) error {
	schedule.mu.Lock()
	if schedule.running {
		schedule.mu.Unlock()
		return nil
	}
	if len(schedule.cycles) == 0 {
		schedule.mu.Unlock()
		return model.ErrEmptySchedule
	}
	schedule.running = true
	schedule.paused = false
	schedule.active = 0
	schedule.cycles[0].startWork()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	schedule.cancel = cancel
	schedule.done = done
	schedule.emitLocked(schedule.eventLocked(EventWorkStart, OutcomeNone))
	schedule.mu.Unlock()

	go schedule.run(runCtx, done)
	return nil
}

// Stop terminates the ticking loop, waits for it to unwind and closes all
// observer channels, whether or not the schedule ever ran. No event is
// delivered after Stop returns.
func (schedule *Schedule) Stop() {
	schedule.mu.Lock()
	running := schedule.running
	cancel := schedule.cancel
	done := schedule.done
	schedule.running = false
	schedule.cancel = nil
	schedule.done = nil
	schedule.mu.Unlock()

	if running {
		cancel()
		<-done
	}

	schedule.mu.Lock()
	observers := schedule.events
	schedule.events = nil
	schedule.mu.Unlock()
	for _, ch := range observers {
		close(ch)
	}
}

// Pause freezes the countdown without altering phase or remaining time.
func (schedule *Schedule) Pause() {
	schedule.mu.Lock()
	if schedule.paused {
		schedule.mu.Unlock()
		return
	}
	schedule.paused = true
	schedule.emitLocked(schedule.eventLocked(EventPaused, OutcomeNone))
	schedule.mu.Unlock()
}

// Resume unfreezes the countdown.
func (schedule *Schedule) Resume() {
	schedule.mu.Lock()
	if !schedule.paused {
		schedule.mu.Unlock()
		return
	}
	schedule.paused = false
	schedule.emitLocked(schedule.eventLocked(EventResumed, OutcomeNone))
	schedule.mu.Unlock()
}

// Skip forces an immediate advance to the next cycle's work phase. Skipping
// out of a break counts as skipped; ending work early counts as neither
// skipped nor completed.
func (schedule *Schedule) Skip() {
	schedule.mu.Lock()
	outcome := OutcomeNone
	if schedule.currentLocked().phase == PhaseBreaking {
		schedule.skipped++
		outcome = OutcomeSkipped
	}
	schedule.advanceLocked(outcome)
	schedule.mu.Unlock()
}

// Delay extends the running break by the given duration. Outside a break it
// is a no-op.
func (schedule *Schedule) Delay(duration time.Duration) {
	if duration <= 0 {
		return
	}
	schedule.mu.Lock()
	cycle := schedule.currentLocked()
	if cycle.phase != PhaseBreaking {
		schedule.mu.Unlock()
		return
	}
	cycle.extend(duration)
	schedule.delayed++
	schedule.emitLocked(schedule.eventLocked(EventProgress, OutcomeNone))
	schedule.mu.Unlock()
}

// SetSchedule replaces the cycle list and restarts on the first cycle's work
// phase. An invalid list is rejected and the previous schedule is retained.
func (schedule *Schedule) SetSchedule(cycles []model.WorkCycleConfig) error {
	if err := model.ValidateSchedule(cycles); err != nil {
		return err
	}

	runtime := make([]*WorkCycle, len(cycles))
	for index, config := range cycles {
		runtime[index] = newWorkCycle(config)
	}

	schedule.mu.Lock()
	schedule.cycles = runtime
	schedule.configs = append([]model.WorkCycleConfig(nil), cycles...)
	schedule.active = 0
	schedule.emitLocked(schedule.eventLocked(EventWorkStart, OutcomeNone))
	schedule.mu.Unlock()
	return nil
}

// ResetWork restarts the current work countdown. Used when the user has been
// away long enough that the worked time no longer counts. No-op during a
// break.
func (schedule *Schedule) ResetWork() {
	schedule.mu.Lock()
	cycle := schedule.currentLocked()
	if cycle.phase == PhaseWorking {
		cycle.startWork()
		schedule.emitLocked(schedule.eventLocked(EventProgress, OutcomeNone))
	}
	schedule.mu.Unlock()
}

// State returns a consistent snapshot of the schedule.
func (schedule *Schedule) State() Snapshot {
	schedule.mu.Lock()
	defer schedule.mu.Unlock()
	cycle := schedule.currentLocked()
	return Snapshot{
		Phase:       cycle.phase,
		Remaining:   cycle.remaining,
		PhaseLength: cycle.phaseLength(),
		CycleID:     cycle.configID,
		ActiveCycle: schedule.active,
		CycleCount:  len(schedule.cycles),
		Completed:   schedule.completed,
		Delayed:     schedule.delayed,
		Skipped:     schedule.skipped,
		Paused:      schedule.paused,
		Running:     schedule.running,
	}
}

// Configs returns a copy of the configured cycle list.
func (schedule *Schedule) Configs() []model.WorkCycleConfig {
	schedule.mu.Lock()
	defer schedule.mu.Unlock()
	return append([]model.WorkCycleConfig(nil), schedule.configs...)
}

// run owns its done channel so that Stop clearing the field cannot race the
// deferred close.
func (schedule *Schedule) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		if err := schedule.timeSource.Sleep(ctx, schedule.tickInterval); err != nil {
			return
		}
		schedule.tick()
	}
}

func (schedule *Schedule) tick() {
	schedule.mu.Lock()
	defer schedule.mu.Unlock()
	if !schedule.running || schedule.paused {
		return
	}

	cycle := schedule.currentLocked()
	expired := cycle.countDown(schedule.tickInterval)
	switch {
	case expired && cycle.phase == PhaseWorking:
		if schedule.breakGate != nil && schedule.breakGate() {
			// Hold at zero and retry next tick.
			schedule.emitLocked(schedule.eventLocked(EventProgress, OutcomeNone))
			return
		}
		cycle.startBreak()
		schedule.emitLocked(schedule.eventLocked(EventBreakStart, OutcomeNone))
	case expired && cycle.phase == PhaseBreaking:
		schedule.completed++
		schedule.advanceLocked(OutcomeCompleted)
	default:
		schedule.emitLocked(schedule.eventLocked(EventProgress, OutcomeNone))
	}
}

func (schedule *Schedule) currentLocked() *WorkCycle {
	return schedule.cycles[schedule.active]
}

func (schedule *Schedule) advanceLocked(outcome Outcome) {
	delays := schedule.currentLocked().delays
	schedule.active = (schedule.active + 1) % len(schedule.cycles)
	schedule.currentLocked().startWork()
	event := schedule.eventLocked(EventWorkStart, outcome)
	event.Delays = delays
	schedule.emitLocked(event)
}

func (schedule *Schedule) eventLocked(eventType EventType, outcome Outcome) Event {
	cycle := schedule.currentLocked()
	return Event{
		Type:        eventType,
		Phase:       cycle.phase,
		Remaining:   cycle.remaining,
		PhaseLength: cycle.phaseLength(),
		CycleID:     cycle.configID,
		Outcome:     outcome,
		At:          schedule.timeSource.Now(),
	}
}

func (schedule *Schedule) emitLocked(event Event) {
	for _, ch := range schedule.events {
		select {
		case ch <- event:
		default:
		}
	}
}
