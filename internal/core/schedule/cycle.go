package schedule

import (
	"time"

	"github.com/drneuraldog/lookaway/internal/core/model"
)

// Phase is the current mode of a work cycle.
type Phase string

const (
	PhaseWorking  Phase = "working"
	PhaseBreaking Phase = "breaking"
)

// WorkCycle is the runtime countdown state of one configured cycle. It is
// owned by a Schedule and never mutated from outside it.
type WorkCycle struct {
	configID    string
	workLength  time.Duration
	breakLength time.Duration
	phase       Phase
	remaining   time.Duration
	extension   time.Duration
	delays      int
}

func newWorkCycle(config model.WorkCycleConfig) *WorkCycle {
	cycle := &WorkCycle{
		configID:    config.ID,
		workLength:  config.Work.Duration(),
		breakLength: config.Break.Duration(),
	}
	cycle.startWork()
	return cycle
}

func (cycle *WorkCycle) startWork() {
	cycle.phase = PhaseWorking
	cycle.remaining = cycle.workLength
	cycle.extension = 0
	cycle.delays = 0
}

func (cycle *WorkCycle) startBreak() {
	cycle.phase = PhaseBreaking
	cycle.remaining = cycle.breakLength
	cycle.extension = 0
	cycle.delays = 0
}

// phaseLength is the full length of the current phase, including any delay
// extensions while breaking.
func (cycle *WorkCycle) phaseLength() time.Duration {
	if cycle.phase == PhaseWorking {
		return cycle.workLength
	}
	return cycle.breakLength + cycle.extension
}

// countDown decrements the remaining time, clamping at zero, and reports
// whether the phase has expired.
func (cycle *WorkCycle) countDown(delta time.Duration) bool {
	cycle.remaining -= delta
	if cycle.remaining <= 0 {
		cycle.remaining = 0
		return true
	}
	return false
}

func (cycle *WorkCycle) extend(duration time.Duration) {
	cycle.remaining += duration
	cycle.extension += duration
	cycle.delays++
}
