package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Virtual is a Clock that only moves when Advance is called. Sleeps whose
// deadlines fall inside an Advance are completed in deadline order,
// registration order for ties.
type Virtual struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	nextSeq uint64
	waiters []*waiter
}

type waiter struct {
	seq      uint64
	deadline time.Time
	done     chan struct{}
}

// NewVirtual creates a virtual clock starting at the given instant.
func NewVirtual(start time.Time) *Virtual {
	virtual := &Virtual{now: start}
	virtual.changed = sync.NewCond(&virtual.mu)
	return virtual
}

// Now returns the virtual current time.
func (virtual *Virtual) Now() time.Time {
	virtual.mu.Lock()
	defer virtual.mu.Unlock()
	return virtual.now
}

// Sleep blocks until Advance has moved the clock past the deadline or the
// context is cancelled.
func (virtual *Virtual) Sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}

	virtual.mu.Lock()
	entry := &waiter{
		seq:      virtual.nextSeq,
		deadline: virtual.now.Add(duration),
		done:     make(chan struct{}),
	}
	virtual.nextSeq++
	virtual.waiters = append(virtual.waiters, entry)
	virtual.changed.Broadcast()
	virtual.mu.Unlock()

	select {
	case <-entry.done:
		return nil
	case <-ctx.Done():
		virtual.remove(entry)
		return ctx.Err()
	}
}

// Advance moves the clock forward and wakes every sleeper whose deadline is
// reached. Negative durations are ignored.
func (virtual *Virtual) Advance(duration time.Duration) {
	if duration < 0 {
		return
	}

	virtual.mu.Lock()
	target := virtual.now.Add(duration)

	due := make([]*waiter, 0, len(virtual.waiters))
	rest := virtual.waiters[:0]
	for _, entry := range virtual.waiters {
		if !entry.deadline.After(target) {
			due = append(due, entry)
		} else {
			rest = append(rest, entry)
		}
	}
	virtual.waiters = rest
	sort.SliceStable(due, func(left, right int) bool {
		if due[left].deadline.Equal(due[right].deadline) {
			return due[left].seq < due[right].seq
		}
		return due[left].deadline.Before(due[right].deadline)
	})

	for _, entry := range due {
		virtual.now = entry.deadline
		close(entry.done)
	}
	virtual.now = target
	virtual.changed.Broadcast()
	virtual.mu.Unlock()
}

// BlockUntil waits until at least count sleepers are registered. Tests use it
// to synchronize with a loop that sleeps between ticks.
func (virtual *Virtual) BlockUntil(count int) {
	virtual.mu.Lock()
	for len(virtual.waiters) < count {
		virtual.changed.Wait()
	}
	virtual.mu.Unlock()
}

// Sleepers reports how many sleeps are currently pending.
func (virtual *Virtual) Sleepers() int {
	virtual.mu.Lock()
	defer virtual.mu.Unlock()
	return len(virtual.waiters)
}

func (virtual *Virtual) remove(entry *waiter) {
	virtual.mu.Lock()
	defer virtual.mu.Unlock()
	for index, candidate := range virtual.waiters {
		if candidate == entry {
			virtual.waiters = append(virtual.waiters[:index], virtual.waiters[index+1:]...)
			virtual.changed.Broadcast()
			return
		}
	}
}
