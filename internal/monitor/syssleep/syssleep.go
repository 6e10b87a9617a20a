// Package syssleep derives a two-state sleeping/awake signal from OS lock
// and unlock notifications.
package syssleep

import (
	"sync"

	"github.com/rs/zerolog"
)

// State is the derived system sleep state.
type State string

const (
	StateSleeping State = "sleeping"
	StateAwake    State = "awake"
)

// Notification names the monitor subscribes to.
const (
	NoteLock   = "screen_locked"
	NoteUnlock = "screen_unlocked"
)

// Notification is one delivery from the notification source.
type Notification struct {
	Name string
}

// Token identifies a subscription at its source.
type Token uint64

// Source is the OS notification feed.
type Source interface {
	Subscribe(name string, handler func(Notification)) (Token, error)
	Unsubscribe(token Token)
}

// Monitor tracks the latest lock/unlock notification. Duplicate
// notifications of the current state are idempotent no-ops.
type Monitor struct {
	mu        sync.Mutex
	source    Source
	state     State
	tokens    []Token
	listening bool
	callback  func(State)
	log       zerolog.Logger
}

// New creates a Monitor in the awake state.
func New(source Source, logger zerolog.Logger) *Monitor {
	return &Monitor{
		source: source,
		state:  StateAwake,
		log:    logger,
	}
}

// State returns the current derived state.
func (monitor *Monitor) State() State {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.state
}

// StartListening subscribes to lock and unlock notifications and invokes the
// callback exactly once per state transition. A failed subscription is
// logged and that notification kind simply never fires; the other keeps
// working.
func (monitor *Monitor) StartListening(callback func(State)) {
	monitor.mu.Lock()
	if monitor.listening {
		monitor.mu.Unlock()
		return
	}
	monitor.listening = true
	monitor.callback = callback
	monitor.mu.Unlock()

	subscriptions := []struct {
		name  string
		state State
	}{
		{NoteLock, StateSleeping},
		{NoteUnlock, StateAwake},
	}
	for _, subscription := range subscriptions {
		next := subscription.state
		token, err := monitor.source.Subscribe(subscription.name, func(Notification) {
			monitor.transition(next)
		})
		if err != nil {
			monitor.log.Warn().Err(err).Str("notification", subscription.name).
				Msg("sleep notification subscription failed")
			continue
		}
		monitor.mu.Lock()
		monitor.tokens = append(monitor.tokens, token)
		monitor.mu.Unlock()
	}
}

// StopListening unsubscribes both notification kinds. It is idempotent and
// no callback fires afterwards even if the source keeps delivering.
func (monitor *Monitor) StopListening() {
	monitor.mu.Lock()
	if !monitor.listening {
		monitor.mu.Unlock()
		return
	}
	monitor.listening = false
	monitor.callback = nil
	tokens := monitor.tokens
	monitor.tokens = nil
	monitor.mu.Unlock()

	for _, token := range tokens {
		monitor.source.Unsubscribe(token)
	}
}

func (monitor *Monitor) transition(next State) {
	monitor.mu.Lock()
	if !monitor.listening || monitor.state == next {
		monitor.mu.Unlock()
		return
	}
	monitor.state = next
	callback := monitor.callback
	monitor.mu.Unlock()

	if callback != nil {
		callback(next)
	}
}
