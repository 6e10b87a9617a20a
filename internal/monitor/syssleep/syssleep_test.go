package syssleep

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	nextToken    Token
	handlers     map[Token]func(Notification)
	names        map[Token]string
	failNames    map[string]bool
	unsubscribed []Token
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		handlers:  make(map[Token]func(Notification)),
		names:     make(map[Token]string),
		failNames: make(map[string]bool),
	}
}

func (source *fakeSource) Subscribe(name string, handler func(Notification)) (Token, error) {
	if source.failNames[name] {
		return 0, errors.New("subscription refused")
	}
	source.nextToken++
	source.handlers[source.nextToken] = handler
	source.names[source.nextToken] = name
	return source.nextToken, nil
}

func (source *fakeSource) Unsubscribe(token Token) {
	source.unsubscribed = append(source.unsubscribed, token)
	delete(source.handlers, token)
}

func (source *fakeSource) deliver(name string) {
	for token, handler := range source.handlers {
		if source.names[token] == name {
			handler(Notification{Name: name})
		}
	}
}

func TestDuplicateLockNotificationsEmitOneCallback(t *testing.T) {
	source := newFakeSource()
	monitor := New(source, zerolog.Nop())
	require.Equal(t, StateAwake, monitor.State())

	var seen []State
	monitor.StartListening(func(state State) {
		seen = append(seen, state)
	})

	source.deliver(NoteLock)
	source.deliver(NoteLock)

	require.Equal(t, []State{StateSleeping}, seen)
	assert.Equal(t, StateSleeping, monitor.State())

	source.deliver(NoteUnlock)
	source.deliver(NoteUnlock)

	require.Equal(t, []State{StateSleeping, StateAwake}, seen)
	assert.Equal(t, StateAwake, monitor.State())
}

func TestStopListeningSilencesFurtherNotifications(t *testing.T) {
	source := newFakeSource()
	monitor := New(source, zerolog.Nop())

	calls := 0
	monitor.StartListening(func(State) { calls++ })

	source.deliver(NoteLock)
	require.Equal(t, 1, calls)

	// Keep a handler around to simulate a source that delivers after
	// unsubscribe.
	var straggler func(Notification)
	for _, handler := range source.handlers {
		straggler = handler
		break
	}

	monitor.StopListening()
	monitor.StopListening()
	assert.Len(t, source.unsubscribed, 2, "both notification kinds unsubscribed once")

	source.deliver(NoteLock)
	source.deliver(NoteUnlock)
	if straggler != nil {
		straggler(Notification{Name: NoteLock})
	}
	assert.Equal(t, 1, calls, "no callbacks after StopListening")
}

func TestStartListeningIsIdempotent(t *testing.T) {
	source := newFakeSource()
	monitor := New(source, zerolog.Nop())

	monitor.StartListening(func(State) {})
	monitor.StartListening(func(State) {})

	assert.Len(t, source.handlers, 2, "second StartListening must not double-subscribe")
}

func TestSubscriptionFailureIsIsolated(t *testing.T) {
	source := newFakeSource()
	source.failNames[NoteLock] = true
	monitor := New(source, zerolog.Nop())

	var seen []State
	monitor.StartListening(func(state State) {
		seen = append(seen, state)
	})

	// Lock never fires, unlock still works once the state differs.
	source.deliver(NoteLock)
	assert.Empty(t, seen)
	assert.Equal(t, StateAwake, monitor.State())
}
