package camera

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	ids       []DeviceID
	listErr   error
	props     map[DeviceID]map[string]any
	failAdd   map[DeviceID]bool
	listeners map[DeviceID]func(running bool)
	addCalls  int
	removed   []DeviceID
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		props:     make(map[DeviceID]map[string]any),
		failAdd:   make(map[DeviceID]bool),
		listeners: make(map[DeviceID]func(running bool)),
	}
}

func (provider *fakeProvider) addDevice(id DeviceID, running bool) {
	provider.ids = append(provider.ids, id)
	provider.props[id] = map[string]any{
		PropertyName:         "Camera " + string(id),
		PropertyManufacturer: "ACME",
		PropertyRunning:      running,
		PropertyVirtual:      false,
		PropertyVendorID:     "0x1234",
	}
}

func (provider *fakeProvider) ListDevices() ([]DeviceID, error) {
	if provider.listErr != nil {
		return nil, provider.listErr
	}
	return provider.ids, nil
}

func (provider *fakeProvider) Property(id DeviceID, key string) (any, bool) {
	value, ok := provider.props[id][key]
	return value, ok
}

func (provider *fakeProvider) AddListener(id DeviceID, onChange func(running bool)) error {
	provider.addCalls++
	if provider.failAdd[id] {
		return errors.New("subscription refused")
	}
	provider.listeners[id] = onChange
	return nil
}

func (provider *fakeProvider) RemoveListener(id DeviceID) {
	provider.removed = append(provider.removed, id)
	delete(provider.listeners, id)
}

func (provider *fakeProvider) report(id DeviceID, running bool) {
	if listener, ok := provider.listeners[id]; ok {
		listener(running)
	}
}

func TestInitialSnapshotWithoutListeners(t *testing.T) {
	provider := newFakeProvider()
	provider.addDevice("cam0", true)
	provider.addDevice("cam1", false)

	monitor := New(provider, zerolog.Nop())

	assert.True(t, monitor.IsConnected())
	assert.Equal(t, 1, monitor.ActiveCameraCount())
	assert.Zero(t, provider.addCalls, "no listeners before StartListening")

	devices := monitor.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "Camera cam0", devices[0].Name)
	assert.Equal(t, "ACME", devices[0].Manufacturer)
	assert.Equal(t, "0x1234", devices[0].Vendor[PropertyVendorID])
}

func TestCallbackFiresOnlyOnBoundaryTransitions(t *testing.T) {
	provider := newFakeProvider()
	provider.addDevice("cam0", true)
	provider.addDevice("cam1", true)

	monitor := New(provider, zerolog.Nop())

	var transitions []bool
	monitor.StartListening(func(connected bool) {
		transitions = append(transitions, connected)
	})

	// 2 active -> 1 active: still connected, no callback.
	provider.report("cam0", false)
	assert.Empty(t, transitions)
	assert.Equal(t, 1, monitor.ActiveCameraCount())

	// 1 -> 0 crosses the boundary.
	provider.report("cam1", false)
	require.Equal(t, []bool{false}, transitions)
	assert.False(t, monitor.IsConnected())

	// 0 -> 1 crosses back.
	provider.report("cam1", true)
	require.Equal(t, []bool{false, true}, transitions)
}

func TestStoppedCameraReportsExactlyOnce(t *testing.T) {
	provider := newFakeProvider()
	provider.addDevice("cam0", true)

	monitor := New(provider, zerolog.Nop())
	require.True(t, monitor.IsConnected())

	calls := 0
	monitor.StartListening(func(connected bool) {
		calls++
		assert.False(t, connected)
	})

	provider.report("cam0", false)
	provider.report("cam0", false)

	assert.Equal(t, 1, calls)
	assert.False(t, monitor.IsConnected())
}

func TestStopListeningIsIdempotentAndSilences(t *testing.T) {
	provider := newFakeProvider()
	provider.addDevice("cam0", false)

	monitor := New(provider, zerolog.Nop())
	calls := 0
	monitor.StartListening(func(bool) { calls++ })

	retained := provider.listeners["cam0"]
	monitor.StopListening()
	monitor.StopListening()

	assert.Equal(t, []DeviceID{"cam0"}, provider.removed)

	// A straggler event from a listener the provider failed to tear down
	// must not reach the callback.
	if retained != nil {
		retained(true)
	}
	assert.Zero(t, calls)
}

func TestListenerRegistrationFailureIsIsolated(t *testing.T) {
	provider := newFakeProvider()
	provider.addDevice("cam0", true)
	provider.addDevice("cam1", false)
	provider.failAdd["cam0"] = true

	monitor := New(provider, zerolog.Nop())

	var transitions []bool
	monitor.StartListening(func(connected bool) {
		transitions = append(transitions, connected)
	})

	// The failed device is treated as idle.
	assert.False(t, monitor.IsConnected())

	// The healthy device keeps working.
	provider.report("cam1", true)
	require.Equal(t, []bool{true}, transitions)
}

func TestListDevicesFailureYieldsIdleMonitor(t *testing.T) {
	provider := newFakeProvider()
	provider.listErr = errors.New("backend gone")

	monitor := New(provider, zerolog.Nop())
	assert.False(t, monitor.IsConnected())
	assert.Zero(t, monitor.ActiveCameraCount())
	assert.Empty(t, monitor.Devices())
}
