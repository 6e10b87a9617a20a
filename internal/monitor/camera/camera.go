// Package camera tracks the running state of every camera device visible to
// the OS and derives an aggregate "any camera active" signal.
package camera

import (
	"sync"

	"github.com/rs/zerolog"
)

// DeviceID identifies one camera device at the provider.
type DeviceID string

// Well-known property keys a provider may answer.
const (
	PropertyName         = "name"
	PropertyManufacturer = "manufacturer"
	PropertyRunning      = "running"
	PropertyVirtual      = "virtual"
	PropertyVendorID     = "vendor_id"
	PropertyModelID      = "model_id"
)

// Provider is the OS-level camera device source.
type Provider interface {
	ListDevices() ([]DeviceID, error)
	Property(id DeviceID, key string) (any, bool)
	AddListener(id DeviceID, onChange func(running bool)) error
	RemoveListener(id DeviceID)
}

// Info is a per-device snapshot mirrored from the provider.
type Info struct {
	ID           DeviceID
	Name         string
	Manufacturer string
	IsRunning    bool
	IsVirtual    bool
	Vendor       map[string]string
}

// Monitor mirrors the provider's device set and reports whether any camera
// is running. The device set is fixed at construction time.
type Monitor struct {
	mu        sync.Mutex
	provider  Provider
	devices   map[DeviceID]*Info
	order     []DeviceID
	listening map[DeviceID]bool
	callback  func(connected bool)
	log       zerolog.Logger
}

// New creates a Monitor and synchronously snapshots the provider's current
// devices and running states. A listing failure yields an empty, idle
// monitor.
func New(provider Provider, logger zerolog.Logger) *Monitor {
	monitor := &Monitor{
		provider:  provider,
		devices:   make(map[DeviceID]*Info),
		listening: make(map[DeviceID]bool),
		log:       logger,
	}

	ids, err := provider.ListDevices()
	if err != nil {
		logger.Warn().Err(err).Msg("camera device listing failed")
		return monitor
	}
	for _, id := range ids {
		info := snapshotDevice(provider, id)
		monitor.devices[id] = info
		monitor.order = append(monitor.order, id)
	}
	return monitor
}

// IsConnected reports whether at least one known camera is running.
func (monitor *Monitor) IsConnected() bool {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.activeCountLocked() > 0
}

// ActiveCameraCount returns the number of running cameras.
func (monitor *Monitor) ActiveCameraCount() int {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.activeCountLocked()
}

// Devices returns a copy of the mirrored device snapshots, in discovery
// order.
func (monitor *Monitor) Devices() []Info {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	infos := make([]Info, 0, len(monitor.order))
	for _, id := range monitor.order {
		infos = append(infos, *monitor.devices[id])
	}
	return infos
}

// StartListening registers one change listener per known device and invokes
// the callback whenever the aggregate connected signal crosses its boundary.
// Count changes that stay on one side of the boundary produce no callback.
// Devices whose subscription fails are logged and treated as idle; the rest
// keep working.
func (monitor *Monitor) StartListening(callback func(connected bool)) {
	monitor.mu.Lock()
	monitor.callback = callback
	ids := append([]DeviceID(nil), monitor.order...)
	monitor.mu.Unlock()

	for _, id := range ids {
		deviceID := id
		err := monitor.provider.AddListener(deviceID, func(running bool) {
			monitor.onDeviceChange(deviceID, running)
		})

		monitor.mu.Lock()
		if err != nil {
			monitor.log.Warn().Err(err).Str("device", string(deviceID)).
				Msg("camera listener registration failed")
			if info, ok := monitor.devices[deviceID]; ok {
				info.IsRunning = false
			}
		} else {
			monitor.listening[deviceID] = true
		}
		monitor.mu.Unlock()
	}
}

// StopListening removes all device listeners. It is idempotent and no
// callback fires afterwards.
func (monitor *Monitor) StopListening() {
	monitor.mu.Lock()
	ids := make([]DeviceID, 0, len(monitor.listening))
	for id := range monitor.listening {
		ids = append(ids, id)
	}
	monitor.listening = make(map[DeviceID]bool)
	monitor.callback = nil
	monitor.mu.Unlock()

	for _, id := range ids {
		monitor.provider.RemoveListener(id)
	}
}

func (monitor *Monitor) onDeviceChange(id DeviceID, running bool) {
	monitor.mu.Lock()
	info, known := monitor.devices[id]
	if !known || !monitor.listening[id] {
		monitor.mu.Unlock()
		return
	}

	wasConnected := monitor.activeCountLocked() > 0
	info.IsRunning = running
	nowConnected := monitor.activeCountLocked() > 0
	callback := monitor.callback
	monitor.mu.Unlock()

	if wasConnected != nowConnected && callback != nil {
		callback(nowConnected)
	}
}

func (monitor *Monitor) activeCountLocked() int {
	count := 0
	for _, info := range monitor.devices {
		if info.IsRunning {
			count++
		}
	}
	return count
}

func snapshotDevice(provider Provider, id DeviceID) *Info {
	info := &Info{ID: id, Vendor: make(map[string]string)}
	if value, ok := provider.Property(id, PropertyName); ok {
		info.Name, _ = value.(string)
	}
	if value, ok := provider.Property(id, PropertyManufacturer); ok {
		info.Manufacturer, _ = value.(string)
	}
	if value, ok := provider.Property(id, PropertyRunning); ok {
		info.IsRunning, _ = value.(bool)
	}
	if value, ok := provider.Property(id, PropertyVirtual); ok {
		info.IsVirtual, _ = value.(bool)
	}
	for _, key := range []string{PropertyVendorID, PropertyModelID} {
		if value, ok := provider.Property(id, key); ok {
			if text, isText := value.(string); isText {
				info.Vendor[key] = text
			}
		}
	}
	return info
}
