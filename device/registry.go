package device

import (
	"sync"

	"github.com/Alia5/kbcore/usb"
)

// Registration describes one buildable device type.
type Registration interface {
	// CreateDevice returns a new device instance of this type.
	CreateDevice(o *CreateOptions) (usb.Device, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// RegisterDevice registers a device type under name (case-insensitive).
// Called from device package init() functions.
func RegisterDevice(name string, reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[toLower(name)] = reg
}

// GetRegistration looks up a registered device type by name. Returns nil if
// no device type of that name was registered.
func GetRegistration(name string) Registration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[toLower(name)]
}

// ListDeviceTypes returns every registered device type name.
func ListDeviceTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func toLower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
