// Package registry's only job is to pull in every device package's init()
// side effect (device.RegisterDevice) so cmd/kbcore can resolve a device
// type by name without importing device packages directly.
package registry

import (
	_ "github.com/Alia5/kbcore/device/keyboard" // Register keyboard device handler
)
