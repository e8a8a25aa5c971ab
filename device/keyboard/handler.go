package keyboard

import (
	"github.com/Alia5/kbcore/device"
	"github.com/Alia5/kbcore/usb"
)

func init() {
	device.RegisterDevice("keyboard", &handler{})
}

type handler struct{}

func (h *handler) CreateDevice(o *device.CreateOptions) (usb.Device, error) {
	return New(o)
}
