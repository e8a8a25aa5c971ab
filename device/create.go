package device

// CreateOptions carries the identifying fields a caller may override when
// instantiating a device (USB vendor/product IDs). Fields left nil keep the
// device type's own defaults.
type CreateOptions struct {
	IdVendor  *uint16
	IdProduct *uint16
}
