package usb

import (
	"bytes"

	"github.com/Alia5/kbcore/usb/hid"
)

// HIDFunction bundles a HID class descriptor with its report descriptor for
// one interface. DescriptorBytes/ReportBytes are what the USB/IP server
// serves in response to GET_DESCRIPTOR(HID)/GET_DESCRIPTOR(REPORT).
type HIDFunction struct {
	Descriptor HIDDescriptor
	Report     hid.Report
}

// DescriptorBytes returns the 9-byte HID class descriptor (0x21), with
// WDescriptorLength auto-filled from the report descriptor's encoded size.
func (f *HIDFunction) DescriptorBytes() ([]byte, error) {
	report, err := f.ReportBytes()
	if err != nil {
		return nil, err
	}
	d := f.Descriptor
	d.BNumDescriptors = 1
	d.ClassDescType = ReportDescType
	d.WDescriptorLength = uint16(len(report))

	var b bytes.Buffer
	d.Write(&b)
	return b.Bytes(), nil
}

// ReportBytes returns the encoded HID report descriptor (0x22).
func (f *HIDFunction) ReportBytes() ([]byte, error) {
	return f.Report.Bytes(), nil
}
