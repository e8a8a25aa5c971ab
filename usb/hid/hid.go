// Package hid builds USB HID report descriptors: the byte-code language
// that tells a host how to interpret a device's input/output reports.
package hid

// Item is one encoded report descriptor item (a tag, type and payload).
type Item interface {
	Bytes() []byte
}

// Report is a full HID report descriptor: an ordered list of items.
type Report struct {
	Items []Item
}

// Bytes concatenates every item's encoding in order.
func (r Report) Bytes() []byte {
	var out []byte
	for _, item := range r.Items {
		out = append(out, item.Bytes()...)
	}
	return out
}

// Item type and tag values from the USB HID spec (short items only; long
// items are never needed for keyboard/LED descriptors).
const (
	typeMain   byte = 0
	typeGlobal byte = 1
	typeLocal  byte = 2

	tagInput         byte = 0x8
	tagOutput        byte = 0x9
	tagCollection    byte = 0xA
	tagEndCollection byte = 0xC

	tagUsagePage      byte = 0x0
	tagLogicalMinimum byte = 0x1
	tagLogicalMaximum byte = 0x2
	tagReportSize     byte = 0x7
	tagReportCount    byte = 0x9

	tagUsage        byte = 0x0
	tagUsageMinimum byte = 0x1
	tagUsageMaximum byte = 0x2
)

// Main item data bits (Input/Output/Feature).
const (
	MainData   byte = 0x00
	MainConst  byte = 0x01
	MainArray  byte = 0x00
	MainVar    byte = 0x02
	MainAbs    byte = 0x00
	MainRel    byte = 0x04
	MainNoWrap byte = 0x00
	MainWrap   byte = 0x08
)

// Usage pages and usages actually needed by a keyboard report descriptor.
const (
	UsagePageGenericDesktop uint32 = 0x01
	UsagePageKeyboard       uint32 = 0x07
	UsagePageLEDs           uint32 = 0x08

	UsageKeyboard uint32 = 0x06
)

// Collection kinds.
const (
	CollectionPhysical   uint32 = 0x00
	CollectionApplication uint32 = 0x01
	CollectionLogical    uint32 = 0x02
)

// shortItem encodes a short HID item: a 1-byte prefix (tag, type, size)
// followed by the smallest encoding of value that preserves it (1, 2 or 4
// bytes; 0 is always encoded as a single zero byte).
func shortItem(itemType, tag byte, value uint32) []byte {
	var data []byte
	var sizeCode byte
	switch {
	case value <= 0xFF:
		data = []byte{byte(value)}
		sizeCode = 0x1
	case value <= 0xFFFF:
		data = []byte{byte(value), byte(value >> 8)}
		sizeCode = 0x2
	default:
		data = []byte{byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24)}
		sizeCode = 0x3
	}
	prefix := (tag << 4) | (itemType << 2) | sizeCode
	return append([]byte{prefix}, data...)
}

// UsagePage sets the current usage page (Global).
type UsagePage struct{ Page uint32 }

func (i UsagePage) Bytes() []byte { return shortItem(typeGlobal, tagUsagePage, i.Page) }

// Usage declares a usage within the current page (Local).
type Usage struct{ Usage uint32 }

func (i Usage) Bytes() []byte { return shortItem(typeLocal, tagUsage, i.Usage) }

// UsageMinimum/UsageMaximum bound a usage range (Local).
type UsageMinimum struct{ Min uint32 }

func (i UsageMinimum) Bytes() []byte { return shortItem(typeLocal, tagUsageMinimum, i.Min) }

type UsageMaximum struct{ Max uint32 }

func (i UsageMaximum) Bytes() []byte { return shortItem(typeLocal, tagUsageMaximum, i.Max) }

// LogicalMinimum/LogicalMaximum bound the raw field value range (Global).
type LogicalMinimum struct{ Min uint32 }

func (i LogicalMinimum) Bytes() []byte { return shortItem(typeGlobal, tagLogicalMinimum, i.Min) }

type LogicalMaximum struct{ Max uint32 }

func (i LogicalMaximum) Bytes() []byte { return shortItem(typeGlobal, tagLogicalMaximum, i.Max) }

// ReportSize/ReportCount set the current field's bit width and repeat count
// (Global).
type ReportSize struct{ Bits uint32 }

func (i ReportSize) Bytes() []byte { return shortItem(typeGlobal, tagReportSize, i.Bits) }

type ReportCount struct{ Count uint32 }

func (i ReportCount) Bytes() []byte { return shortItem(typeGlobal, tagReportCount, i.Count) }

// Input/Output emit a Main item describing one field of the current report,
// using the Data/Variable/Absolute-style Flags built from the Main* bits.
type Input struct{ Flags byte }

func (i Input) Bytes() []byte { return shortItem(typeMain, tagInput, uint32(i.Flags)) }

type Output struct{ Flags byte }

func (i Output) Bytes() []byte { return shortItem(typeMain, tagOutput, uint32(i.Flags)) }

// Collection opens a Main collection item, emits its children, and closes
// it with End Collection.
type Collection struct {
	Kind  uint32
	Items []Item
}

func (i Collection) Bytes() []byte {
	out := shortItem(typeMain, tagCollection, i.Kind)
	for _, item := range i.Items {
		out = append(out, item.Bytes()...)
	}
	out = append(out, (tagEndCollection<<4)|(typeMain<<2))
	return out
}
