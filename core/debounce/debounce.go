// Package debounce implements a per-key Schmitt-trigger debouncer: a
// saturating integrator with dual thresholds, tolerating contact bounce
// without ringing near either edge.
package debounce

// Default thresholds, per the teacher firmware's own magic numbers.
// Increment has no sane default — it depends on scan-loop cadence and is
// always supplied by the caller.
const (
	DefaultLoToHi uint8 = 155
	DefaultHiToLo uint8 = 100
)

// Debouncer holds the per-key integrators and cleaned state for SIZE keys.
type Debouncer struct {
	Increment uint8
	LoToHi    uint8
	HiToLo    uint8

	integrator []uint8
	clean      []bool
}

// New constructs a Debouncer for size keys. loToHi/hiToLo of 0 fall back to
// the documented defaults.
func New(size int, increment, loToHi, hiToLo uint8) *Debouncer {
	if loToHi == 0 {
		loToHi = DefaultLoToHi
	}
	if hiToLo == 0 {
		hiToLo = DefaultHiToLo
	}
	return &Debouncer{
		Increment:  increment,
		LoToHi:     loToHi,
		HiToLo:     hiToLo,
		integrator: make([]uint8, size),
		clean:      make([]bool, size),
	}
}

func satAdd(v, inc uint8) uint8 {
	if int(v)+int(inc) > 0xFF {
		return 0xFF
	}
	return v + inc
}

func satSub(v, dec uint8) uint8 {
	if int(v)-int(dec) < 0 {
		return 0
	}
	return v - dec
}

// Debounce rewrites keys in place with the cleaned state and reports whether
// any key's cleaned value changed this tick.
//
// Per key: the integrator saturates up on a raw press, down on a raw
// release. clean flips to true once the integrator crosses LoToHi, flips to
// false once it drops below HiToLo, and otherwise holds — the gap between
// the two thresholds is the hysteresis band.
func (d *Debouncer) Debounce(keys []bool) bool {
	changed := false
	for i, raw := range keys {
		if raw {
			d.integrator[i] = satAdd(d.integrator[i], d.Increment)
		} else {
			d.integrator[i] = satSub(d.integrator[i], d.Increment)
		}

		switch {
		case d.integrator[i] > d.LoToHi:
			if !d.clean[i] {
				d.clean[i] = true
				changed = true
			}
		case d.integrator[i] < d.HiToLo:
			if d.clean[i] {
				d.clean[i] = false
				changed = true
			}
		}

		keys[i] = d.clean[i]
	}
	return changed
}
