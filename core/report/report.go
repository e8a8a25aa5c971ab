// Package report assembles the bounded, duplicate-tolerant NKRO keycode set
// emitted for one tick.
package report

import "github.com/Alia5/kbcore/core/keycode"

// Report is a bounded ordered list of keycodes (capacity Rollover),
// excluding keycode.Null. It is rebuilt from scratch every tick — never
// merged with a prior tick's contents.
type Report struct {
	Keys     []keycode.Code
	Rollover bool
	capacity int
}

// New returns an empty Report with the given capacity (the ROLLOVER
// constant, typically 32 or 36).
func New(capacity int) *Report {
	return &Report{
		Keys:     make([]keycode.Code, 0, capacity),
		capacity: capacity,
	}
}

// Reset clears the report for a new tick.
func (r *Report) Reset() {
	r.Keys = r.Keys[:0]
	r.Rollover = false
}

// Add appends a keycode, unless it is Null (silently dropped) or the report
// is already at capacity (dropped, and Rollover is set).
func (r *Report) Add(k keycode.Code) {
	if k == keycode.Null {
		return
	}
	if len(r.Keys) >= r.capacity {
		r.Rollover = true
		return
	}
	r.Keys = append(r.Keys, k)
}

// Clone returns a deep copy, safe to hand to a reader on another goroutine
// while this Report keeps mutating.
func (r *Report) Clone() *Report {
	out := &Report{
		Keys:     make([]keycode.Code, len(r.Keys)),
		Rollover: r.Rollover,
		capacity: r.capacity,
	}
	copy(out.Keys, r.Keys)
	return out
}
