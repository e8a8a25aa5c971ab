package keys

import "github.com/Alia5/kbcore/core/keycode"

type modTapKind int

const (
	mtUnpressed modTapKind = iota
	mtWait
	mtMod
	mtTap
	mtDoubleTapWait
	mtDoubleTap
)

// ModTap is the mod-tap key variant: held past ModTimeout it behaves as
// Hold, released quickly it behaves as Tap. A rapid second press within
// TapRepeat of the release is recognised as a double-tap continuation
// rather than a fresh mod-tap attempt.
type ModTap struct {
	Hold, Tap keycode.Code

	kind    modTapKind
	expire  Tick // valid in mtWait
	release Tick // valid in mtTap
	again   Tick // valid in mtTap, mtDoubleTapWait
}

// NewModTap returns a ModTap bound to the given hold/tap keycodes.
func NewModTap(hold, tap keycode.Code) *ModTap {
	return &ModTap{Hold: hold, Tap: tap}
}

// Step advances the mod-tap machine per the transition table: unlisted
// (state, input) pairs are self-loops.
func (m *ModTap) Step(pressed bool, now Tick, ctx Context) {
	switch m.kind {
	case mtUnpressed:
		if pressed {
			m.kind = mtWait
			m.expire = now + ctx.ModTap.ModTimeout
		}

	case mtWait:
		switch {
		case pressed && now >= m.expire:
			m.kind = mtMod
		case !pressed:
			m.kind = mtTap
			m.release = now + ctx.ModTap.TapRelease
			m.again = now + ctx.ModTap.TapRepeat
		}

	case mtMod:
		if !pressed {
			m.kind = mtUnpressed
		}

	case mtTap:
		switch {
		case !pressed && now >= m.release && now >= m.again:
			m.kind = mtUnpressed
		case !pressed && now >= m.release && now < m.again:
			m.kind = mtDoubleTapWait
		case pressed && now >= m.again:
			m.kind = mtWait
			m.expire = now + ctx.ModTap.ModTimeout
		case pressed && now < m.again:
			m.kind = mtDoubleTapWait
		}

	case mtDoubleTapWait:
		switch {
		case pressed && now < m.again:
			m.kind = mtDoubleTap
		case !pressed && now >= m.again:
			m.kind = mtUnpressed
		}

	case mtDoubleTap:
		if !pressed {
			m.kind = mtDoubleTapWait
			m.again = now + ctx.ModTap.TapRepeat
		}
	}
}

func (m *ModTap) Emitted() (keycode.Code, bool) {
	switch m.kind {
	case mtMod:
		return m.Hold, true
	case mtTap, mtDoubleTap:
		return m.Tap, true
	default:
		return keycode.Null, false
	}
}

func (m *ModTap) IsFinished() bool {
	return m.kind == mtUnpressed
}
