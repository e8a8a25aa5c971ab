package keys

import "github.com/Alia5/kbcore/core/keycode"

type buttonState int

const (
	buttonUnpressed buttonState = iota
	buttonPressed
)

// Button is the plain-keycode key variant: pressed emits key, released
// emits nothing.
type Button struct {
	Key   keycode.Code
	state buttonState
}

// NewButton returns a Button bound to the given keycode, starting idle.
func NewButton(key keycode.Code) *Button {
	return &Button{Key: key}
}

func (b *Button) Step(pressed bool, now Tick, ctx Context) {
	switch b.state {
	case buttonUnpressed:
		if pressed {
			b.state = buttonPressed
		}
	case buttonPressed:
		if !pressed {
			b.state = buttonUnpressed
		}
	}
}

func (b *Button) Emitted() (keycode.Code, bool) {
	if b.state == buttonPressed && b.Key != keycode.Null {
		return b.Key, true
	}
	return keycode.Null, false
}

func (b *Button) IsFinished() bool {
	return b.state == buttonUnpressed
}
