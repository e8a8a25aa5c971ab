package engine

import "github.com/Alia5/kbcore/core/keys"

// Clock hands out the monotonic tick value the keymap's state machines time
// against. The real clock is just a counter incremented once per scan; New
// always installs it and offers no way to supply another Clock.
type Clock interface {
	Next() keys.Tick
}

// tickCounter is the Clock used by Run: an in-memory counter, one tick per
// scan iteration, independent of wall-clock time.
type tickCounter struct {
	tick keys.Tick
}

func (c *tickCounter) Next() keys.Tick {
	c.tick++
	return c.tick
}
