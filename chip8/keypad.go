package chip8

import (
	"sync/atomic"
)

const KeyCount int = 16

// Keypad holds the shared state of the 16 logical CHIP-8 keys. The input
// poller writes it, the interpreter's key instructions read it. Each key
// carries two independent flags: currently held down, and released since the
// interpreter last looked. The flags are atomics; keys are logically
// independent, so no cross-key ordering is needed.
type Keypad struct {
	down     [KeyCount]atomic.Bool
	released [KeyCount]atomic.Bool
}

// Press marks the key as held down.
func (k *Keypad) Press(key uint8) {
	k.down[key&0x0F].Store(true)
}

// Release marks the key as up and latches its release for TakeReleased.
func (k *Keypad) Release(key uint8) {
	key &= 0x0F
	k.down[key].Store(false)
	k.released[key].Store(true)
}

// Down reports whether the key is currently held.
func (k *Keypad) Down(key uint8) bool {
	return k.down[key&0x0F].Load()
}

// TakeReleased consumes one pending release latch, lowest key first, and
// returns the key code. ok is false when no release is pending.
func (k *Keypad) TakeReleased() (key uint8, ok bool) {
	for i := range k.released {
		if k.released[i].CompareAndSwap(true, false) {
			return uint8(i), true
		}
	}
	return 0, false
}
