package chip8

import (
	"sync"
)

const (
	Width  int = 64
	Height int = 32
	Area   int = Width * Height
)

// Pixel intensity values. A drawn pixel is fully on; flipping it off moves it
// to PixelPreOff rather than black so the renderer can fade it out over the
// following frames.
const (
	PixelOn     uint8 = 0xFF
	PixelPreOff uint8 = 0xFE
	PixelOff    uint8 = 0x00

	// FadeStep is how much a decaying pixel darkens per rendered frame.
	FadeStep uint8 = 0x18
)

// Display is the shared 64x32 pixel buffer. The interpreter writes it through
// Flip and Clear, the renderer reads it through Snapshot and drives the
// fade-out through Fade. Every access takes the lock for just that access, so
// a concurrent reader always sees consistent cell values.
type Display struct {
	mu     sync.Mutex
	pixels [Area]uint8
}

func index(x, y int) int {
	return y*Width + x
}

// Flip toggles the pixel at (x, y): off becomes fully on, on becomes the
// pre-fade off value. It reports whether an on pixel was turned off. Flips
// outside the display are dropped.
func (d *Display) Flip(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p := &d.pixels[index(x, y)]
	wasOn := *p == PixelOn
	if wasOn {
		*p = PixelPreOff
	} else {
		*p = PixelOn
	}
	return wasOn
}

// Clear marks every fully-on pixel as just turned off. Pixels already fading
// keep their current intensity.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.pixels {
		if d.pixels[i] > PixelPreOff {
			d.pixels[i] = PixelPreOff
		}
	}
}

// Fade advances the fade-out by one step: every pixel strictly between fully
// on and fully off decays toward off. Called by the renderer once per frame,
// never by the interpreter.
func (d *Display) Fade() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, p := range d.pixels {
		if p == PixelOn || p == PixelOff {
			continue
		}
		if p > FadeStep {
			d.pixels[i] = p - FadeStep
		} else {
			d.pixels[i] = PixelOff
		}
	}
}

// Snapshot copies the buffer into dst, which must hold Area bytes.
func (d *Display) Snapshot(dst []uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()

	copy(dst, d.pixels[:])
}

// At returns the intensity of the pixel at (x, y).
func (d *Display) At(x, y int) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pixels[index(x, y)]
}
