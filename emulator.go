// Package vip8 wires the CHIP-8 interpreter to a fyne window. The window
// renders the shared display buffer as greyscale once per frame and feeds
// keyboard events into the shared key state; the interpreter and timer loops
// run as goroutines on their own clocks and never call into the window.
package vip8

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/retroenv/retrogolib/log"

	"vip8/chip8"
)

const (
	windowTitle = "CHIP-8 Emulator"
	windowScale = 16
	frameRate   = time.Second / 60
)

// keyMap is the fixed physical-to-logical layout: the 1234/QWER/ASDF/ZXCV
// block covers the 4x4 CHIP-8 pad.
var keyMap = map[fyne.KeyName]uint8{
	fyne.Key1: 0x1, fyne.Key2: 0x2, fyne.Key3: 0x3, fyne.Key4: 0xC,
	fyne.KeyQ: 0x4, fyne.KeyW: 0x5, fyne.KeyE: 0x6, fyne.KeyR: 0xD,
	fyne.KeyA: 0x7, fyne.KeyS: 0x8, fyne.KeyD: 0x9, fyne.KeyF: 0xE,
	fyne.KeyZ: 0xA, fyne.KeyX: 0x0, fyne.KeyC: 0xB, fyne.KeyV: 0xF,
}

// Emulator owns one emulation session: the interpreter and the state it
// shares with the renderer, input poller and timer loop.
type Emulator struct {
	display *chip8.Display
	keypad  *chip8.Keypad
	timers  *chip8.Timers
	cpu     *chip8.CPU
	logger  *log.Logger
}

func New(quirks chip8.Quirks, logger *log.Logger) *Emulator {
	e := &Emulator{
		display: &chip8.Display{},
		keypad:  &chip8.Keypad{},
		timers:  &chip8.Timers{},
		logger:  logger,
	}
	e.cpu = chip8.New(e.display, e.keypad, e.timers, quirks, logger)
	return e
}

// CPU returns the interpreter, for configuration before Run.
func (e *Emulator) CPU() *chip8.CPU {
	return e.cpu
}

// Load copies a ROM image into interpreter memory.
func (e *Emulator) Load(rom []byte) error {
	return e.cpu.Load(rom)
}

func (e *Emulator) onKeyDown(k *fyne.KeyEvent) {
	if key, ok := keyMap[k.Name]; ok {
		e.keypad.Press(key)
	}
}

func (e *Emulator) onKeyUp(k *fyne.KeyEvent) {
	if key, ok := keyMap[k.Name]; ok {
		e.keypad.Release(key)
	}
}

// renderLoop copies the display buffer into the RGBA back buffer once per
// frame, advancing the fade-out first, and asks fyne to refresh the image.
func (e *Emulator) renderLoop(ctx context.Context, buffer *image.RGBA, img *canvas.Image) {
	frame := make([]uint8, chip8.Area)

	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e.display.Fade()
		e.display.Snapshot(frame)

		for i, v := range frame {
			buffer.Set(i%chip8.Width, i/chip8.Width, color.Gray{Y: v})
		}

		fyne.Do(img.Refresh)
	}
}

// Run opens the window and drives the session until the window is closed,
// ctx is cancelled, or the interpreter hits a fatal error. A fatal error
// tears the whole session down and is returned.
func (e *Emulator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := app.New()
	w := a.NewWindow(windowTitle)

	buffer := image.NewRGBA(image.Rect(0, 0, chip8.Width, chip8.Height))

	img := canvas.NewImageFromImage(buffer)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels // keep the pixelated look when scaled up

	canv, ok := w.Canvas().(desktop.Canvas)
	if !ok {
		return errors.New("emulator cannot be run on mobile")
	}
	canv.SetOnKeyDown(e.onKeyDown)
	canv.SetOnKeyUp(e.onKeyUp)

	w.SetContent(img)
	w.Resize(fyne.NewSize(float32(chip8.Width*windowScale), float32(chip8.Height*windowScale)))
	w.SetFixedSize(true)

	var wg sync.WaitGroup
	var runErr error

	wg.Go(func() {
		e.timers.Run(ctx, e.logger)
	})

	wg.Go(func() {
		e.renderLoop(ctx, buffer, img)
	})

	wg.Go(func() {
		if err := e.cpu.Run(ctx); err != nil {
			runErr = err
			e.logger.Error("emulation stopped", log.Err(err))
		}
		cancel()
	})

	// close the window when the session ends first, however it ends
	go func() {
		<-ctx.Done()
		fyne.Do(w.Close)
	}()

	w.ShowAndRun()
	cancel()
	wg.Wait()

	return runErr
}
