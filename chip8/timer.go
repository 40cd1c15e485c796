package chip8

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const TimerRate time.Duration = time.Second / 60 // 60hz

// Timers holds the delay and sound counters. The interpreter reads and sets
// them; only the timer loop decrements them, at 60hz, never below zero. The
// counters are atomics so the interpreter never observes a torn update.
type Timers struct {
	delay atomic.Uint32
	sound atomic.Uint32
}

// Delay returns the current delay timer value.
func (t *Timers) Delay() uint8 {
	return uint8(t.delay.Load())
}

// SetDelay sets the delay timer.
func (t *Timers) SetDelay(v uint8) {
	t.delay.Store(uint32(v))
}

// Sound returns the current sound timer value. Non-zero means the external
// audio layer should be beeping.
func (t *Timers) Sound() uint8 {
	return uint8(t.sound.Load())
}

// SetSound sets the sound timer.
func (t *Timers) SetSound(v uint8) {
	t.sound.Store(uint32(v))
}

// Tick decrements both counters toward zero.
func (t *Timers) Tick() {
	decrement(&t.delay)
	decrement(&t.sound)
}

// decrement performs a compare-and-retry decrement that stops at zero, so a
// concurrent SetDelay/SetSound is never overwritten with a stale value.
func decrement(c *atomic.Uint32) {
	for {
		v := c.Load()
		if v == 0 {
			return
		}
		if c.CompareAndSwap(v, v-1) {
			return
		}
	}
}

// Run decrements the timers at 60hz until ctx is cancelled. A tick that
// overruns its budget is logged and the loop carries on without catching up.
func (t *Timers) Run(ctx context.Context, logger *log.Logger) {
	for {
		start := time.Now()

		t.Tick()

		sleep := TimerRate - time.Since(start)
		if sleep <= 0 {
			logger.Debug("timer tick took longer than expected",
				log.String("overrun", (-sleep).String()))
			select {
			case <-ctx.Done():
				return
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}
