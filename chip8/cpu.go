package chip8

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	RegisterCount int = 16
	StackSize     int = 16
	RAMSize       int = 4096

	FontStartAddress    uint16 = 0x50
	ProgramStartAddress uint16 = 0x200

	ClockRate time.Duration = time.Second / 700 // 700hz

	flagRegister  = 0xF
	fontGlyphSize = 5
)

// Fatal conditions: each one ends the instruction loop and is surfaced to the
// caller of Run.
var (
	ErrStackOverflow     = errors.New("stack overflow")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrROMTooLarge       = errors.New("rom does not fit in memory")
)

var fontSet = []byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Quirks selects between documented historical behaviors of ambiguous
// instructions. The zero value is the modern behavior.
type Quirks struct {
	// ShiftUsesVY makes 8XY6/8XYE copy VY into VX before shifting, as the
	// original COSMAC VIP interpreter did.
	ShiftUsesVY bool
	// JumpWithVX makes BNNN jump to NNN+VX instead of NNN+V0.
	JumpWithVX bool
	// IncrementIndex makes FX55/FX65 leave I incremented by X+1.
	IncrementIndex bool
}

// CPU is the CHIP-8 interpreter: RAM, register file, stack and the
// fetch/decode/execute loop. It owns those exclusively; the display, keypad
// and timers are shared with the renderer, input poller and timer loop.
type CPU struct {
	ram   [RAMSize]byte
	v     [RegisterCount]uint8
	stack [StackSize]uint16
	sp    int8 // -1 when the stack is empty
	pc    uint16
	i     uint16

	display *Display
	keypad  *Keypad
	timers  *Timers
	quirks  Quirks
	clock   time.Duration
	rand    func() uint8
	logger  *log.Logger
}

// New returns a CPU with the font loaded and the program counter at the
// program origin, ready for Load.
func New(display *Display, keypad *Keypad, timers *Timers, quirks Quirks, logger *log.Logger) *CPU {
	c := &CPU{
		display: display,
		keypad:  keypad,
		timers:  timers,
		quirks:  quirks,
		clock:   ClockRate,
		rand:    func() uint8 { return uint8(rand.Uint32N(256)) },
		logger:  logger,
		sp:      -1,
		pc:      ProgramStartAddress,
	}
	copy(c.ram[FontStartAddress:], fontSet)
	return c
}

// SetClockRate overrides the default 700hz instruction rate.
func (c *CPU) SetClockRate(d time.Duration) {
	if d > 0 {
		c.clock = d
	}
}

// Load copies a ROM image into RAM at the program origin.
func (c *CPU) Load(rom []byte) error {
	if int(ProgramStartAddress)+len(rom) > RAMSize {
		return fmt.Errorf("%w: %d bytes", ErrROMTooLarge, len(rom))
	}
	copy(c.ram[ProgramStartAddress:], rom)
	return nil
}

// fetch reads the two bytes at the program counter into a big-endian opcode
// and advances the counter past them.
func (c *CPU) fetch() (Opcode, error) {
	if int(c.pc)+1 >= RAMSize {
		return 0, fmt.Errorf("%w: program counter 0x%04X", ErrAddressOutOfRange, c.pc)
	}
	high := uint16(c.ram[c.pc])
	low := uint16(c.ram[c.pc+1])
	c.pc += 2
	return Opcode(high<<8 | low), nil
}

// Step runs a single fetch/decode/execute cycle and returns the opcode it
// executed.
func (c *CPU) Step() (Opcode, error) {
	op, err := c.fetch()
	if err != nil {
		return 0, err
	}
	return op, c.execute(op)
}

// Run executes instructions at the clock rate until ctx is cancelled or a
// fatal error ends the loop. A cycle that overruns its budget is logged and
// execution proceeds without catching up.
func (c *CPU) Run(ctx context.Context) error {
	for {
		start := time.Now()

		op, err := c.Step()
		if err != nil {
			return err
		}

		sleep := c.clock - time.Since(start)
		if sleep <= 0 {
			c.logger.Debug("instruction took longer than expected",
				log.Hex("opcode", uint16(op)),
				log.String("overrun", (-sleep).String()))
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleep):
		}
	}
}

func (c *CPU) ramRead(addr uint16) (uint8, error) {
	if int(addr) >= RAMSize {
		return 0, fmt.Errorf("%w: read at 0x%04X", ErrAddressOutOfRange, addr)
	}
	return c.ram[addr], nil
}

func (c *CPU) ramWrite(addr uint16, b uint8) error {
	if int(addr) >= RAMSize {
		return fmt.Errorf("%w: write at 0x%04X", ErrAddressOutOfRange, addr)
	}
	c.ram[addr] = b
	return nil
}

// Register returns the value of register V0..VF.
func (c *CPU) Register(x uint8) uint8 {
	return c.v[x&0x0F]
}

// ProgramCounter returns the current program counter.
func (c *CPU) ProgramCounter() uint16 {
	return c.pc
}

// Index returns the index register.
func (c *CPU) Index() uint16 {
	return c.i
}

// StackDepth returns the number of return addresses on the stack.
func (c *CPU) StackDepth() int {
	return int(c.sp) + 1
}
