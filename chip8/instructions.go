package chip8

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// execute dispatches on the opcode family and mutates machine state. Only
// instructions that touch RAM or the stack can fail; an unrecognized opcode
// is logged and skipped.
func (c *CPU) execute(op Opcode) error {
	switch op.kind() {
	case 0x0:
		switch uint16(op) {
		case 0x00E0:
			c.display.Clear()
		case 0x00EE:
			return c.returnFromSubroutine()
		default:
			c.unknown(op)
		}
	case 0x1:
		c.pc = op.nnn()
	case 0x2:
		return c.callSubroutine(op.nnn())
	case 0x3:
		if c.v[op.x()] == op.nn() {
			c.pc += 2
		}
	case 0x4:
		if c.v[op.x()] != op.nn() {
			c.pc += 2
		}
	case 0x5:
		if op.n() != 0 {
			c.unknown(op)
			break
		}
		if c.v[op.x()] == c.v[op.y()] {
			c.pc += 2
		}
	case 0x6:
		c.v[op.x()] = op.nn()
	case 0x7:
		c.v[op.x()] += op.nn()
	case 0x8:
		c.alu(op)
	case 0x9:
		if op.n() != 0 {
			c.unknown(op)
			break
		}
		if c.v[op.x()] != c.v[op.y()] {
			c.pc += 2
		}
	case 0xA:
		c.i = op.nnn()
	case 0xB:
		c.jumpWithOffset(op)
	case 0xC:
		c.v[op.x()] = c.rand() & op.nn()
	case 0xD:
		return c.drawSprite(op.x(), op.y(), op.n())
	case 0xE:
		switch op.nn() {
		case 0x9E:
			if c.keypad.Down(c.v[op.x()]) {
				c.pc += 2
			}
		case 0xA1:
			if !c.keypad.Down(c.v[op.x()]) {
				c.pc += 2
			}
		default:
			c.unknown(op)
		}
	case 0xF:
		switch op.nn() {
		case 0x07:
			c.v[op.x()] = c.timers.Delay()
		case 0x0A:
			c.waitForKey(op.x())
		case 0x15:
			c.timers.SetDelay(c.v[op.x()])
		case 0x18:
			c.timers.SetSound(c.v[op.x()])
		case 0x1E:
			c.addToIndex(op.x())
		case 0x29:
			c.i = FontStartAddress + uint16(c.v[op.x()]&0x0F)*fontGlyphSize
		case 0x33:
			return c.storeDecimal(op.x())
		case 0x55:
			return c.storeRegisters(op.x())
		case 0x65:
			return c.loadRegisters(op.x())
		default:
			c.unknown(op)
		}
	}
	return nil
}

func (c *CPU) callSubroutine(addr uint16) error {
	if int(c.sp)+1 >= StackSize {
		return fmt.Errorf("%w: call to 0x%04X", ErrStackOverflow, addr)
	}
	c.sp++
	c.stack[c.sp] = c.pc
	c.pc = addr
	return nil
}

func (c *CPU) returnFromSubroutine() error {
	if c.sp < 0 {
		return ErrStackUnderflow
	}
	c.pc = c.stack[c.sp]
	c.sp--
	return nil
}

// alu handles the 8XYn register operations. The flag write always comes
// last: VF may itself be the destination register, and the flag wins.
func (c *CPU) alu(op Opcode) {
	x, y := op.x(), op.y()

	switch op.n() {
	case 0x0:
		c.v[x] = c.v[y]
	case 0x1:
		c.v[x] |= c.v[y]
	case 0x2:
		c.v[x] &= c.v[y]
	case 0x3:
		c.v[x] ^= c.v[y]
	case 0x4:
		sum := uint16(c.v[x]) + uint16(c.v[y])
		c.v[x] = uint8(sum)
		c.setFlag(sum > 0xFF)
	case 0x5:
		noBorrow := c.v[x] >= c.v[y]
		c.v[x] -= c.v[y]
		c.setFlag(noBorrow)
	case 0x6:
		if c.quirks.ShiftUsesVY {
			c.v[x] = c.v[y]
		}
		bit := c.v[x] & 0x01
		c.v[x] >>= 1
		c.v[flagRegister] = bit
	case 0x7:
		noBorrow := c.v[y] >= c.v[x]
		c.v[x] = c.v[y] - c.v[x]
		c.setFlag(noBorrow)
	case 0xE:
		if c.quirks.ShiftUsesVY {
			c.v[x] = c.v[y]
		}
		bit := c.v[x] >> 7
		c.v[x] <<= 1
		c.v[flagRegister] = bit
	default:
		c.unknown(op)
	}
}

func (c *CPU) setFlag(on bool) {
	if on {
		c.v[flagRegister] = 1
	} else {
		c.v[flagRegister] = 0
	}
}

func (c *CPU) jumpWithOffset(op Opcode) {
	offset := c.v[0x0]
	if c.quirks.JumpWithVX {
		offset = c.v[op.x()]
	}
	c.pc = op.nnn() + uint16(offset)
}

// addToIndex handles FX1E. I wraps; VF is set when the result leaves the
// normal 12-bit addressing range, and left alone otherwise.
func (c *CPU) addToIndex(x uint8) {
	c.i += uint16(c.v[x])
	if c.i > 0x0FFF {
		c.v[flagRegister] = 1
	}
}

// waitForKey handles FX0A. It completes only on a key release: if one is
// latched it is consumed into VX, otherwise the program counter is rewound so
// the same instruction executes again next cycle. Keying off release instead
// of press deviates from most reference interpreters.
func (c *CPU) waitForKey(x uint8) {
	key, ok := c.keypad.TakeReleased()
	if !ok {
		c.pc -= 2
		return
	}
	c.v[x] = key
}

// drawSprite handles DXYN: an N-row sprite read from I, drawn with pixel
// flips at (VX mod width, VY mod height). VF reports whether any on pixel was
// turned off. Rows and bits falling outside the display are dropped, not
// wrapped.
func (c *CPU) drawSprite(x, y, rows uint8) error {
	c.v[flagRegister] = 0

	startX := int(c.v[x]) % Width
	startY := int(c.v[y]) % Height

	for row := range int(rows) {
		line, err := c.ramRead(c.i + uint16(row))
		if err != nil {
			return err
		}
		for bit := range 8 {
			if line&(0x80>>bit) == 0 {
				continue
			}
			if c.display.Flip(startX+bit, startY+row) {
				c.v[flagRegister] = 1
			}
		}
	}
	return nil
}

// storeDecimal handles FX33: the three decimal digits of VX stored at I,
// I+1, I+2, most significant first.
func (c *CPU) storeDecimal(x uint8) error {
	v := c.v[x]
	for offset := 2; offset >= 0; offset-- {
		if err := c.ramWrite(c.i+uint16(offset), v%10); err != nil {
			return err
		}
		v /= 10
	}
	return nil
}

func (c *CPU) storeRegisters(x uint8) error {
	for r := uint16(0); r <= uint16(x); r++ {
		if err := c.ramWrite(c.i+r, c.v[r]); err != nil {
			return err
		}
	}
	if c.quirks.IncrementIndex {
		c.i += uint16(x) + 1
	}
	return nil
}

func (c *CPU) loadRegisters(x uint8) error {
	for r := uint16(0); r <= uint16(x); r++ {
		b, err := c.ramRead(c.i + r)
		if err != nil {
			return err
		}
		c.v[r] = b
	}
	if c.quirks.IncrementIndex {
		c.i += uint16(x) + 1
	}
	return nil
}

func (c *CPU) unknown(op Opcode) {
	c.logger.Info("unknown instruction", log.Hex("opcode", uint16(op)))
}
