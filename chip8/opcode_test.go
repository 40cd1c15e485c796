package chip8

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestOpcodeFields(t *testing.T) {
	tests := []struct {
		op                Opcode
		kind, x, y, n, nn uint8
		nnn               uint16
	}{
		{op: 0x0000, kind: 0x0, x: 0x0, y: 0x0, n: 0x0, nn: 0x00, nnn: 0x000},
		{op: 0x00E0, kind: 0x0, x: 0x0, y: 0xE, n: 0x0, nn: 0xE0, nnn: 0x0E0},
		{op: 0x1234, kind: 0x1, x: 0x2, y: 0x3, n: 0x4, nn: 0x34, nnn: 0x234},
		{op: 0x8AB4, kind: 0x8, x: 0xA, y: 0xB, n: 0x4, nn: 0xB4, nnn: 0xAB4},
		{op: 0xD123, kind: 0xD, x: 0x1, y: 0x2, n: 0x3, nn: 0x23, nnn: 0x123},
		{op: 0xFFFF, kind: 0xF, x: 0xF, y: 0xF, n: 0xF, nn: 0xFF, nnn: 0xFFF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.op.kind())
		assert.Equal(t, tt.x, tt.op.x())
		assert.Equal(t, tt.y, tt.op.y())
		assert.Equal(t, tt.n, tt.op.n())
		assert.Equal(t, tt.nn, tt.op.nn())
		assert.Equal(t, tt.nnn, tt.op.nnn())
	}
}
