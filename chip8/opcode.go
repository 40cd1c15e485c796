package chip8

// Opcode is a single CHIP-8 instruction: two contiguous bytes in memory,
// big-endian, starting at the program counter.
type Opcode uint16

// kind returns the first nibble, selecting the operation family.
func (op Opcode) kind() uint8 {
	return uint8(op >> 12)
}

// x returns the second nibble, the VX register index.
func (op Opcode) x() uint8 {
	return uint8(op>>8) & 0x0F
}

// y returns the third nibble, the VY register index.
func (op Opcode) y() uint8 {
	return uint8(op>>4) & 0x0F
}

// n returns the fourth nibble, the 4-bit immediate.
func (op Opcode) n() uint8 {
	return uint8(op) & 0x0F
}

// nn returns the low byte, the 8-bit immediate.
func (op Opcode) nn() uint8 {
	return uint8(op)
}

// nnn returns the low 12 bits, the address immediate.
func (op Opcode) nnn() uint16 {
	return uint16(op) & 0x0FFF
}
