package vip8

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"vip8/chip8"
)

func TestKeyMapCoversAllKeys(t *testing.T) {
	assert.Equal(t, chip8.KeyCount, len(keyMap))

	seen := map[uint8]bool{}
	for _, logical := range keyMap {
		assert.True(t, logical <= 0xF)
		assert.False(t, seen[logical])
		seen[logical] = true
	}
}
