package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSet(t *testing.T) {
	assert.True(t, IsSet32(3, 0x8))
	assert.False(t, IsSet32(2, 0x8))
	assert.True(t, IsSet16(15, 0x8000))
	assert.True(t, IsSet8(0, 0x1))
}

func TestSetClear(t *testing.T) {
	assert.Equal(t, uint32(0x8), Set32(3, 0))
	assert.Equal(t, uint32(0), Clear32(3, 0x8))
	assert.Equal(t, uint16(0x8), SetIf16(3, 0, true))
	assert.Equal(t, uint16(0), SetIf16(3, 0x8, false))
}

func TestExtractBits32(t *testing.T) {
	assert.Equal(t, uint32(0xF), ExtractBits32(0xFF00, 11, 8))
	assert.Equal(t, uint32(0xFF), ExtractBits32(0xFF00, 15, 8))
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int32(-1), SignExtend(0xFF, 8))
	assert.Equal(t, int32(127), SignExtend(0x7F, 8))
	assert.Equal(t, int32(-1024), SignExtend(0x400, 11))
}

func TestRotateRight32(t *testing.T) {
	assert.Equal(t, uint32(0x80000001), RotateRight32(0x3, 1))
	assert.Equal(t, uint32(0x3), RotateRight32(0x3, 0))
}

func TestSplitHalves(t *testing.T) {
	assert.Equal(t, uint16(0x1234), Low16(0xABCD1234))
	assert.Equal(t, uint16(0xABCD), High16(0xABCD1234))
	assert.Equal(t, uint8(0x34), Low8(0x1234))
	assert.Equal(t, uint8(0x12), High8(0x1234))
}
