package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBIOSDispatch_div(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[0] = uint32(int32(-7))
	c.r[1] = 2
	c.bios.Dispatch(0x06)
	assert.Equal(t, uint32(int32(-3)), c.r[0], "quotient")
	assert.Equal(t, uint32(int32(-1)), c.r[1], "remainder")
	assert.Equal(t, uint32(3), c.r[3], "abs(quotient)")
}

func TestBIOSDispatch_divByZero(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[0] = 42
	c.r[1] = 0
	c.bios.Dispatch(0x06)
	assert.Equal(t, uint32(0), c.r[0])
	assert.Equal(t, uint32(42), c.r[1])
}

func TestBIOSDispatch_sqrt(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[0] = 144
	c.bios.Dispatch(0x08)
	assert.Equal(t, uint32(12), c.r[0])
}

func TestBIOSDispatch_haltAndStop(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.bios.Dispatch(0x02)
	assert.True(t, c.Halted())

	c.halted = false
	c.bios.Dispatch(0x03)
	assert.True(t, c.Halted())
}

func TestBIOSDispatch_softReset(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[0] = 0xDEAD
	c.r[15] = 0x1234
	c.bios.Dispatch(0x00)
	assert.Equal(t, uint32(0), c.r[15])
	assert.Equal(t, ModeSVC, c.mode())
}

func TestBIOSDispatch_cpuSet32bit(t *testing.T) {
	c, bus, _ := newTestCPU(0x100)
	bus.Write32(0x10, 0x11223344)
	bus.Write32(0x14, 0x55667788)

	c.r[0] = 0x10 // source
	c.r[1] = 0x40 // dest
	c.r[2] = 2 | (1 << 26) // count=2, 32-bit transfers
	c.bios.Dispatch(0x0B)

	assert.Equal(t, uint32(0x11223344), bus.Read32(0x40))
	assert.Equal(t, uint32(0x55667788), bus.Read32(0x44))
}

func TestBIOSDispatch_cpuFastSetRoundsUpCount(t *testing.T) {
	c, bus, _ := newTestCPU(0x200)
	for i := 0; i < 9; i++ {
		bus.Write32(uint32(0x10+i*4), uint32(i+1))
	}

	c.r[0] = 0x10
	c.r[1] = 0x100
	c.r[2] = 9 // not a multiple of 8
	c.bios.Dispatch(0x0C)

	assert.Equal(t, uint32(1), bus.Read32(0x100))
	assert.Equal(t, uint32(9), bus.Read32(0x100+8*4), "count should round up to 16, covering all 9 source words")
}

func TestBIOSDispatch_unknownIsNoOp(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[0] = 0xABCD
	c.bios.Dispatch(0xFF)
	assert.Equal(t, uint32(0xABCD), c.r[0])
}
