package debug

import (
	"testing"

	"github.com/kestrel-dev/goba/goba/cpu"
	"github.com/stretchr/testify/assert"
)

type fakeCPU struct {
	regs  [16]uint32
	cpsr  uint32
	mode  cpu.Mode
	thumb bool
}

func (f fakeCPU) Registers() [16]uint32 { return f.regs }
func (f fakeCPU) CPSR() uint32          { return f.cpsr }
func (f fakeCPU) Mode() cpu.Mode        { return f.mode }
func (f fakeCPU) Thumb() bool           { return f.thumb }

type fakePPU struct {
	dispcnt, dispstat, vcount uint16
}

func (f fakePPU) DISPCNT() uint16  { return f.dispcnt }
func (f fakePPU) DISPSTAT() uint16 { return f.dispstat }
func (f fakePPU) VCOUNT() uint16   { return f.vcount }

type fakeAPU struct{ ringLen int }

func (f fakeAPU) RingLen() int { return f.ringLen }

func TestExtract(t *testing.T) {
	c := fakeCPU{regs: [16]uint32{0: 1, 15: 0x0800_0000}, cpsr: 0x1F, mode: cpu.ModeSys, thumb: true}
	p := fakePPU{dispcnt: 0x0403, dispstat: 0x0001, vcount: 42}
	a := fakeAPU{ringLen: 7}

	snap := Extract(c, p, a)

	assert.Equal(t, uint32(1), snap.CPU.Registers[0])
	assert.Equal(t, uint32(0x0800_0000), snap.CPU.Registers[15])
	assert.True(t, snap.CPU.Thumb)
	assert.Equal(t, cpu.ModeSys, snap.CPU.Mode)
	assert.Equal(t, uint16(0x0403), snap.PPU.DISPCNT)
	assert.Equal(t, uint16(3), snap.PPU.Mode, "mode field should be DISPCNT & 0x7")
	assert.Equal(t, uint16(42), snap.PPU.VCOUNT)
	assert.Equal(t, 7, snap.APU.RingLen)
}
