package dma

import (
	"testing"

	"github.com/kestrel-dev/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

type fakeMemory struct{ mem map[uint32]uint32 }

func newFakeMemory() *fakeMemory { return &fakeMemory{mem: map[uint32]uint32{}} }

func (m *fakeMemory) Read16(a uint32) uint16 { return uint16(m.mem[a]) }
func (m *fakeMemory) Write16(a uint32, v uint16) { m.mem[a] = uint32(v) }
func (m *fakeMemory) Read32(a uint32) uint32 { return m.mem[a] }
func (m *fakeMemory) Write32(a uint32, v uint32) { m.mem[a] = v }

type fakeIRQ struct{ raised []addr.Interrupt }

func (f *fakeIRQ) Raise(src addr.Interrupt) { f.raised = append(f.raised, src) }

func TestImmediateTransfer(t *testing.T) {
	mem := newFakeMemory()
	mem.mem[0x1000] = 0x1111
	mem.mem[0x1004] = 0x2222

	irq := &fakeIRQ{}
	c := NewController(mem, irq)

	c.SetSAD(0, 0x1000)
	c.SetDAD(0, 0x2000)
	c.SetCountL(0, 2)
	c.SetCNTH(0, (1<<10)|(1<<14)) // 32-bit width, irq on complete, immediate timing, enable bit set below
	c.SetCNTH(0, (1<<10)|(1<<14)|(1<<15))

	assert.Equal(t, uint32(0x1111), mem.mem[0x2000])
	assert.Equal(t, uint32(0x2222), mem.mem[0x2004])
	assert.Equal(t, []addr.Interrupt{addr.IRQDMA0}, irq.raised)
	assert.False(t, c.ch[0].enabled, "non-repeat transfers disable themselves on completion")
}

func TestVBlankTiming_onlyFiresOnTrigger(t *testing.T) {
	mem := newFakeMemory()
	mem.mem[0x1000] = 0xAB

	c := NewController(mem, &fakeIRQ{})
	c.SetSAD(1, 0x1000)
	c.SetDAD(1, 0x3000)
	c.SetCountL(1, 1)
	c.SetCNTH(1, (1<<15)|(1<<12)) // enable, timing=vblank(1<<12)

	assert.Zero(t, mem.mem[0x3000], "vblank-timed channel shouldn't fire on enable")

	c.VBlank()
	assert.Equal(t, uint32(0xAB), mem.mem[0x3000])
}

func TestCountZeroMeansMax(t *testing.T) {
	mem := newFakeMemory()
	c := NewController(mem, &fakeIRQ{})
	c.SetCountL(3, 0)
	c.SetSAD(3, 0x1000)
	c.SetDAD(3, 0x2000)
	c.SetCNTH(3, 1<<15) // immediate, no width bit -> 16-bit, count latches to 0 -> max for channel 3

	assert.Equal(t, uint32(0x2000+0x10000*2), c.ch[3].dst, "16-bit transfer of 0x10000 units advances dest by 2 bytes each")
}
