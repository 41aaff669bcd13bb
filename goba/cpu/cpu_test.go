package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// flatBus is a minimal Bus backing a single contiguous byte slice, enough
// to exercise decode/execute logic without the real memory map.
type flatBus struct {
	mem []byte
	pc  uint32
}

func newFlatBus(size int) *flatBus { return &flatBus{mem: make([]byte, size)} }

func (b *flatBus) Read8(addr uint32) uint8 { return b.mem[addr] }
func (b *flatBus) Read16(addr uint32) uint16 {
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8
}
func (b *flatBus) Read32(addr uint32) uint32 {
	return uint32(b.mem[addr]) | uint32(b.mem[addr+1])<<8 | uint32(b.mem[addr+2])<<16 | uint32(b.mem[addr+3])<<24
}
func (b *flatBus) Write8(addr uint32, v uint8) { b.mem[addr] = v }
func (b *flatBus) Write16(addr uint32, v uint16) {
	b.mem[addr] = byte(v)
	b.mem[addr+1] = byte(v >> 8)
}
func (b *flatBus) Write32(addr uint32, v uint32) {
	b.mem[addr] = byte(v)
	b.mem[addr+1] = byte(v >> 8)
	b.mem[addr+2] = byte(v >> 16)
	b.mem[addr+3] = byte(v >> 24)
}
func (b *flatBus) SetPC(pc uint32) { b.pc = pc }

type fakeIRQ struct{ pending, shouldEnter bool }

func (f *fakeIRQ) Pending() bool     { return f.pending }
func (f *fakeIRQ) ShouldEnter() bool { return f.shouldEnter }

func newTestCPU(size int) (*CPU, *flatBus, *fakeIRQ) {
	bus := newFlatBus(size)
	irq := &fakeIRQ{}
	c := New(bus, irq, true)
	return c, bus, irq
}

func TestReset(t *testing.T) {
	c, _, _ := newTestCPU(0x10000)

	assert.Equal(t, ModeSVC, c.mode())
	assert.True(t, c.inIRQDisabled())
	assert.False(t, c.thumb())
	assert.Equal(t, uint32(0), c.r[15])
	assert.False(t, c.Halted())
}

func TestStep_thumbMovImmediate(t *testing.T) {
	c, bus, _ := newTestCPU(0x10000)
	c.setFlag(flagT, true)
	c.branchTo(0)

	// MOV R0, #0x42 (format 3, op=100, Rd=0)
	bus.Write16(0, 0x2042)
	bus.Write16(2, 0x2042)
	bus.Write16(4, 0x2042)

	cycles := c.Step()
	assert.Greater(t, cycles, 0)
	assert.Equal(t, uint32(0x42), c.r[0])
	assert.True(t, c.Z() == false)
}

func TestStep_armMovImmediate(t *testing.T) {
	c, bus, _ := newTestCPU(0x10000)
	c.branchTo(0)

	// MOV R0, #0x42 condition AL, opcode MOV(0xD), S=0, imm
	bus.Write32(0, 0xE3A00042)
	bus.Write32(4, 0xE3A00042)
	bus.Write32(8, 0xE3A00042)

	c.Step()
	assert.Equal(t, uint32(0x42), c.r[0])
}

// TestStep_sequentialFlowExecutesEveryInstruction guards the pipeline's
// fetch-then-advance ordering: fetched[1] must be read at the PC the
// pipeline currently holds, before that PC is incremented. Getting this
// backwards silently skips the third instruction of any straight-line run.
func TestStep_sequentialFlowExecutesEveryInstruction(t *testing.T) {
	c, bus, _ := newTestCPU(0x10000)
	c.branchTo(0)
	bus.Write32(0, 0xE3A00001) // MOV R0,#1
	bus.Write32(4, 0xE2800005) // ADD R0,R0,#5
	bus.Write32(8, 0xE2800064) // ADD R0,R0,#0x64

	c.Step()
	assert.Equal(t, uint32(1), c.r[0])
	c.Step()
	assert.Equal(t, uint32(6), c.r[0])
	c.Step()
	assert.Equal(t, uint32(0x6A), c.r[0], "the third sequential instruction must not be skipped")
}

func TestEnterIRQ_hleModeInterceptsReturn(t *testing.T) {
	c, bus, irq := newTestCPU(0x0400_0000)
	c.branchTo(0)
	bus.Write32(0, 0xE3A00001) // MOV R0,#1
	bus.Write32(4, 0xE3A00002) // MOV R0,#2
	bus.Write32(8, 0xE3A00003) // MOV R0,#3

	// install a user IRQ handler pointer at 0x03FFFFFC pointing at 0x100,
	// distinct from the mainline code so the two are easy to tell apart.
	bus.Write32(0x03FFFFFC, 0x100)
	bus.Write32(0x100, 0xE3A0005A) // MOV R0,#90, the handler's own instruction

	savedMode := c.mode()

	// run one ordinary step so the pipeline reaches its steady-state
	// invariant (r[15] == executing_addr + 2*fetchWidth) before the IRQ
	// fires, matching how ShouldEnter is actually polled between steps.
	c.Step()
	assert.Equal(t, uint32(1), c.r[0])

	irq.shouldEnter = true
	c.Step()

	assert.Equal(t, ModeIRQ, c.mode())
	assert.NotEqual(t, savedMode, c.mode())
	assert.Equal(t, hleReturnAddress, c.r[14])
	assert.Equal(t, uint32(12), c.irqReturnPC, "LR_irq is the bare current PC, executing_addr(4)+2*width")
	assert.Equal(t, uint32(90), c.r[0], "IRQ entry preempts the mainline instruction, running the handler's instead")
}
