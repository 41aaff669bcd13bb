// Package dma implements the GBA's four DMA channels: source/dest latches,
// unit counts, adjust modes, width selection, repeat, and the four trigger
// timings (immediate, vblank, hblank, special/FIFO).
//
// No direct teacher analogue exists (the Game Boy only has a single-shot OAM
// DMA handled inline by a register write, see jeebie/memory/mem.go's DMA
// case) — this generalizes that inline copy-loop to four independently
// configurable channels per spec.md §4.7, cross-checked against
// original_source/src/memory/dma.c.
package dma

import "github.com/kestrel-dev/goba/goba/addr"

// Timing selects when a channel fires.
type Timing uint8

const (
	TimingImmediate Timing = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

// AdjustMode controls how source/dest advance after each unit transferred.
type AdjustMode uint8

const (
	AdjustIncrement AdjustMode = iota
	AdjustDecrement
	AdjustFixed
	AdjustIncrementReload // dest only
)

// Width is the per-unit transfer size.
type Width uint8

const (
	Width16 Width = iota
	Width32
)

// sourceBits/destBits give the address mask width per channel index, per
// spec.md §4.7: channel 0 source is 27 bits, channels 1-3 source is 28
// bits; channels 0-2 dest is 27 bits, channel 3 dest is 28 bits.
var sourceBits = [4]uint{27, 28, 28, 28}
var destBits = [4]uint{27, 27, 27, 28}

// maxCount is 0 means max: 0x4000 for channels 0-2, 0x10000 for channel 3.
var maxCount = [4]uint32{0x4000, 0x4000, 0x4000, 0x10000}

// Memory is the subset of the bus a DMA channel needs to move bytes.
type Memory interface {
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

type interruptRaiser interface {
	Raise(src addr.Interrupt)
}

// Channel holds one DMA channel's latched and live state.
type Channel struct {
	index int

	srcLatch, dstLatch uint32
	countLatch         uint16

	srcAdjust, dstAdjust AdjustMode
	width                Width
	repeat               bool
	timing               Timing
	irqOnComplete        bool
	enabled              bool

	src, dst uint32
	count    uint32

	cntHHigh uint8 // raw high byte of CNT_H, for rising-edge detection
}

// Controller owns all four channels.
type Controller struct {
	ch  [4]Channel
	mem Memory
	irq interruptRaiser
}

func NewController(mem Memory, irq interruptRaiser) *Controller {
	c := &Controller{mem: mem, irq: irq}
	for i := range c.ch {
		c.ch[i].index = i
	}
	return c
}

// --- register access, used by the bus's I/O dispatch table ---

func (c *Controller) SetSAD(i int, value uint32) {
	c.ch[i].srcLatch = value & ((1 << sourceBits[i]) - 1)
}

func (c *Controller) SetDAD(i int, value uint32) {
	c.ch[i].dstLatch = value & ((1 << destBits[i]) - 1)
}

func (c *Controller) SetCountL(i int, value uint16) {
	c.ch[i].countLatch = value
}

func (c *Controller) CountL(i int) uint16 { return c.ch[i].countLatch }

// CNT_H is split: low byte is adjust/width/repeat/timing bits, high byte
// carries IRQ-enable (bit 14) and enable (bit 15). Writing the high byte is
// what the bus dispatches specially, since only that write can trigger a
// kick (spec.md §4.2: "DMA CNT_H write on the high byte triggers a
// rising-edge check on bit 15").
func (c *Controller) CNTH(i int) uint16 {
	ch := &c.ch[i]
	var v uint16
	v |= uint16(ch.dstAdjust) << 5
	v |= uint16(ch.srcAdjust) << 7
	if ch.repeat {
		v |= 1 << 9
	}
	if ch.width == Width32 {
		v |= 1 << 10
	}
	v |= uint16(ch.timing) << 12
	if ch.irqOnComplete {
		v |= 1 << 14
	}
	if ch.enabled {
		v |= 1 << 15
	}
	return v
}

// SetCNTH writes the full 16-bit CNT_H register and performs the
// rising-edge kick check on the enable bit.
func (c *Controller) SetCNTH(i int, value uint16) {
	ch := &c.ch[i]
	wasEnabled := ch.enabled

	ch.dstAdjust = AdjustMode((value >> 5) & 0x3)
	ch.srcAdjust = AdjustMode((value >> 7) & 0x3)
	ch.repeat = value&(1<<9) != 0
	if value&(1<<10) != 0 {
		ch.width = Width32
	} else {
		ch.width = Width16
	}
	ch.timing = Timing((value >> 12) & 0x3)
	ch.irqOnComplete = value&(1<<14) != 0
	ch.enabled = value&(1<<15) != 0

	if ch.enabled && !wasEnabled {
		ch.src = ch.srcLatch
		ch.dst = ch.dstLatch
		ch.count = uint32(ch.countLatch)
		if ch.count == 0 {
			ch.count = maxCount[i]
		}
		if ch.timing == TimingImmediate {
			c.execute(i)
		}
	}
}

// --- trigger entry points, called by the scheduler/APU ---

// VBlank runs every channel enabled with vblank timing.
func (c *Controller) VBlank() {
	for i := range c.ch {
		if c.ch[i].enabled && c.ch[i].timing == TimingVBlank {
			c.execute(i)
		}
	}
}

// HBlank runs every channel enabled with hblank timing.
func (c *Controller) HBlank() {
	for i := range c.ch {
		if c.ch[i].enabled && c.ch[i].timing == TimingHBlank {
			c.execute(i)
		}
	}
}

// FIFORequest runs the channel (1 or 2 only, per spec.md §4.7) whose
// destination is the given FIFO address and which is configured for
// special/FIFO timing.
func (c *Controller) FIFORequest(fifoAddr uint32) {
	for i := 1; i <= 2; i++ {
		ch := &c.ch[i]
		if ch.enabled && ch.timing == TimingSpecial && ch.dstLatch == fifoAddr {
			c.executeFIFO(i)
		}
	}
}

// execute runs a normal (non-FIFO) transfer to completion.
func (c *Controller) execute(i int) {
	ch := &c.ch[i]

	unitSize := uint32(2)
	if ch.width == Width32 {
		unitSize = 4
	}

	for u := uint32(0); u < ch.count; u++ {
		c.transferUnit(ch, unitSize)
		c.advance(ch, unitSize, ch.srcAdjust, true)
		c.advance(ch, unitSize, ch.dstAdjust, false)
	}

	if ch.dstAdjust == AdjustIncrementReload {
		ch.dst = ch.dstLatch
	}

	c.finish(ch)
}

// executeFIFO runs a FIFO-refill transfer: forced 32-bit width, fixed
// destination, exactly 4 units, per spec.md §4.7.
func (c *Controller) executeFIFO(i int) {
	ch := &c.ch[i]
	for u := 0; u < 4; u++ {
		value := c.mem.Read32(ch.src)
		c.mem.Write32(ch.dst, value)
		c.advance(ch, 4, ch.srcAdjust, true)
	}
	// destination is fixed for FIFO transfers; it is not advanced or reloaded.
	if ch.irqOnComplete {
		c.irq.Raise(addr.Interrupt(int(addr.IRQDMA0) + i))
	}
	// FIFO-triggered transfers are always repeat; they stay enabled.
}

func (c *Controller) transferUnit(ch *Channel, unitSize uint32) {
	if unitSize == 4 {
		c.mem.Write32(ch.dst, c.mem.Read32(ch.src))
	} else {
		c.mem.Write16(ch.dst, c.mem.Read16(ch.src))
	}
}

func (c *Controller) advance(ch *Channel, unitSize uint32, mode AdjustMode, isSource bool) {
	var p *uint32
	if isSource {
		p = &ch.src
	} else {
		p = &ch.dst
	}
	switch mode {
	case AdjustIncrement, AdjustIncrementReload:
		*p += unitSize
	case AdjustDecrement:
		*p -= unitSize
	case AdjustFixed:
		// no change
	}
}

func (c *Controller) finish(ch *Channel) {
	if ch.irqOnComplete {
		c.irq.Raise(addr.Interrupt(int(addr.IRQDMA0) + ch.index))
	}
	if ch.repeat && ch.timing != TimingImmediate {
		// stays enabled, awaiting the next trigger; reload count from its
		// latch. The destination is not reloaded here.
		ch.count = uint32(ch.countLatch)
		if ch.count == 0 {
			ch.count = maxCount[ch.index]
		}
	} else {
		ch.enabled = false
	}
}

// Enabled reports whether channel i's enable bit is currently set. The bus
// does not call it: its CNT_H read closure returns CNTH, which carries the
// live enable bit, so a cleared enable is visible to the guest that way.
func (c *Controller) Enabled(i int) bool { return c.ch[i].enabled }
