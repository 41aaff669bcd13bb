// Package bus implements the GBA's address space: region decode by top
// byte, width-specific read/write rules, VRAM mirror-folding, and
// BIOS read protection. It owns every subsystem's backing memory and wires
// their register ports into a closure-based I/O dispatch table.
// Grounded on jeebie/memory/mem.go's MMU region-map-by-top-byte pattern,
// generalized from the Game Boy's handful of regions to the GBA's nine, per
// spec.md §4.2, cross-checked against original_source/src/memory/bus.c.
package bus

import (
	"github.com/kestrel-dev/goba/goba/apu"
	"github.com/kestrel-dev/goba/goba/cart"
	"github.com/kestrel-dev/goba/goba/dma"
	"github.com/kestrel-dev/goba/goba/input"
	"github.com/kestrel-dev/goba/goba/interrupt"
	"github.com/kestrel-dev/goba/goba/ppu"
	"github.com/kestrel-dev/goba/goba/timer"
)

const (
	biosSize    = 16 * 1024
	ewramSize   = 256 * 1024
	iwramSize   = 32 * 1024
	paletteSize = 1024
	vramSize    = 96 * 1024
	oamSize     = 1024
)

// region is which top-level memory region an address decodes to, per
// spec.md §4.2.
type region int

const (
	regionBIOS region = iota
	regionEWRAM
	regionIWRAM
	regionIO
	regionPalette
	regionVRAM
	regionOAM
	regionROM
	regionSave
	regionOpenBus
)

// Bus owns every subsystem's backing bytes and mediates all CPU accesses.
type Bus struct {
	bios  []byte
	ewram [ewramSize]byte
	iwram [iwramSize]byte

	palette [paletteSize]byte
	vram    [vramSize]byte
	oam     [oamSize]byte

	cart *cart.Cartridge
	ppu  *ppu.PPU
	apu  *apu.APU
	dma  *dma.Controller
	tim  *timer.Bank
	irq  *interrupt.Controller
	keys *input.Keypad

	io [1024]byte // IO register window backing store, for bits with no live accessor

	currentPC    uint32
	lastBIOSRead uint32
	fabricated   bool

	ioTable ioTable
}

// New constructs a fully wired bus: it builds every subsystem, threads the
// narrow interfaces they need into each other, and assembles the I/O
// dispatch table.
func New(bios []byte, c *cart.Cartridge) *Bus {
	b := &Bus{
		bios: bios,
		cart: c,
		irq:  interrupt.New(),
		keys: input.New(),
	}
	if len(b.bios) == 0 {
		b.bios = fabricatedBIOS()
		b.fabricated = true
	}
	b.dma = dma.NewController(b, b.irq)
	b.apu = apu.New(b.dma)
	b.tim = timer.NewBank(b.irq, b.apu)
	b.ppu = ppu.New(b.vram[:], b.palette[:], b.oam[:], b.irq, b.dma)
	b.buildIOTable()
	return b
}

// HLEMode reports whether this bus is running without a real dumped BIOS,
// per spec.md §6: absence installs the fabricated trampoline and switches
// the CPU to HLE SWI/IRQ interception.
func (b *Bus) HLEMode() bool { return b.fabricated }

// fabricatedBIOS builds a minimal placeholder image with a recognizable
// IRQ trampoline at 0x18, per spec.md §6. IRQ entry in HLE mode does not
// go through these bytes (the CPU intercepts IRQ entry and the matching
// return address directly), so inspection tools see a plausible trampoline
// rather than all-zero memory. Otherwise they are ordinary BIOS bytes:
// execution starting at the reset vector runs through this region.
func fabricatedBIOS() []byte {
	img := make([]byte, biosSize)
	words := []uint32{
		0xE92D500F, // STMFD SP!, {R0-R3,R12,LR}
		0xE59FC000, // LDR R12, [PC, #0]
		0xE12FFF3C, // BLX R12
		0xE8BD500F, // LDMFD SP!, {R0-R3,R12,LR}
		0xE25EF004, // SUBS PC, LR, #4
	}
	for i, w := range words {
		putLE32(img, uint32(0x18+i*4), w)
	}
	return img
}

func decode(address uint32) region {
	switch (address >> 24) & 0xFF {
	case 0x00:
		return regionBIOS
	case 0x02:
		return regionEWRAM
	case 0x03:
		return regionIWRAM
	case 0x04:
		return regionIO
	case 0x05:
		return regionPalette
	case 0x06:
		return regionVRAM
	case 0x07:
		return regionOAM
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D:
		return regionROM
	case 0x0E, 0x0F:
		return regionSave
	default:
		return regionOpenBus
	}
}

// SetPC tracks the CPU's current program counter, used to decide whether a
// BIOS read is legitimate (spec.md §4.2: "BIOS read-protection when PC is
// outside it").
func (b *Bus) SetPC(pc uint32) { b.currentPC = pc }

func (b *Bus) inBIOS() bool { return b.currentPC < biosSize }

func foldVRAM(offset uint32) uint32 {
	offset %= 0x20000
	if offset >= 0x18000 {
		offset = 0x10000 + (offset-0x18000)%0x8000
	}
	return offset
}

// Read8 reads one byte, per spec.md §4.2's region rules.
func (b *Bus) Read8(address uint32) uint8 {
	switch decode(address) {
	case regionBIOS:
		return uint8(b.readBIOSWord(address) >> ((address & 3) * 8))
	case regionEWRAM:
		return b.ewram[address%ewramSize]
	case regionIWRAM:
		return b.iwram[address%iwramSize]
	case regionIO:
		return uint8(b.ioRead16(address&^1) >> ((address & 1) * 8))
	case regionPalette:
		return b.palette[address%paletteSize]
	case regionVRAM:
		return b.vram[foldVRAM(address%0x06000000)]
	case regionOAM:
		return b.oam[address%oamSize]
	case regionROM:
		return b.cart.ReadROM8(romOffset(address))
	case regionSave:
		return b.cart.SaveRead(address & 0xFFFF)
	default:
		return 0
	}
}

// Read16 reads one halfword, aligning the address down per spec.md §4.1's
// misaligned-access handling (callers needing ARM's rotate-on-load behavior
// do that at the CPU layer; the bus always returns the aligned halfword).
func (b *Bus) Read16(address uint32) uint16 {
	address &^= 1
	switch decode(address) {
	case regionBIOS:
		return uint16(b.readBIOSWord(address) >> ((address & 2) * 8))
	case regionEWRAM:
		return le16(b.ewram[:], address%ewramSize)
	case regionIWRAM:
		return le16(b.iwram[:], address%iwramSize)
	case regionIO:
		return b.ioRead16(address)
	case regionPalette:
		return le16(b.palette[:], address%paletteSize)
	case regionVRAM:
		return le16(b.vram[:], foldVRAM(address%0x06000000))
	case regionOAM:
		return le16(b.oam[:], address%oamSize)
	case regionROM:
		return b.cart.ReadROM16(romOffset(address))
	case regionSave:
		v := b.cart.SaveRead(address & 0xFFFF)
		return uint16(v) | uint16(v)<<8
	default:
		return 0
	}
}

// Read32 reads one word.
func (b *Bus) Read32(address uint32) uint32 {
	address &^= 3
	switch decode(address) {
	case regionBIOS:
		return b.readBIOSWord(address)
	case regionEWRAM:
		return le32(b.ewram[:], address%ewramSize)
	case regionIWRAM:
		return le32(b.iwram[:], address%iwramSize)
	case regionIO:
		return uint32(b.ioRead16(address)) | uint32(b.ioRead16(address+2))<<16
	case regionPalette:
		return le32(b.palette[:], address%paletteSize)
	case regionVRAM:
		off := foldVRAM(address % 0x06000000)
		return le32(b.vram[:], off)
	case regionOAM:
		return le32(b.oam[:], address%oamSize)
	case regionROM:
		return b.cart.ReadROM32(romOffset(address))
	case regionSave:
		v := uint32(b.cart.SaveRead(address & 0xFFFF))
		return v | v<<8 | v<<16 | v<<24
	default:
		return 0
	}
}

// readBIOSWord enforces read protection: live reads are only honored while
// the CPU's PC is inside the BIOS; otherwise the last legitimately-read word
// is returned, per spec.md §4.2.
func (b *Bus) readBIOSWord(address uint32) uint32 {
	if b.inBIOS() {
		off := address &^ 3 % biosSize
		if int(off)+4 <= len(b.bios) {
			b.lastBIOSRead = le32(b.bios, off)
		}
	}
	return b.lastBIOSRead
}

// Write8 writes one byte. Per spec.md §4.2: 8-bit writes to palette/VRAM
// duplicate into the containing halfword; OAM drops 8-bit writes entirely.
func (b *Bus) Write8(address uint32, value uint8) {
	switch decode(address) {
	case regionEWRAM:
		b.ewram[address%ewramSize] = value
	case regionIWRAM:
		b.iwram[address%iwramSize] = value
	case regionIO:
		cur := b.ioRead16(address &^ 1)
		if address&1 == 0 {
			cur = (cur & 0xFF00) | uint16(value)
		} else {
			cur = (cur & 0x00FF) | uint16(value)<<8
		}
		b.ioWrite16(address&^1, cur)
	case regionPalette:
		off := (address % paletteSize) &^ 1
		b.palette[off] = value
		b.palette[off+1] = value
	case regionVRAM:
		off := foldVRAM(address%0x06000000) &^ 1
		b.vram[off] = value
		b.vram[off+1] = value
	case regionOAM:
		// dropped: OAM has no byte-write path on real hardware
	case regionSave:
		b.cart.SaveWrite(address&0xFFFF, value)
	default:
		// ROM / BIOS / open bus: read-only, writes dropped
	}
}

func (b *Bus) Write16(address uint32, value uint16) {
	address &^= 1
	switch decode(address) {
	case regionEWRAM:
		putLE16(b.ewram[:], address%ewramSize, value)
	case regionIWRAM:
		putLE16(b.iwram[:], address%iwramSize, value)
	case regionIO:
		b.ioWrite16(address, value)
	case regionPalette:
		putLE16(b.palette[:], address%paletteSize, value)
	case regionVRAM:
		putLE16(b.vram[:], foldVRAM(address%0x06000000), value)
	case regionOAM:
		putLE16(b.oam[:], address%oamSize, value)
	case regionSave:
		b.cart.SaveWrite(address&0xFFFF, uint8(value))
	default:
	}
}

func (b *Bus) Write32(address uint32, value uint32) {
	address &^= 3
	switch decode(address) {
	case regionEWRAM:
		putLE32(b.ewram[:], address%ewramSize, value)
	case regionIWRAM:
		putLE32(b.iwram[:], address%iwramSize, value)
	case regionIO:
		b.ioWrite16(address, uint16(value))
		b.ioWrite16(address+2, uint16(value>>16))
	case regionPalette:
		putLE32(b.palette[:], address%paletteSize, value)
	case regionVRAM:
		putLE32(b.vram[:], foldVRAM(address%0x06000000), value)
	case regionOAM:
		putLE32(b.oam[:], address%oamSize, value)
	case regionSave:
		b.cart.SaveWrite(address&0xFFFF, uint8(value))
	default:
	}
}

// romOffset maps an 0x08-0x0D address into a ROM-relative offset, folding
// the three mirrored wait-state windows onto the same image.
func romOffset(address uint32) uint32 {
	return address & 0x01FFFFFF
}

func le16(b []byte, off uint32) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}
func le32(b []byte, off uint32) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}
func putLE16(b []byte, off uint32, v uint16) {
	b[off] = uint8(v)
	b[off+1] = uint8(v >> 8)
}
func putLE32(b []byte, off uint32, v uint32) {
	b[off] = uint8(v)
	b[off+1] = uint8(v >> 8)
	b[off+2] = uint8(v >> 16)
	b[off+3] = uint8(v >> 24)
}

// Subsystem accessors, used by the root emulator and CPU for hooks that
// don't fit the plain memory interface (interrupt polling, key input, DMA
// FIFO wiring, frame rendering).

func (b *Bus) Interrupts() *interrupt.Controller { return b.irq }
func (b *Bus) Keypad() *input.Keypad             { return b.keys }
func (b *Bus) PPU() *ppu.PPU                     { return b.ppu }
func (b *Bus) APU() *apu.APU                     { return b.apu }
func (b *Bus) DMA() *dma.Controller              { return b.dma }
func (b *Bus) Timers() *timer.Bank               { return b.tim }
func (b *Bus) Cartridge() *cart.Cartridge        { return b.cart }
