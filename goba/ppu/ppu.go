// Package ppu implements the GBA's scanline renderer: six display modes,
// regular and affine background layers, the sprite compositor, and the
// color-effect blend stage. Grounded on jeebie/video/gpu.go's mode state
// machine and jeebie/video/framebuffer.go's framebuffer, generalized from
// the Game Boy's single background+window model to the GBA's six-mode,
// multi-background, affine, and blend pipeline per spec.md §4.3, with
// register and tile-format details cross-checked against
// original_source/src/ppu/{ppu,background,affine,bitmap,effects}.c.
package ppu

import (
	"github.com/kestrel-dev/goba/goba/addr"
	"github.com/kestrel-dev/goba/goba/bit"
)

// InterruptRaiser lets the PPU request V-blank/H-blank/V-count IRQs without
// depending on the concrete interrupt controller type.
type InterruptRaiser interface {
	Raise(src addr.Interrupt)
}

// DMATrigger lets the PPU fire H-blank/V-blank DMA triggers without
// importing the dma package directly.
type DMATrigger interface {
	HBlank()
	VBlank()
}

// layer identifies which source produced a composited pixel: 0-3 are BG0-3,
// 4 is the sprite layer, 5 is the backdrop (palette entry 0).
const (
	layerBG0 = 0
	layerBG1 = 1
	layerBG2 = 2
	layerBG3 = 3
	layerOBJ = 4
	layerBD  = 5
)

type pixel struct {
	color uint16
	layer uint8
}

// PPU holds all display registers, borrowed memory views, and per-frame
// compositing scratch state.
type PPU struct {
	vram    []byte // 96 KiB, mirror-folded by the bus before this slice is handed over
	palette []byte // 1 KiB
	oam     []byte // 1 KiB

	fb *FrameBuffer

	dispcnt  uint16
	dispstat uint16
	vcount   uint16

	bgcnt [4]uint16
	hofs  [4]uint16
	vofs  [4]uint16

	// affine parameters, indexed 0=BG2, 1=BG3
	pa, pb, pc, pd [2]int16
	refXLatch      [2]int32
	refYLatch      [2]int32
	refXInternal   [2]int32
	refYInternal   [2]int32

	win0h, win1h, win0v, win1v uint16
	winin, winout              uint16
	mosaic                     uint16

	bldcnt, bldalpha, bldy uint16

	top, second [Width]pixel

	irq InterruptRaiser
	dma DMATrigger
}

func New(vram, palette, oam []byte, irq InterruptRaiser, dma DMATrigger) *PPU {
	return &PPU{
		vram:    vram,
		palette: palette,
		oam:     oam,
		fb:      NewFrameBuffer(),
		irq:     irq,
		dma:     dma,
	}
}

func (p *PPU) Framebuffer() *FrameBuffer { return p.fb }

// --- register access, called from the bus's I/O dispatch table ---

func (p *PPU) DISPCNT() uint16     { return p.dispcnt }
func (p *PPU) SetDISPCNT(v uint16) { p.dispcnt = v }
func (p *PPU) DISPSTAT() uint16    { return p.dispstat }
func (p *PPU) SetDISPSTAT(v uint16) {
	// bits 0-2 (vblank/hblank/vcount flags) are hardware-set, not guest-writable;
	// preserve them and only accept the writable fields.
	p.dispstat = (p.dispstat & 0x0007) | (v &^ 0x0007)
}
func (p *PPU) VCOUNT() uint16 { return p.vcount }

func (p *PPU) SetBGCNT(i int, v uint16) { p.bgcnt[i] = v }
func (p *PPU) BGCNT(i int) uint16       { return p.bgcnt[i] }
func (p *PPU) SetHOFS(i int, v uint16)  { p.hofs[i] = v & 0x1FF }
func (p *PPU) SetVOFS(i int, v uint16)  { p.vofs[i] = v & 0x1FF }

func (p *PPU) SetPA(bg int, v uint16) { p.pa[bg] = int16(v) }
func (p *PPU) SetPB(bg int, v uint16) { p.pb[bg] = int16(v) }
func (p *PPU) SetPC(bg int, v uint16) { p.pc[bg] = int16(v) }
func (p *PPU) SetPD(bg int, v uint16) { p.pd[bg] = int16(v) }

// SetRefX/Y writes to BGxX/BGxY latch both the latch and (immediately) the
// internal walking reference, per real hardware behavior.
func (p *PPU) SetRefX(bg int, v uint32) {
	p.refXLatch[bg] = signExtend28(v)
	p.refXInternal[bg] = p.refXLatch[bg]
}
func (p *PPU) SetRefY(bg int, v uint32) {
	p.refYLatch[bg] = signExtend28(v)
	p.refYInternal[bg] = p.refYLatch[bg]
}

func signExtend28(v uint32) int32 {
	return int32(bit.SignExtend(v, 28))
}

func (p *PPU) SetWIN0H(v uint16)   { p.win0h = v }
func (p *PPU) SetWIN1H(v uint16)   { p.win1h = v }
func (p *PPU) SetWIN0V(v uint16)   { p.win0v = v }
func (p *PPU) SetWIN1V(v uint16)   { p.win1v = v }
func (p *PPU) SetWININ(v uint16)   { p.winin = v }
func (p *PPU) SetWINOUT(v uint16)  { p.winout = v }
func (p *PPU) SetMOSAIC(v uint16)  { p.mosaic = v }
func (p *PPU) SetBLDCNT(v uint16)  { p.bldcnt = v }
func (p *PPU) SetBLDALPHA(v uint16) { p.bldalpha = v }
func (p *PPU) SetBLDY(v uint16)    { p.bldy = v }

// --- scheduler hooks, per spec.md §4.5 ---

// SetHBlank marks the H-blank flag and, if the IRQ is enabled, requests it.
// It does not advance V-count; the scheduler does that separately.
func (p *PPU) SetHBlank(on bool) {
	p.dispstat = bit.SetIf16(1, p.dispstat, on)
	if on {
		if p.dma != nil {
			p.dma.HBlank()
		}
		if bit.IsSet16(4, p.dispstat) {
			p.requestIRQ(addr.IRQHBlank)
		}
	}
}

// AdvanceVCount increments V-count (wrapping at 228) and handles the
// V-blank/V-count-match edges per spec.md §4.5 steps 6-9.
func (p *PPU) AdvanceVCount() {
	p.dispstat = bit.Clear16(1, p.dispstat) // clear hblank flag
	p.vcount = (p.vcount + 1) % 228

	lyc := uint16(bit.ExtractBits16(p.dispstat, 15, 8))
	matched := p.vcount == lyc
	p.dispstat = bit.SetIf16(2, p.dispstat, matched)
	if matched && bit.IsSet16(5, p.dispstat) {
		p.requestIRQ(addr.IRQVCount)
	}

	if p.vcount == 160 {
		p.dispstat = bit.Set16(0, p.dispstat)
		p.requestIRQ(addr.IRQVBlank)
		if p.dma != nil {
			p.dma.VBlank()
		}
		for i := 0; i < 2; i++ {
			p.refXInternal[i] = p.refXLatch[i]
			p.refYInternal[i] = p.refYLatch[i]
		}
	}
	if p.vcount == 0 {
		p.dispstat = bit.Clear16(0, p.dispstat)
	}
}

func (p *PPU) requestIRQ(src addr.Interrupt) {
	if p.irq != nil {
		p.irq.Raise(src)
	}
}

func (p *PPU) InVBlank() bool { return bit.IsSet16(0, p.dispstat) }

// RenderScanline renders the current V-count row into the framebuffer, per
// spec.md §4.3.
func (p *PPU) RenderScanline() {
	line := int(p.vcount)
	if line < 0 || line >= Height {
		return
	}

	if bit.IsSet16(7, p.dispcnt) { // forced blank
		for x := 0; x < Width; x++ {
			p.fb.SetPixel(x, line, Color{31, 31, 31})
		}
		return
	}

	for x := 0; x < Width; x++ {
		p.top[x] = pixel{color: p.backdrop(), layer: layerBD}
		p.second[x] = p.top[x]
	}

	mode := p.dispcnt & 0x7
	switch mode {
	case 0:
		p.renderTiledFrame(line, [4]bool{true, true, true, true}, [4]bool{})
	case 1:
		p.renderTiledFrame(line, [4]bool{true, true, true, false}, [4]bool{false, false, true, false})
		p.StepAffineReferences()
	case 2:
		p.renderTiledFrame(line, [4]bool{false, false, true, true}, [4]bool{false, false, true, true})
		p.StepAffineReferences()
	case 3:
		p.renderMode3(line)
	case 4:
		p.renderMode4(line)
	case 5:
		p.renderMode5(line)
	}

	p.applyEffects(line)
}

func (p *PPU) backdrop() uint16 {
	return uint16(p.palette[0]) | uint16(p.palette[1])<<8
}

// renderTiledFrame composites BG layers (regular or affine, per affineMask)
// and sprites back-to-front by priority, per spec.md §4.3's compositing
// rule.
func (p *PPU) renderTiledFrame(line int, enabledBG [4]bool, affineMask [4]bool) {
	for pr := 3; pr >= 0; pr-- {
		for bg := 3; bg >= 0; bg-- {
			if !enabledBG[bg] || !bit.IsSet16(uint(8+bg), p.dispcnt) {
				continue
			}
			if int(bit.ExtractBits16(p.bgcnt[bg], 1, 0)) != pr {
				continue
			}
			if affineMask[bg] {
				p.renderAffineBGLine(bg, line)
			} else {
				p.renderRegularBGLine(bg, line)
			}
		}
		p.renderSpritesLine(line, pr)
	}
	for x := 0; x < Width; x++ {
		p.fb.SetPixel(x, line, FromBGR555(p.top[x].color))
	}
}

// plot pushes a non-transparent layer pixel into the top/second tracking
// slots for column x, per spec.md §4.3's compositing rule.
func (p *PPU) plot(x int, color uint16, layer uint8) {
	if x < 0 || x >= Width {
		return
	}
	p.second[x] = p.top[x]
	p.top[x] = pixel{color: color, layer: layer}
}
