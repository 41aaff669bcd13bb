package ppu

import "github.com/kestrel-dev/goba/goba/bit"

// renderMode3 draws BG2's 240x160 15-bit direct-color bitmap, per
// spec.md §4.3.
func (p *PPU) renderMode3(line int) {
	if !bit.IsSet16(10, p.dispcnt) { // BG2 enable
		p.flushBackdrop(line)
		return
	}
	base := line * Width * 2
	for x := 0; x < Width; x++ {
		off := base + x*2
		if off+1 >= len(p.vram) {
			continue
		}
		color := uint16(p.vram[off]) | uint16(p.vram[off+1])<<8
		p.plot(x, color, layerBG2)
	}
	p.flush(line)
}

// renderMode4 draws BG2's 240x160 8-bit palette-indexed, page-flipped
// bitmap, per spec.md §4.3.
func (p *PPU) renderMode4(line int) {
	if !bit.IsSet16(10, p.dispcnt) {
		p.flushBackdrop(line)
		return
	}
	page := 0
	if bit.IsSet16(4, p.dispcnt) {
		page = 0xA000
	}
	base := page + line*Width
	for x := 0; x < Width; x++ {
		off := base + x
		if off >= len(p.vram) {
			continue
		}
		idx := p.vram[off]
		if idx == 0 {
			continue
		}
		palOffset := int(idx) * 2
		if palOffset+1 >= len(p.palette) {
			continue
		}
		color := uint16(p.palette[palOffset]) | uint16(p.palette[palOffset+1])<<8
		p.plot(x, color, layerBG2)
	}
	p.flush(line)
}

// renderMode5 draws BG2's 160x128 15-bit direct-color, page-flipped
// bitmap, per spec.md §4.3. Rows/columns outside the 160x128 window show
// the backdrop.
func (p *PPU) renderMode5(line int) {
	const w, h = 160, 128
	if !bit.IsSet16(10, p.dispcnt) || line >= h {
		p.flushBackdrop(line)
		return
	}
	page := 0
	if bit.IsSet16(4, p.dispcnt) {
		page = 0xA000
	}
	base := page + line*w*2
	for x := 0; x < Width; x++ {
		if x >= w {
			continue
		}
		off := base + x*2
		if off+1 >= len(p.vram) {
			continue
		}
		color := uint16(p.vram[off]) | uint16(p.vram[off+1])<<8
		p.plot(x, color, layerBG2)
	}
	p.flush(line)
}

// flush copies the composited scratch row (after sprite compositing, which
// bitmap modes still support per real hardware) to the framebuffer.
func (p *PPU) flush(line int) {
	p.renderSpritesLine(line, -1) // bitmap modes: sprites composite over the single BG2 layer
	for x := 0; x < Width; x++ {
		p.fb.SetPixel(x, line, FromBGR555(p.top[x].color))
	}
}

func (p *PPU) flushBackdrop(line int) {
	for x := 0; x < Width; x++ {
		p.fb.SetPixel(x, line, FromBGR555(p.top[x].color))
	}
}
