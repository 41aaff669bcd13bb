package ppu

import "github.com/kestrel-dev/goba/goba/bit"

// affineMapTiles maps a BGCNT size code to the tile-unit side length of an
// affine background (always square), per spec.md §4.3.
var affineMapTiles = [4]int{16, 32, 64, 128}

// renderAffineBGLine draws one scanline of an affine background (mode 1's
// BG2, or mode 2's BG2/BG3), walking an 8.8 fixed-point (px,py) across the
// row and stepping by PA/PC per pixel, per spec.md §4.3's "Affine pixel
// lookup". idx selects which of the two affine parameter sets (0=BG2,
// 1=BG3) this background uses.
func (p *PPU) renderAffineBGLine(bg, line int) {
	idx := 0
	if bg == 3 {
		idx = 1
	}

	cnt := p.bgcnt[bg]
	charBase := int(bit.ExtractBits16(cnt, 3, 2)) * 0x4000
	screenBase := int(bit.ExtractBits16(cnt, 12, 8)) * 0x800
	sizeCode := bit.ExtractBits16(cnt, 15, 14)
	tiles := affineMapTiles[sizeCode]
	pixels := tiles * 8
	wrap := bit.IsSet16(13, cnt)

	// internal reference points are 8.8 fixed point (walked per scanline by
	// StepAffineReferences, which RenderScanline calls after rendering each
	// mode 1/2 line).
	px := p.refXInternal[idx]
	py := p.refYInternal[idx]

	pa, pc := int32(p.pa[idx]), int32(p.pc[idx])

	for x := 0; x < Width; x++ {
		ix := int(px >> 8)
		iy := int(py >> 8)
		px += pa
		py += pc

		if wrap {
			ix = ((ix % pixels) + pixels) % pixels
			iy = ((iy % pixels) + pixels) % pixels
		} else if ix < 0 || ix >= pixels || iy < 0 || iy >= pixels {
			continue
		}

		tileCol, tileRow := ix/8, iy/8
		inX, inY := ix%8, iy%8

		mapAddr := screenBase + tileRow*tiles + tileCol
		if mapAddr >= len(p.vram) {
			continue
		}
		tileNum := int(p.vram[mapAddr])

		tileAddr := charBase + tileNum*64 + inY*8 + inX
		if tileAddr >= len(p.vram) {
			continue
		}
		colorIdx := p.vram[tileAddr]
		if colorIdx == 0 {
			continue
		}

		palOffset := int(colorIdx) * 2
		if palOffset+1 >= len(p.palette) {
			continue
		}
		color := uint16(p.palette[palOffset]) | uint16(p.palette[palOffset+1])<<8
		p.plot(x, color, uint8(bg))
	}
}

// StepAffineReferences advances the internal reference points for both
// affine parameter sets by one scanline's worth of PB/PD, called by
// RenderScanline after rendering each mode 1/2 line (the horizontal walk uses
// PA/PC directly inside renderAffineBGLine; this only applies the
// per-scanline PB/PD step).
func (p *PPU) StepAffineReferences() {
	for i := 0; i < 2; i++ {
		p.refXInternal[i] += int32(p.pb[i])
		p.refYInternal[i] += int32(p.pd[i])
	}
}
