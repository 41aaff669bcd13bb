package ppu

import "github.com/kestrel-dev/goba/goba/bit"

// objSizes maps (shape, size) from OAM attr0/attr1 to pixel dimensions, per
// spec.md §4.3's shape/size table.
var objSizes = [4][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // horizontal
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // vertical
	{{8, 8}, {8, 8}, {8, 8}, {8, 8}},          // reserved, unused
}

// renderSpritesLine composites the OBJ layer for one scanline. priority
// selects only sprites at that BG-comparable priority level (0-3); pass -1
// to composite every sprite regardless of priority, as bitmap modes 3-5 do
// since they have only one BG layer to compare against.
func (p *PPU) renderSpritesLine(line, priority int) {
	if !bit.IsSet16(12, p.dispcnt) { // OBJ enable
		return
	}
	mapping1D := bit.IsSet16(6, p.dispcnt)

	for i := 127; i >= 0; i-- {
		base := i * 8
		if base+5 >= len(p.oam) {
			continue
		}
		attr0 := uint16(p.oam[base]) | uint16(p.oam[base+1])<<8
		attr1 := uint16(p.oam[base+2]) | uint16(p.oam[base+3])<<8
		attr2 := uint16(p.oam[base+4]) | uint16(p.oam[base+5])<<8

		objMode := bit.ExtractBits16(attr0, 9, 8)
		if objMode == 2 { // disabled (non-affine double-size bit reused as disable)
			continue
		}

		pr := int(bit.ExtractBits16(attr2, 11, 10))
		if priority >= 0 && pr != priority {
			continue
		}

		shape := bit.ExtractBits16(attr0, 15, 14)
		size := bit.ExtractBits16(attr1, 15, 14)
		w, h := objSizes[shape][size][0], objSizes[shape][size][1]

		y := int(uint8(attr0 & 0xFF))
		if y >= 160 {
			y -= 256
		}
		if line < y || line >= y+h {
			continue
		}

		x := int(bit.SignExtend(uint32(attr1&0x1FF), 9))

		is8bpp := bit.IsSet16(13, attr0)
		hflip := bit.IsSet16(12, attr1)
		vflip := bit.IsSet16(13, attr1)
		tileNum := int(attr2 & 0x3FF)
		palNum := int(bit.ExtractBits16(attr2, 15, 12))

		inY := line - y
		if vflip {
			inY = h - 1 - inY
		}
		tileRow := inY / 8
		rowInTile := inY % 8

		tilesWide := w / 8

		for col := 0; col < w; col++ {
			screenX := x + col
			if screenX < 0 || screenX >= Width {
				continue
			}
			inX := col
			if hflip {
				inX = w - 1 - col
			}
			tileCol := inX / 8
			colInTile := inX % 8

			var tileIndex int
			if mapping1D {
				tileIndex = tileNum + (tileRow*tilesWide+tileCol)*boolToInt(is8bpp, 2, 1)
			} else {
				tileIndex = tileNum + tileRow*32 + tileCol*boolToInt(is8bpp, 2, 1)
			}

			var idx uint8
			if is8bpp {
				addr := 0x10000 + tileIndex*64 + rowInTile*8 + colInTile
				if addr >= len(p.vram) {
					continue
				}
				idx = p.vram[addr]
			} else {
				addr := 0x10000 + tileIndex*32 + rowInTile*4 + colInTile/2
				if addr >= len(p.vram) {
					continue
				}
				b := p.vram[addr]
				if colInTile%2 == 0 {
					idx = b & 0x0F
				} else {
					idx = b >> 4
				}
			}
			if idx == 0 {
				continue
			}

			var palOffset int
			if is8bpp {
				palOffset = 0x200 + int(idx)*2
			} else {
				palOffset = 0x200 + (palNum*16+int(idx))*2
			}
			if palOffset+1 >= len(p.palette) {
				continue
			}
			color := uint16(p.palette[palOffset]) | uint16(p.palette[palOffset+1])<<8
			p.plot(screenX, color, layerOBJ)
		}
	}
}

func boolToInt(b bool, ifTrue, ifFalse int) int {
	if b {
		return ifTrue
	}
	return ifFalse
}
