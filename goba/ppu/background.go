package ppu

import "github.com/kestrel-dev/goba/goba/bit"

// regularMapTiles maps a BGCNT size code to the tile-unit dimensions of a
// regular (non-affine) background, per spec.md §4.3.
var regularMapTiles = [4][2]int{
	{32, 32}, // 256x256 px
	{64, 32}, // 512x256 px
	{32, 64}, // 256x512 px
	{64, 64}, // 512x512 px
}

// renderRegularBGLine draws one scanline of a regular tiled background
// (modes 0 and 1's BG0/BG1), per spec.md §4.3's "Regular-tile pixel lookup".
func (p *PPU) renderRegularBGLine(bg, line int) {
	cnt := p.bgcnt[bg]
	charBase := int(bit.ExtractBits16(cnt, 3, 2)) * 0x4000
	screenBase := int(bit.ExtractBits16(cnt, 12, 8)) * 0x800
	is8bpp := bit.IsSet16(7, cnt)
	sizeCode := bit.ExtractBits16(cnt, 15, 14)
	tilesW, tilesH := regularMapTiles[sizeCode][0], regularMapTiles[sizeCode][1]

	mapY := (line + int(p.vofs[bg])) % (tilesH * 8)
	tileRow := mapY / 8
	inTileY := mapY % 8

	for x := 0; x < Width; x++ {
		mapX := (x + int(p.hofs[bg])) % (tilesW * 8)
		tileCol := mapX / 8
		inTileX := mapX % 8

		entryAddr := screenBase + screenBlockOffset(tileCol, tileRow, tilesW) + 2*(mapEntryIndex(tileCol, tileRow, tilesW))
		if entryAddr+1 >= len(p.vram) {
			continue
		}
		entry := uint16(p.vram[entryAddr]) | uint16(p.vram[entryAddr+1])<<8

		tileNum := int(entry & 0x3FF)
		hflip := bit.IsSet16(10, entry)
		vflip := bit.IsSet16(11, entry)
		palNum := int(bit.ExtractBits16(entry, 15, 12))

		px, py := inTileX, inTileY
		if hflip {
			px = 7 - px
		}
		if vflip {
			py = 7 - py
		}

		var idx uint8
		if is8bpp {
			tileAddr := charBase + tileNum*64 + py*8 + px
			if tileAddr >= len(p.vram) {
				continue
			}
			idx = p.vram[tileAddr]
		} else {
			tileAddr := charBase + tileNum*32 + py*4 + px/2
			if tileAddr >= len(p.vram) {
				continue
			}
			b := p.vram[tileAddr]
			if px%2 == 0 {
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
			palOffset = int(idx) * 2
		} else {
			palOffset = (palNum*16 + int(idx)) * 2
		}
		if palOffset+1 >= len(p.palette) {
			continue
		}
		color := uint16(p.palette[palOffset]) | uint16(p.palette[palOffset+1])<<8
		p.plot(x, color, uint8(bg))
	}
}

// screenBlockOffset locates which 32x32-tile screen block (tilesW/32,
// tilesH/32 of them, arranged per spec.md §4.3) a tile coordinate falls in,
// and returns the byte offset of that block within the map.
func screenBlockOffset(tileCol, tileRow, tilesW int) int {
	blockX := tileCol / 32
	blockY := tileRow / 32
	blocksPerRow := tilesW / 32
	if blocksPerRow <= 1 {
		return blockY * 0x800
	}
	blockIndex := blockY*blocksPerRow + blockX
	return blockIndex * 0x800
}

// mapEntryIndex returns the tile's entry index within its own 32x32 screen
// block.
func mapEntryIndex(tileCol, tileRow, tilesW int) int {
	localX := tileCol % 32
	localY := tileRow % 32
	return localY*32 + localX
}
