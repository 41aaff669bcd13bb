package ppu

import "github.com/kestrel-dev/goba/goba/bit"

// blendMode is BLDCNT bits 6-7.
const (
	blendNone     = 0
	blendAlpha    = 1
	blendBrighten = 2
	blendDarken   = 3
)

// applyEffects runs the color-effect stage over the composited scanline,
// per spec.md §4.3's "Color effects".
func (p *PPU) applyEffects(line int) {
	mode := bit.ExtractBits16(p.bldcnt, 7, 6)
	if mode == blendNone {
		return
	}

	firstMask := byte(p.bldcnt & 0x3F)
	secondMask := byte((p.bldcnt >> 8) & 0x3F)

	eva := clamp16(int(p.bldalpha & 0x1F))
	evb := clamp16(int((p.bldalpha >> 8) & 0x1F))
	evy := clamp16(int(p.bldy & 0x1F))

	for x := 0; x < Width; x++ {
		top := p.top[x]
		if !layerInMask(top.layer, firstMask) {
			continue
		}
		c := FromBGR555(top.color)

		switch mode {
		case blendAlpha:
			second := p.second[x]
			if !layerInMask(second.layer, secondMask) {
				continue
			}
			c2 := FromBGR555(second.color)
			c = Color{
				R: blendChannel(c.R, c2.R, eva, evb),
				G: blendChannel(c.G, c2.G, eva, evb),
				B: blendChannel(c.B, c2.B, eva, evb),
			}
		case blendBrighten:
			c = Color{
				R: brighten(c.R, evy),
				G: brighten(c.G, evy),
				B: brighten(c.B, evy),
			}
		case blendDarken:
			c = Color{
				R: darken(c.R, evy),
				G: darken(c.G, evy),
				B: darken(c.B, evy),
			}
		}

		p.fb.SetPixel(x, line, c)
	}
}

func layerInMask(layer uint8, mask byte) bool {
	if layer > 5 {
		return false
	}
	return mask&(1<<layer) != 0
}

func clamp16(v int) int {
	if v > 16 {
		return 16
	}
	return v
}

func blendChannel(a, b uint8, eva, evb int) uint8 {
	v := (int(a)*eva + int(b)*evb) >> 4
	return clamp5(v)
}

func brighten(v uint8, evy int) uint8 {
	return clamp5(int(v) + ((31-int(v))*evy)>>4)
}

func darken(v uint8, evy int) uint8 {
	return clamp5(int(v) - (int(v)*evy)>>4)
}

func clamp5(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 31 {
		return 31
	}
	return uint8(v)
}
