package ppu

import (
	"testing"

	"github.com/kestrel-dev/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

type fakeIRQ struct{ raised []addr.Interrupt }

func (f *fakeIRQ) Raise(src addr.Interrupt) { f.raised = append(f.raised, src) }

type fakeDMA struct{ hblanks, vblanks int }

func (f *fakeDMA) HBlank() { f.hblanks++ }
func (f *fakeDMA) VBlank() { f.vblanks++ }

func newTestPPU() (*PPU, *fakeIRQ, *fakeDMA) {
	vram := make([]byte, 96*1024)
	palette := make([]byte, 1024)
	oam := make([]byte, 1024)
	irq := &fakeIRQ{}
	dma := &fakeDMA{}
	return New(vram, palette, oam, irq, dma), irq, dma
}

// TestMode3Pixel matches the spec's literal mode-3 bitmap scenario: write
// BGR555 0x7C1F (magenta) to VRAM offset 0, enable mode 3 + BG2, render
// line 0, and expect framebuffer[0] == 0x7C1F.
func TestMode3Pixel(t *testing.T) {
	p, _, _ := newTestPPU()
	p.vram[0] = byte(0x7C1F)
	p.vram[1] = byte(0x7C1F >> 8)
	p.SetDISPCNT(0x0403) // mode 3, BG2 enable

	p.RenderScanline()

	got := p.Framebuffer().GetPixel(0, 0)
	want := FromBGR555(0x7C1F)
	assert.Equal(t, want, got)
}

func TestMode3_bg2DisabledRendersBackdrop(t *testing.T) {
	p, _, _ := newTestPPU()
	p.palette[0], p.palette[1] = 0x1F, 0x00 // backdrop = pure red (BGR555 0x001F)
	p.vram[0], p.vram[1] = 0xFF, 0x7F       // would be white if BG2 were enabled
	p.SetDISPCNT(0x0003)                    // mode 3, BG2 disabled

	p.RenderScanline()

	assert.Equal(t, FromBGR555(0x001F), p.Framebuffer().GetPixel(0, 0))
}

func TestForcedBlankRendersWhite(t *testing.T) {
	p, _, _ := newTestPPU()
	p.SetDISPCNT(1 << 7)
	p.RenderScanline()
	assert.Equal(t, Color{31, 31, 31}, p.Framebuffer().GetPixel(0, 0))
}

func TestSetHBlank_triggersDMAAndIRQOnEntry(t *testing.T) {
	p, irq, dma := newTestPPU()
	p.SetDISPSTAT(1 << 4) // H-blank IRQ enable

	p.SetHBlank(true)
	assert.Equal(t, 1, dma.hblanks)
	assert.Contains(t, irq.raised, addr.IRQHBlank)

	p.SetHBlank(false)
	assert.Equal(t, 1, dma.hblanks, "leaving H-blank doesn't trigger the DMA hook")
}

func TestAdvanceVCount_wrapsAndEntersVBlank(t *testing.T) {
	p, _, dma := newTestPPU()
	for i := 0; i < 228; i++ {
		p.AdvanceVCount()
	}
	assert.Equal(t, uint16(0), p.VCOUNT(), "vcount wraps after 228 lines")
	assert.Greater(t, dma.vblanks, 0, "entering line 160 should trigger V-blank DMA")
}
