package bus

import "github.com/kestrel-dev/goba/goba/addr"

// ioReg is one dispatch-table slot: a pair of closures over the owning
// subsystem's live state. Registers with no special behavior (most of the
// sound and DMA detail bits) fall back to reading/writing the plain backing
// store directly. Grounded on the pattern spec.md's REDESIGN FLAGS calls for
// in place of the teacher's switch-per-address MMU.Read/Write.
type ioReg struct {
	read  func() uint16
	write func(uint16)
}

type ioTable [512]*ioReg

// slot returns the table index for a halfword-aligned offset.
func slot(offset uint32) int { return int((offset & 0x3FF) / 2) }

func (b *Bus) ioRead16(address uint32) uint16 {
	off := address & 0x3FF
	if r := b.ioTable[slot(off)]; r != nil && r.read != nil {
		return r.read()
	}
	return le16(b.io[:], off)
}

func (b *Bus) ioWrite16(address uint32, value uint16) {
	off := address & 0x3FF
	putLE16(b.io[:], off, value) // always keep the backing store in sync
	if r := b.ioTable[slot(off)]; r != nil && r.write != nil {
		r.write(value)
	}
}

func (b *Bus) ioRaw16(offset uint32) uint16 { return le16(b.io[:], offset&0x3FF) }

// register registers a closure pair at the given byte offset.
func (t *ioTable) register(offset uint32, read func() uint16, write func(uint16)) {
	t[slot(offset)] = &ioReg{read: read, write: write}
}

func (b *Bus) buildIOTable() {
	t := &b.ioTable

	// Display.
	t.register(addr.DISPCNT, b.ppu.DISPCNT, b.ppu.SetDISPCNT)
	t.register(addr.DISPSTAT, b.ppu.DISPSTAT, b.ppu.SetDISPSTAT)
	t.register(addr.VCOUNT, b.ppu.VCOUNT, nil)

	bgcnt := [4]uint32{addr.BG0CNT, addr.BG1CNT, addr.BG2CNT, addr.BG3CNT}
	hofs := [4]uint32{addr.BG0HOFS, addr.BG1HOFS, addr.BG2HOFS, addr.BG3HOFS}
	vofs := [4]uint32{addr.BG0VOFS, addr.BG1VOFS, addr.BG2VOFS, addr.BG3VOFS}
	for i := 0; i < 4; i++ {
		i := i
		t.register(bgcnt[i], func() uint16 { return b.ppu.BGCNT(i) }, func(v uint16) { b.ppu.SetBGCNT(i, v) })
		t.register(hofs[i], nil, func(v uint16) { b.ppu.SetHOFS(i, v) })
		t.register(vofs[i], nil, func(v uint16) { b.ppu.SetVOFS(i, v) })
	}

	// Affine BG2/BG3 parameters. PA-PD are plain halfwords; X/Y are 32-bit,
	// assembled from the IO backing store's two halves on each write.
	affine := []struct {
		bg         int
		pa, pb, pc, pd uint32
		x, y       uint32
	}{
		{0, addr.BG2PA, addr.BG2PB, addr.BG2PC, addr.BG2PD, addr.BG2X, addr.BG2Y},
		{1, addr.BG3PA, addr.BG3PB, addr.BG3PC, addr.BG3PD, addr.BG3X, addr.BG3Y},
	}
	for _, a := range affine {
		a := a
		t.register(a.pa, nil, func(v uint16) { b.ppu.SetPA(a.bg, v) })
		t.register(a.pb, nil, func(v uint16) { b.ppu.SetPB(a.bg, v) })
		t.register(a.pc, nil, func(v uint16) { b.ppu.SetPC(a.bg, v) })
		t.register(a.pd, nil, func(v uint16) { b.ppu.SetPD(a.bg, v) })
		t.register(a.x, nil, func(uint16) {
			b.ppu.SetRefX(a.bg, uint32(b.ioRaw16(a.x))|uint32(b.ioRaw16(a.x+2))<<16)
		})
		t.register(a.x+2, nil, func(uint16) {
			b.ppu.SetRefX(a.bg, uint32(b.ioRaw16(a.x))|uint32(b.ioRaw16(a.x+2))<<16)
		})
		t.register(a.y, nil, func(uint16) {
			b.ppu.SetRefY(a.bg, uint32(b.ioRaw16(a.y))|uint32(b.ioRaw16(a.y+2))<<16)
		})
		t.register(a.y+2, nil, func(uint16) {
			b.ppu.SetRefY(a.bg, uint32(b.ioRaw16(a.y))|uint32(b.ioRaw16(a.y+2))<<16)
		})
	}

	t.register(addr.WIN0H, nil, b.ppu.SetWIN0H)
	t.register(addr.WIN1H, nil, b.ppu.SetWIN1H)
	t.register(addr.WIN0V, nil, b.ppu.SetWIN0V)
	t.register(addr.WIN1V, nil, b.ppu.SetWIN1V)
	t.register(addr.WININ, nil, b.ppu.SetWININ)
	t.register(addr.WINOUT, nil, b.ppu.SetWINOUT)
	t.register(addr.MOSAIC, nil, b.ppu.SetMOSAIC)
	t.register(addr.BLDCNT, nil, b.ppu.SetBLDCNT)
	t.register(addr.BLDALPHA, nil, b.ppu.SetBLDALPHA)
	t.register(addr.BLDY, nil, b.ppu.SetBLDY)

	// Sound. The per-channel NRxx registers are modeled as plain backing
	// store: writes to them are not forwarded to apu.APU, so the legacy
	// channels are never configured or triggered by the guest.
	// SOUNDCNT_L/H/X, SOUNDBIAS and the two FIFOs get live wiring.
	t.register(addr.SOUNDCNT_L, b.apu.SoundCntL, b.apu.SetSoundCntL)
	t.register(addr.SOUNDCNT_H, b.apu.SoundCntH, b.apu.SetSoundCntH)
	t.register(addr.SOUNDCNT_X, nil, func(v uint16) { b.apu.SetMasterEnable(v&(1<<7) != 0) })
	t.register(addr.SOUNDBIAS, b.apu.SoundBias, b.apu.SetSoundBias)
	t.register(addr.FIFO_A, nil, func(v uint16) {
		b.apu.WriteFIFOA(uint32(b.ioRaw16(addr.FIFO_A)) | uint32(v)<<16)
	})
	t.register(addr.FIFO_B, nil, func(v uint16) {
		b.apu.WriteFIFOB(uint32(b.ioRaw16(addr.FIFO_B)) | uint32(v)<<16)
	})

	// DMA. SAD/DAD are 32-bit latches assembled the same way as the affine
	// reference points; CNT_H is where the rising-edge kick happens.
	dmaRegs := []struct {
		sad, dad, cntL, cntH uint32
	}{
		{addr.DMA0SAD, addr.DMA0DAD, addr.DMA0CNT_L, addr.DMA0CNT_H},
		{addr.DMA1SAD, addr.DMA1DAD, addr.DMA1CNT_L, addr.DMA1CNT_H},
		{addr.DMA2SAD, addr.DMA2DAD, addr.DMA2CNT_L, addr.DMA2CNT_H},
		{addr.DMA3SAD, addr.DMA3DAD, addr.DMA3CNT_L, addr.DMA3CNT_H},
	}
	for i, d := range dmaRegs {
		i, d := i, d
		t.register(d.sad, nil, func(uint16) {
			b.dma.SetSAD(i, uint32(b.ioRaw16(d.sad))|uint32(b.ioRaw16(d.sad+2))<<16)
		})
		t.register(d.sad+2, nil, func(uint16) {
			b.dma.SetSAD(i, uint32(b.ioRaw16(d.sad))|uint32(b.ioRaw16(d.sad+2))<<16)
		})
		t.register(d.dad, nil, func(uint16) {
			b.dma.SetDAD(i, uint32(b.ioRaw16(d.dad))|uint32(b.ioRaw16(d.dad+2))<<16)
		})
		t.register(d.dad+2, nil, func(uint16) {
			b.dma.SetDAD(i, uint32(b.ioRaw16(d.dad))|uint32(b.ioRaw16(d.dad+2))<<16)
		})
		t.register(d.cntL, func() uint16 { return b.dma.CountL(i) }, func(v uint16) { b.dma.SetCountL(i, v) })
		t.register(d.cntH, func() uint16 { return b.dma.CNTH(i) }, func(v uint16) { b.dma.SetCNTH(i, v) })
	}

	// Timers.
	tmr := []struct{ cl, ch uint32 }{
		{addr.TM0CNT_L, addr.TM0CNT_H}, {addr.TM1CNT_L, addr.TM1CNT_H},
		{addr.TM2CNT_L, addr.TM2CNT_H}, {addr.TM3CNT_L, addr.TM3CNT_H},
	}
	for i, r := range tmr {
		i, r := i, r
		t.register(r.cl, func() uint16 { return b.tim.CounterRead(i) }, func(v uint16) { b.tim.SetReload(i, v) })
		t.register(r.ch, func() uint16 { return b.tim.ControlRead(i) }, func(v uint16) { b.tim.SetControl(i, v) })
	}

	// Keypad.
	t.register(addr.KEYINPUT, b.keys.KEYINPUT, nil)
	t.register(addr.KEYCNT, b.keys.KEYCNT, b.keys.SetKEYCNT)

	// Interrupt / system control.
	t.register(addr.IE, b.irq.IE, b.irq.SetIE)
	t.register(addr.IF, b.irq.IF, b.irq.WriteIF)
	t.register(addr.IME, b.irq.IME, b.irq.SetIME)
}
