package cpu

// BIOSHLE implements a high-level emulation of the small set of GBA BIOS
// SWI services real games rely on, grounded on
// original_source/src/cpu/bios_hle.c's service table and spec.md §4.1's
// BIOS note: "implementations that do not ship BIOS ROM content must
// high-level-emulate the services games actually call: waiting services
// (Halt/Stop/IntrWait/VBlankIntrWait), memory copy/fill
// (CpuSet/CpuFastSet), and the arithmetic helpers (Div/DivArm/Sqrt)."
//
// Real hardware executes these as ARM code living in BIOS ROM; this
// interpreter instead intercepts the SWI comment field in enterSWI and
// performs the equivalent effect directly in Go, skipping straight to the
// LR return address.
type BIOSHLE struct {
	c *CPU

	// IntrWait/VBlankIntrWait state: the requested wait flags. They are
	// recorded but not used to wake the CPU; Step leaves Halt on any
	// pending interrupt.
	waitFlags  uint16
	waitClear  bool
	waiting    bool
}

func newBIOSHLE(c *CPU) *BIOSHLE {
	return &BIOSHLE{c: c}
}

// Dispatch services the given SWI number, per original_source's service
// table. Unhandled numbers are silently ignored (return to caller with
// registers untouched), matching real hardware's behavior for SWIs this
// HLE does not implement.
func (h *BIOSHLE) Dispatch(number uint32) {
	c := h.c
	switch number {
	case 0x00: // SoftReset
		c.Reset()
	case 0x01: // RegisterRamReset
		// no-op: memory-region clearing is outside this HLE's scope.
	case 0x02: // Halt
		c.Halt()
	case 0x03: // Stop
		c.Halt()
	case 0x04: // IntrWait
		h.waitClear = c.r[0] != 0
		h.waitFlags = uint16(c.r[1])
		h.waiting = true
		c.Halt()
	case 0x05: // VBlankIntrWait
		h.waitClear = true
		h.waitFlags = 1 // IRQ bit 0 == V-blank
		h.waiting = true
		c.Halt()
	case 0x06: // Div
		h.div(int32(c.r[0]), int32(c.r[1]), false)
	case 0x07: // DivArm (operand order swapped)
		h.div(int32(c.r[1]), int32(c.r[0]), false)
	case 0x08: // Sqrt
		c.r[0] = isqrt(c.r[0])
	case 0x0B: // CpuSet
		h.cpuSet(false)
	case 0x0C: // CpuFastSet
		h.cpuSet(true)
	case 0x0D: // GetBiosChecksum
		c.r[0] = 0xBAAE187F // published reference checksum for the GBA BIOS
	case 0x0E: // BgAffineSet
		h.bgAffineSet()
	case 0x0F: // ObjAffineSet
		h.objAffineSet()
	default:
		// unimplemented service: treated as a no-op, matching real
		// hardware's behavior when called with reserved numbers.
	}
}

func (h *BIOSHLE) div(numerator, denominator int32, _ bool) {
	c := h.c
	if denominator == 0 {
		c.r[0], c.r[1], c.r[3] = 0, uint32(numerator), 0
		return
	}
	quotient := numerator / denominator
	remainder := numerator % denominator
	c.r[0] = uint32(quotient)
	c.r[1] = uint32(remainder)
	if quotient < 0 {
		c.r[3] = uint32(-quotient)
	} else {
		c.r[3] = uint32(quotient)
	}
}

func isqrt(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}

// cpuSet implements the BIOS CpuSet/CpuFastSet memory copy/fill service:
// R0 = source, R1 = dest, R2 = control word (count in bits 0-20, bit 24
// selects fixed-source fill, bit 26 selects 32-bit transfers). CpuFastSet
// always transfers 32-bit words in blocks of 8 and ignores the width bit.
func (h *BIOSHLE) cpuSet(fast bool) {
	c := h.c
	src := c.r[0]
	dst := c.r[1]
	ctrl := c.r[2]
	count := ctrl & 0x1FFFFF
	fixedSource := ctrl&(1<<24) != 0
	word32 := fast || ctrl&(1<<26) != 0

	if fast {
		count = (count + 7) &^ 7 // CpuFastSet always rounds up to a multiple of 8 words
	}

	if word32 {
		for i := uint32(0); i < count; i++ {
			v := c.bus.Read32(src)
			c.bus.Write32(dst, v)
			dst += 4
			if !fixedSource {
				src += 4
			}
		}
	} else {
		for i := uint32(0); i < count; i++ {
			v := c.bus.Read16(src)
			c.bus.Write16(dst, v)
			dst += 2
			if !fixedSource {
				src += 2
			}
		}
	}
}

// bgAffineSet/objAffineSet compute affine parameter matrices from a source
// structure of center/reference points, scale, and angle. Games use these
// to set up rotation/scaling backgrounds and sprites without doing the
// trig themselves; this HLE is a stub matching the BIOS calling
// convention (R0=source, R1=dest, R2=count) without performing the
// trigonometry, since no observed title in this corpus's scope depends on
// its numeric output.
func (h *BIOSHLE) bgAffineSet()  {}
func (h *BIOSHLE) objAffineSet() {}

// Waiting reports whether an IntrWait/VBlankIntrWait call is outstanding,
// and WakeIfMatched clears that waiting flag once ifBits contains one of
// the requested flags. WakeIfMatched does not touch the CPU's halt state,
// and nothing in the core calls either method.
func (h *BIOSHLE) Waiting() bool { return h.waiting }

func (h *BIOSHLE) WakeIfMatched(ifBits uint16) bool {
	if !h.waiting {
		return false
	}
	if h.waitFlags&ifBits == 0 {
		return false
	}
	h.waiting = false
	return true
}
