// Package cpu implements an ARM7TDMI interpreter: dual ARM/Thumb decode,
// the seven processor modes with banked registers, the two-stage prefetch
// pipeline, and IRQ/SWI exception entry. Grounded on jeebie/cpu/cpu.go and
// jeebie/cpu/registers.go's register-modeling shape (Register8/16
// get/set/high/low), generalized from the Game Boy's single 8/16-bit
// register file to the ARM7TDMI's 16 general registers, banked per mode,
// per spec.md §4.1, cross-checked against
// original_source/src/cpu/{arm7tdmi,arm_instr,thumb_instr,bios_hle}.c.
package cpu

import "github.com/kestrel-dev/goba/goba/bit"

// Mode is the CPSR mode field (bits 0-4).
type Mode uint32

const (
	ModeUser Mode = 0x10
	ModeFIQ  Mode = 0x11
	ModeIRQ  Mode = 0x12
	ModeSVC  Mode = 0x13
	ModeAbt  Mode = 0x17
	ModeUnd  Mode = 0x1B
	ModeSys  Mode = 0x1F
)

// CPSR flag bit positions.
const (
	flagN = 31
	flagZ = 30
	flagC = 29
	flagV = 28
	flagI = 7 // IRQ disable
	flagF = 6 // FIQ disable
	flagT = 5 // Thumb state
)

// Bus is the subset of the memory bus the CPU needs.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
	SetPC(pc uint32)
}

// InterruptSource answers whether any enabled interrupt is pending/should
// be entered, decoupling the CPU from the concrete interrupt controller.
type InterruptSource interface {
	Pending() bool
	ShouldEnter() bool
}

// pipelineState models the two-slot prefetch queue from spec.md §4.1: after
// any branch/PC write/mode-T-change, the pipeline is invalid and the next
// Step performs two fetches before resuming normal execution.
type pipelineState int

const (
	pipelineValid pipelineState = iota
	pipelineInvalid
)

// CPU holds the full ARM7TDMI register file (general registers plus every
// mode's banked shadow), CPSR/SPSRs, and pipeline state.
type CPU struct {
	r [16]uint32

	// banked shadows, per spec.md §4.1's "Banking" rule.
	bankFIQ [7]uint32 // r8-r14, FIQ-private
	userR8_12 [5]uint32 // r8-r12 shared by every non-FIQ mode
	bankSVC [2]uint32   // r13,r14
	bankIRQ [2]uint32
	bankAbt [2]uint32
	bankUnd [2]uint32
	bankUsr [2]uint32 // r13,r14 shared by USR/SYS

	cpsr uint32
	spsrFIQ, spsrIRQ, spsrSVC, spsrAbt, spsrUnd uint32

	pipeline pipelineState
	fetched  [2]uint32 // slot0 = executing, slot1 = prefetched

	halted bool

	bus Bus
	irq InterruptSource

	bios *BIOSHLE

	// hleMode is true when no real BIOS ROM was supplied. Per spec.md §6's
	// BIOS note, IRQ entry then bypasses the fabricated 0x18 trampoline
	// entirely rather than depending on it actually being fetched and
	// executed: the CPU loads the user handler pointer and invokes it
	// directly, and recognizes the matching fabricated return address to
	// perform the trampoline's SUBS PC,LR,#4 equivalent.
	hleMode     bool
	irqReturnPC uint32 // LR value the real trampoline would have restored PC from, in HLE mode
}

// hleReturnAddress is a sentinel PC value used as the IRQ handler's return
// address in HLE mode; Step recognizes it and performs the exception
// return instead of fetching instructions there, since no real trampoline
// code exists to run it.
const hleReturnAddress uint32 = 0x00000014

func New(bus Bus, irq InterruptSource, hleMode bool) *CPU {
	c := &CPU{bus: bus, irq: irq, hleMode: hleMode}
	c.bios = newBIOSHLE(c)
	c.Reset()
	return c
}

// Reset puts the CPU in its power-on state: SVC mode, IRQs/FIQs disabled,
// ARM state, PC at the reset vector, pipeline invalid.
func (c *CPU) Reset() {
	c.cpsr = uint32(ModeSVC) | (1 << flagI) | (1 << flagF)
	c.r[15] = 0x00000000
	c.pipeline = pipelineInvalid
	c.halted = false
}

func (c *CPU) mode() Mode   { return Mode(c.cpsr & 0x1F) }
func (c *CPU) thumb() bool  { return bit.IsSet32(flagT, c.cpsr) }
func (c *CPU) inIRQDisabled() bool { return bit.IsSet32(flagI, c.cpsr) }

func (c *CPU) flag(pos uint) bool { return bit.IsSet32(pos, c.cpsr) }
func (c *CPU) setFlag(pos uint, v bool) { c.cpsr = bit.SetIf32(pos, c.cpsr, v) }

// N/Z/C/V accessors used throughout the instruction set.
func (c *CPU) N() bool { return c.flag(flagN) }
func (c *CPU) Z() bool { return c.flag(flagZ) }
func (c *CPU) C() bool { return c.flag(flagC) }
func (c *CPU) V() bool { return c.flag(flagV) }
func (c *CPU) setNZ(result uint32) {
	c.setFlag(flagN, result&0x80000000 != 0)
	c.setFlag(flagZ, result == 0)
}

// Halt is entered via the BIOS Halt/Stop SWI; the CPU consumes cycles doing
// nothing until an interrupt becomes pending.
func (c *CPU) Halt()        { c.halted = true }
func (c *CPU) Halted() bool { return c.halted }

// switchMode banks out the outgoing mode's registers and banks in the
// incoming mode's, per spec.md §4.1: FIQ saves/restores R8-R14; IRQ/SVC/
// ABT/UND save/restore R13-R14; USR/SYS share a single R13/R14 slot.
func (c *CPU) switchMode(newMode Mode) {
	old := c.mode()
	if old == newMode {
		return
	}

	// save outgoing
	switch old {
	case ModeFIQ:
		copy(c.bankFIQ[:], c.r[8:15])
	default:
		copy(c.userR8_12[:], c.r[8:13])
		switch old {
		case ModeIRQ:
			c.bankIRQ[0], c.bankIRQ[1] = c.r[13], c.r[14]
		case ModeSVC:
			c.bankSVC[0], c.bankSVC[1] = c.r[13], c.r[14]
		case ModeAbt:
			c.bankAbt[0], c.bankAbt[1] = c.r[13], c.r[14]
		case ModeUnd:
			c.bankUnd[0], c.bankUnd[1] = c.r[13], c.r[14]
		case ModeUser, ModeSys:
			c.bankUsr[0], c.bankUsr[1] = c.r[13], c.r[14]
		}
	}

	// load incoming
	switch newMode {
	case ModeFIQ:
		copy(c.r[8:15], c.bankFIQ[:])
	default:
		copy(c.r[8:13], c.userR8_12[:])
		switch newMode {
		case ModeIRQ:
			c.r[13], c.r[14] = c.bankIRQ[0], c.bankIRQ[1]
		case ModeSVC:
			c.r[13], c.r[14] = c.bankSVC[0], c.bankSVC[1]
		case ModeAbt:
			c.r[13], c.r[14] = c.bankAbt[0], c.bankAbt[1]
		case ModeUnd:
			c.r[13], c.r[14] = c.bankUnd[0], c.bankUnd[1]
		case ModeUser, ModeSys:
			c.r[13], c.r[14] = c.bankUsr[0], c.bankUsr[1]
		}
	}

	c.cpsr = (c.cpsr &^ 0x1F) | uint32(newMode)
}

func (c *CPU) spsr() *uint32 {
	switch c.mode() {
	case ModeFIQ:
		return &c.spsrFIQ
	case ModeIRQ:
		return &c.spsrIRQ
	case ModeSVC:
		return &c.spsrSVC
	case ModeAbt:
		return &c.spsrAbt
	case ModeUnd:
		return &c.spsrUnd
	default:
		var discard uint32
		return &discard // USR/SYS have no SPSR
	}
}

// flushPipeline marks the pipeline invalid; the next Step performs two
// fetches before executing, per spec.md §4.1.
func (c *CPU) flushPipeline() { c.pipeline = pipelineInvalid }

// fetchWidth is 4 in ARM state, 2 in Thumb.
func (c *CPU) fetchWidth() uint32 {
	if c.thumb() {
		return 2
	}
	return 4
}

// Step executes one instruction and returns the number of cycles it
// consumed. If halted, it returns 1 idle cycle per call unless an interrupt
// is pending, in which case it wakes and continues (entering the IRQ when
// IME allows it).
func (c *CPU) Step() int {
	if c.halted {
		if c.irq.Pending() {
			c.halted = false
		} else {
			return 1
		}
	}

	if c.hleMode && c.r[15] == hleReturnAddress {
		// equivalent of the trampoline's "SUBS PC,LR,#4": restore CPSR from
		// SPSR_irq, switch mode, and resume at the original return address.
		c.returnFromException(c.irqReturnPC)
		return 1
	}

	if c.irq.ShouldEnter() {
		c.enterIRQ()
	}

	c.bus.SetPC(c.r[15])

	if c.pipeline == pipelineInvalid {
		c.refillPipeline()
	}

	opcode := c.fetched[0]
	width := c.fetchWidth()

	invalidated := c.pipeline == pipelineInvalid // set by branch helpers below if they fire
	var cycles int
	if c.thumb() {
		cycles = c.executeThumb(uint16(opcode))
	} else {
		cycles = c.executeARM(opcode)
	}

	// advance pipeline only if execution did not invalidate it, per spec.md
	// §4.1's "execute first, advance only if not invalidated" ordering.
	if c.pipeline != pipelineInvalid {
		c.fetched[0] = c.fetched[1]
		c.fetched[1] = c.fetchAt(c.r[15])
		c.r[15] += width
	}
	_ = invalidated

	return cycles
}

func (c *CPU) fetchAt(pc uint32) uint32 {
	if c.thumb() {
		return uint32(c.bus.Read16(pc))
	}
	return c.bus.Read32(pc)
}

// refillPipeline performs the two fetches spec.md §4.1 describes after any
// branch: slot0 at the target, slot1 at target+width, PC left at
// target+2*width (the "address of next fetch" invariant).
func (c *CPU) refillPipeline() {
	width := c.fetchWidth()
	c.fetched[0] = c.fetchAt(c.r[15])
	c.fetched[1] = c.fetchAt(c.r[15] + width)
	c.r[15] += 2 * width
	c.pipeline = pipelineValid
}

// branchTo sets PC to target and invalidates the pipeline, per spec.md
// §4.1: "Branch: after executing, PC == branch_target + 2*fetch_width."
// The +2*width offset is applied by the next refillPipeline call, not here.
func (c *CPU) branchTo(target uint32) {
	c.r[15] = target
	c.flushPipeline()
}

// enterIRQ implements spec.md §4.1's IRQ entry sequence. In HLE mode it
// skips the fabricated 0x18 trampoline and jumps straight to the user
// handler pointer stored at 0x03FFFFFC, with LR rigged to the
// hleReturnAddress sentinel Step recognizes to perform the trampoline's
// restore-and-return.
func (c *CPU) enterIRQ() {
	returnPC := c.r[15] // LR_irq = current PC (already executing_addr + 2*width)
	savedCPSR := c.cpsr
	c.switchMode(ModeIRQ)
	c.spsrIRQ = savedCPSR
	c.setFlag(flagI, true)
	c.setFlag(flagT, false)

	if c.hleMode {
		c.irqReturnPC = returnPC
		c.r[14] = hleReturnAddress
		handler := c.bus.Read32(0x03FFFFFC)
		c.branchTo(handler &^ 1)
		c.setFlag(flagT, handler&1 == 1)
		return
	}

	c.r[14] = returnPC
	c.branchTo(0x18)
}

// enterSWI handles the SWI instruction. With a real BIOS loaded it vectors
// to 0x08 in Supervisor mode (SPSR_svc = old CPSR, LR_svc = address of the
// next instruction). In HLE mode it services the SWI via BIOSHLE instead:
// the comment field selects the service, and execution resumes at the
// instruction following the SWI with no mode switch.
func (c *CPU) enterSWI(op uint32) {
	if !c.hleMode {
		returnPC := c.r[15] - c.fetchWidth()
		savedCPSR := c.cpsr
		c.switchMode(ModeSVC)
		c.spsrSVC = savedCPSR
		c.setFlag(flagI, true)
		c.setFlag(flagT, false)
		c.r[14] = returnPC
		c.branchTo(0x08)
		return
	}
	var comment uint32
	if c.thumb() {
		comment = uint32(op & 0xFF)
	} else {
		comment = (op >> 16) & 0xFF
	}
	c.bios.Dispatch(comment)
}

// ReturnFromException restores CPSR from the current mode's SPSR and jumps
// to LR (used by MOVS PC,LR and LDM^ with PC in the list).
func (c *CPU) returnFromException(target uint32) {
	restored := *c.spsr()
	c.switchMode(Mode(restored & 0x1F))
	c.cpsr = restored
	c.branchTo(target)
}

// PC returns the value general-purpose code should see for R15: the
// "address of next fetch" invariant from spec.md §4.1.
func (c *CPU) PC() uint32 { return c.r[15] }

// Registers returns a snapshot of the visible register file (R0-R15 in the
// current mode's banking), for inspection tools.
func (c *CPU) Registers() [16]uint32 { return c.r }

// CPSR returns the raw CPSR word, for inspection tools.
func (c *CPU) CPSR() uint32 { return c.cpsr }

// Mode returns the current processor mode, for inspection tools.
func (c *CPU) Mode() Mode { return c.mode() }

// Thumb reports whether the CPU is currently in Thumb state.
func (c *CPU) Thumb() bool { return c.thumb() }
