// Package debug extracts read-only snapshots of emulator state for
// inspection tools. It is purely consumptive: it never mutates the
// subsystems it reads from. Grounded on jeebie/debug/visualizer.go and
// jeebie/debug/snapshot.go's data-extraction-struct pattern (no rendering,
// just structured copies of live state), generalized from the Game Boy's
// single-mode PPU/4-register CPU to the GBA's six-mode PPU, banked
// ARM7TDMI register file, and four-channel+FIFO APU.
package debug

import "github.com/kestrel-dev/goba/goba/cpu"

// CPUSnapshot is a point-in-time copy of the visible register file and
// flags.
type CPUSnapshot struct {
	Registers [16]uint32
	CPSR      uint32
	Mode      cpu.Mode
	Thumb     bool
}

// PPUReader is the subset of goba/ppu.PPU a snapshot needs.
type PPUReader interface {
	DISPCNT() uint16
	DISPSTAT() uint16
	VCOUNT() uint16
}

// PPUSnapshot captures the display-control registers driving the current
// frame.
type PPUSnapshot struct {
	DISPCNT  uint16
	DISPSTAT uint16
	VCOUNT   uint16
	Mode     uint16
}

// APUReader is the subset of goba/apu.APU a snapshot needs.
type APUReader interface {
	RingLen() int
}

// APUSnapshot captures the audio pipeline's backlog, useful for spotting
// underrun/overrun before they become audible.
type APUSnapshot struct {
	RingLen int
}

// Snapshot is a complete, consistent point-in-time view across CPU/PPU/APU,
// assembled in one call so none of its fields straddle a frame boundary.
type Snapshot struct {
	CPU CPUSnapshot
	PPU PPUSnapshot
	APU APUSnapshot
}

// CPUReader is the subset of goba/cpu.CPU a snapshot needs.
type CPUReader interface {
	Registers() [16]uint32
	CPSR() uint32
	Mode() cpu.Mode
	Thumb() bool
}

// Extract assembles a full Snapshot from the three subsystem readers.
func Extract(c CPUReader, p PPUReader, a APUReader) Snapshot {
	return Snapshot{
		CPU: CPUSnapshot{
			Registers: c.Registers(),
			CPSR:      c.CPSR(),
			Mode:      c.Mode(),
			Thumb:     c.Thumb(),
		},
		PPU: PPUSnapshot{
			DISPCNT:  p.DISPCNT(),
			DISPSTAT: p.DISPSTAT(),
			VCOUNT:   p.VCOUNT(),
			Mode:     p.DISPCNT() & 0x7,
		},
		APU: APUSnapshot{
			RingLen: a.RingLen(),
		},
	}
}
