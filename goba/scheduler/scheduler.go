// Package scheduler drives one GBA frame: 228 scanlines of 1232 cycles
// each, split into a 960-cycle H-draw phase and a 272-cycle H-blank phase,
// ticking the CPU, timers, APU and PPU in the exact order spec.md §4.5
// mandates. Grounded on jeebie/core.go's `RunUntilFrame` synchronous
// frame-stepping loop (no goroutines, no channels — "no concurrent
// execution contexts" per spec.md §5), generalized from the Game Boy's
// four-phase PPU mode cycle to the GBA's two-phase (draw/blank) one,
// cross-checked against original_source/src/scheduler.c's per-scanline
// step ordering.
package scheduler

const (
	cyclesPerHDraw  = 960
	cyclesPerHBlank = 272
	cyclesPerLine   = cyclesPerHDraw + cyclesPerHBlank
	scanlinesPerFrame = 228
	visibleScanlines  = 160
)

// CPU is the subset of goba/cpu.CPU the scheduler drives.
type CPU interface {
	Step() int
}

// Timers is the subset of goba/timer.Bank the scheduler drives.
type Timers interface {
	Tick(cycles int)
}

// APU is the subset of goba/apu.APU the scheduler drives.
type APU interface {
	Tick(cycles int)
}

// PPU is the subset of goba/ppu.PPU the scheduler drives. H-blank/V-blank
// IRQ requests, LYC matching, DMA H-blank/V-blank triggers and affine
// reference-point reload all live inside the PPU itself (see
// goba/ppu.PPU.SetHBlank/AdvanceVCount) — the scheduler only sequences
// when those happen.
type PPU interface {
	SetHBlank(on bool)
	RenderScanline()
	AdvanceVCount()
}

// Scheduler runs whole frames by stepping the CPU for fixed cycle budgets
// and fanning the elapsed cycles out to the timers, APU and PPU in
// lockstep, per spec.md §5's single-cooperative-context execution model.
type Scheduler struct {
	cpu    CPU
	timers Timers
	apu    APU
	ppu    PPU
}

func New(cpu CPU, timers Timers, apu APU, ppu PPU) *Scheduler {
	return &Scheduler{cpu: cpu, timers: timers, apu: apu, ppu: ppu}
}

// RunFrame executes exactly one frame (280 896 cycles): 228 scanlines,
// each an H-draw phase followed by an H-blank phase, per spec.md §4.5.
func (s *Scheduler) RunFrame() {
	for line := 0; line < scanlinesPerFrame; line++ {
		s.cpuRun(cyclesPerHDraw)
		s.timers.Tick(cyclesPerHDraw)
		s.apu.Tick(cyclesPerHDraw)

		s.ppu.SetHBlank(true)
		if line < visibleScanlines {
			s.ppu.RenderScanline()
		}

		s.cpuRun(cyclesPerHBlank)
		s.timers.Tick(cyclesPerHBlank)
		s.apu.Tick(cyclesPerHBlank)

		s.ppu.AdvanceVCount()
	}
}

// cpuRun steps the CPU until at least n cycles have been consumed. The
// CPU itself handles halt-with-wake and IRQ entry on every Step call, per
// spec.md §4.5's cpu_run contract, so the loop here only needs to
// accumulate cycles.
func (s *Scheduler) cpuRun(n int) {
	consumed := 0
	for consumed < n {
		consumed += s.cpu.Step()
	}
}
