// Package goba wires the bus, CPU, and scheduler into a single emulator
// instance, and handles ROM/save/BIOS loading around them. Grounded on
// jeebie/core.go's Emulator type (cpu+gpu+mem composition, New/NewWithFile
// constructors, debugger pause state), adapted from the Game Boy's
// fixed-frame Tick-loop accounting to the GBA scheduler's own cycle
// budgeting and from the Game Boy's single-cartridge-format memory to
// goba/cart's multi-backend save detection.
package goba

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/kestrel-dev/goba/goba/bus"
	"github.com/kestrel-dev/goba/goba/cart"
	"github.com/kestrel-dev/goba/goba/cpu"
	"github.com/kestrel-dev/goba/goba/debug"
	"github.com/kestrel-dev/goba/goba/input"
	"github.com/kestrel-dev/goba/goba/ppu"
	"github.com/kestrel-dev/goba/goba/scheduler"
)

// Emulator is the root struct and entry point for running the emulation.
type Emulator struct {
	bus       *bus.Bus
	cpu       *cpu.CPU
	scheduler *scheduler.Scheduler

	pauseMutex sync.RWMutex
	paused     bool

	frameCount uint64
}

func newEmulator(biosBytes []byte, cartridge *cart.Cartridge) *Emulator {
	b := bus.New(biosBytes, cartridge)
	c := cpu.New(b, b.Interrupts(), b.HLEMode())
	s := scheduler.New(c, b.Timers(), b.APU(), b.PPU())

	return &Emulator{bus: b, cpu: c, scheduler: s}
}

// New creates an emulator with no cartridge inserted (a blank ROM), mainly
// useful for unit tests that drive the CPU/bus directly.
func New() *Emulator {
	return newEmulator(nil, cart.New())
}

// NewWithFile loads a ROM from path and returns an emulator ready to run
// it, loading an existing save file (if any) and an optional BIOS image.
// An empty biosPath runs the core in BIOS-HLE mode, per spec.md §6.
func NewWithFile(path string, biosPath string) (*Emulator, error) {
	cartridge, err := cart.Load(path)
	if err != nil {
		return nil, fmt.Errorf("goba: load rom: %w", err)
	}

	if err := cartridge.LoadSave(); err != nil {
		slog.Warn("goba: load save failed", "error", err)
	}

	var biosBytes []byte
	if biosPath != "" {
		biosBytes, err = os.ReadFile(biosPath)
		if err != nil {
			return nil, fmt.Errorf("goba: load bios: %w", err)
		}
	}

	e := newEmulator(biosBytes, cartridge)
	slog.Info("goba: rom loaded", "path", path, "save_kind", cartridge.SaveKind(), "hle", e.bus.HLEMode())
	return e, nil
}

// RunFrame advances the emulator by exactly one frame (280,896 cycles),
// unless the emulator is paused.
func (e *Emulator) RunFrame() {
	e.pauseMutex.RLock()
	paused := e.paused
	e.pauseMutex.RUnlock()
	if paused {
		return
	}

	e.scheduler.RunFrame()
	e.frameCount++
}

// SetPaused controls whether RunFrame is a no-op, letting a frontend
// freeze emulation without tearing down the instance.
func (e *Emulator) SetPaused(paused bool) {
	e.pauseMutex.Lock()
	defer e.pauseMutex.Unlock()
	e.paused = paused
}

// Paused reports the current pause state.
func (e *Emulator) Paused() bool {
	e.pauseMutex.RLock()
	defer e.pauseMutex.RUnlock()
	return e.paused
}

// FrameCount returns how many frames RunFrame has completed.
func (e *Emulator) FrameCount() uint64 { return e.frameCount }

// CurrentFrame returns the framebuffer produced by the most recently
// rendered scanlines.
func (e *Emulator) CurrentFrame() *ppu.FrameBuffer {
	return e.bus.PPU().Framebuffer()
}

// Keypad exposes the keypad so a frontend can push button state via
// backend.KeyState.ApplyTo.
func (e *Emulator) Keypad() *input.Keypad { return e.bus.Keypad() }

// ExtractDebug assembles a consistent CPU/PPU/APU snapshot, satisfying
// goba/backend.DebugProvider.
func (e *Emulator) ExtractDebug() debug.Snapshot {
	return debug.Extract(e.cpu, e.bus.PPU(), e.bus.APU())
}

// PersistSave writes the cartridge's save backend to disk, if it has one.
// Call this on clean shutdown.
func (e *Emulator) PersistSave() error {
	return e.bus.Cartridge().PersistSave()
}
