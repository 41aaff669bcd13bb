// Package backend defines the platform abstraction the emulator presents
// frames and collects input through. Grounded directly on
// jeebie/backend/backend.go's Backend/BackendConfig interface shape,
// adapted from the Game Boy's 160×144/8-button world to the GBA's
// 240×160 BGR555 framebuffer and 10-button keypad.
package backend

import (
	"github.com/kestrel-dev/goba/goba/apu"
	"github.com/kestrel-dev/goba/goba/debug"
	"github.com/kestrel-dev/goba/goba/input"
	"github.com/kestrel-dev/goba/goba/ppu"
)

// Backend represents a complete presentation platform: rendering, input
// capture, and (optionally) audio output.
type Backend interface {
	// Init configures the backend; called once before the first Update.
	Init(config Config) error

	// Update presents one frame and returns the keypad state observed
	// during it (Held is true for a pressed button; ApplyTo converts it to
	// goba/input's active-LOW bitmap).
	Update(frame *ppu.FrameBuffer) (KeyState, error)

	// Cleanup releases any platform resources.
	Cleanup() error
}

// KeyState is the set of currently-held buttons a backend observed.
type KeyState struct {
	Held    [10]bool
	Quit    bool
	ToggleDebug bool
}

// DebugProvider lets a backend pull a consistent CPU/PPU/APU snapshot
// without depending on the full emulator type.
type DebugProvider interface {
	ExtractDebug() debug.Snapshot
}

// Config holds backend construction parameters.
type Config struct {
	Title     string
	Scale     int
	ShowDebug bool
	Debug     DebugProvider
	Audio     *apu.APU
}

// keyOrder matches goba/input.Key's bit order; ApplyTo uses it to map
// KeyState.Held indices onto keypad buttons.
var keyOrder = [10]input.Key{
	input.KeyA, input.KeyB, input.KeySelect, input.KeyStart,
	input.KeyRight, input.KeyLeft, input.KeyUp, input.KeyDown,
	input.KeyR, input.KeyL,
}

// ApplyTo pushes a KeyState into a keypad via individual Press/Release
// calls, in hardware bit order.
func (k KeyState) ApplyTo(keys *input.Keypad) {
	for i, key := range keyOrder {
		if k.Held[i] {
			keys.Press(key)
		} else {
			keys.Release(key)
		}
	}
}
