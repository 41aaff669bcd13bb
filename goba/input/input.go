// Package input models the GBA keypad: a 10-bit active-LOW bitmap (KEYINPUT)
// and a selectable IRQ condition (KEYCNT) that can fire on any-pressed or
// all-pressed of a chosen button subset.
package input

import (
	"github.com/kestrel-dev/goba/goba/addr"
	"github.com/kestrel-dev/goba/goba/bit"
)

// Key indexes bits of KEYINPUT/KEYCNT, in hardware order.
type Key uint

const (
	KeyA Key = iota
	KeyB
	KeySelect
	KeyStart
	KeyRight
	KeyLeft
	KeyUp
	KeyDown
	KeyR
	KeyL
)

const keyMask uint16 = 0x03FF

// Keypad holds the active-low button state and IRQ configuration.
type Keypad struct {
	state uint16 // active-low: 1 == released
	cnt   uint16 // KEYCNT: low 10 bits select buttons, bit14 enables IRQ, bit15 chooses AND vs OR
}

func New() *Keypad {
	return &Keypad{state: keyMask}
}

// Press marks a key as held (clears its bit, since the register is active-low).
func (k *Keypad) Press(key Key) {
	k.state = bit.Clear16(uint(key), k.state)
}

// Release marks a key as not held.
func (k *Keypad) Release(key Key) {
	k.state = bit.Set16(uint(key), k.state)
}

// SetMask sets the full active-low button state at once (used by backends
// that poll a whole frame's key state rather than individual press/release
// events).
func (k *Keypad) SetMask(activeLowMask uint16) {
	k.state = activeLowMask&keyMask | ^keyMask
}

// KEYINPUT returns the live register value (bits 10-15 read as 1).
func (k *Keypad) KEYINPUT() uint16 {
	return k.state | ^keyMask
}

// KEYCNT returns the stored control register value.
func (k *Keypad) KEYCNT() uint16 { return k.cnt }

// SetKEYCNT stores a new control register value.
func (k *Keypad) SetKEYCNT(value uint16) { k.cnt = value }

// IRQPending evaluates the KEYCNT condition against the current button state.
// Bit 14 enables the check; bit 15 selects AND (all selected keys held) vs
// OR (any selected key held) logic.
func (k *Keypad) IRQPending() bool {
	if !bit.IsSet16(14, k.cnt) {
		return false
	}
	selected := k.cnt & keyMask
	held := ^k.state & keyMask
	if bit.IsSet16(15, k.cnt) {
		return held&selected == selected && selected != 0
	}
	return held&selected != 0
}

// InterruptSource is the addr.Interrupt this keypad condition raises.
const InterruptSource = addr.IRQKeypad
