// Package interrupt implements the GBA's interrupt controller: the IME
// master-enable flag, the IE enable mask, and the IF request/acknowledge
// latch. It has no dependency on the CPU — the CPU polls Pending() and the
// other subsystems call Raise().
package interrupt

import "github.com/kestrel-dev/goba/goba/addr"

// Controller holds IME, IE and IF. It answers "is any IRQ pending?" and
// implements write-1-to-clear acknowledgement for IF.
type Controller struct {
	ime bool
	ie  uint16
	if_ uint16
}

// New returns a controller with interrupts masked off, matching power-on state.
func New() *Controller {
	return &Controller{}
}

// Raise sets the IF bit for the given interrupt source.
func (c *Controller) Raise(src addr.Interrupt) {
	c.if_ |= src.Bit()
}

// Pending reports whether any enabled, requested interrupt is waiting,
// regardless of IME — used by the CPU to decide whether to wake from halt.
func (c *Controller) Pending() bool {
	return c.ie&c.if_ != 0
}

// ShouldEnter reports whether the CPU should actually vector into an IRQ:
// IME must be set in addition to there being a pending source.
func (c *Controller) ShouldEnter() bool {
	return c.ime && c.Pending()
}

// IME / IE / IF register accessors, used by the bus's I/O dispatch table.

func (c *Controller) IME() uint16 {
	if c.ime {
		return 1
	}
	return 0
}

func (c *Controller) SetIME(value uint16) {
	c.ime = value&1 != 0
}

func (c *Controller) IE() uint16 { return c.ie }

func (c *Controller) SetIE(value uint16) { c.ie = value }

func (c *Controller) IF() uint16 { return c.if_ }

// WriteIF implements write-1-to-clear: bits set in value are cleared from IF.
func (c *Controller) WriteIF(value uint16) {
	c.if_ &^= value
}
