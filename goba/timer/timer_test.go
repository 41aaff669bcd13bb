package timer

import (
	"testing"

	"github.com/kestrel-dev/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

type fakeIRQ struct{ raised []addr.Interrupt }

func (f *fakeIRQ) Raise(src addr.Interrupt) { f.raised = append(f.raised, src) }

type fakeSink struct{ overflowed []int }

func (f *fakeSink) TimerOverflowed(i int) { f.overflowed = append(f.overflowed, i) }

func TestBank_overflowReloadsAndRaisesIRQ(t *testing.T) {
	irq := &fakeIRQ{}
	sink := &fakeSink{}
	b := NewBank(irq, sink)

	b.SetReload(0, 0xFFF0)
	b.SetControl(0, (1<<7)|(1<<6)) // enable, prescaler/1, irq enabled

	b.Tick(15)
	assert.Equal(t, uint16(0xFFFF), b.CounterRead(0))
	assert.Empty(t, irq.raised)

	b.Tick(1)
	assert.Equal(t, uint16(0xFFF0), b.CounterRead(0), "counter reloads on overflow")
	assert.Equal(t, []addr.Interrupt{addr.IRQTimer0}, irq.raised)
	assert.Equal(t, []int{0}, sink.overflowed)
}

func TestBank_cascadeChain(t *testing.T) {
	irq := &fakeIRQ{}
	b := NewBank(irq, nil)

	b.SetReload(0, 0xFFFF)
	b.SetControl(0, 1<<7) // enable, no irq
	b.SetReload(1, 0)
	b.SetControl(1, (1<<7)|(1<<2)|(1<<6)) // enable, cascade, irq

	b.Tick(1) // overflows timer 0, should cascade-increment timer 1
	assert.Equal(t, uint16(0xFFFF), b.CounterRead(0))
	assert.Equal(t, uint16(1), b.CounterRead(1))
	assert.Empty(t, irq.raised, "timer 1 incrementing to 1 is not an overflow")
}

func TestBank_cascadeTimerIgnoresOwnPrescaler(t *testing.T) {
	b := NewBank(&fakeIRQ{}, nil)
	b.SetControl(1, (1<<7)|(1<<2)|0x3) // cascade + prescaler/1024, should be ignored while cascaded
	b.Tick(1000)
	assert.Equal(t, uint16(0), b.CounterRead(1), "cascade timers only advance via their predecessor")
}

func TestBank_disabledTimerDoesNotTick(t *testing.T) {
	b := NewBank(&fakeIRQ{}, nil)
	b.SetReload(0, 0)
	b.Tick(100)
	assert.Equal(t, uint16(0), b.CounterRead(0))
}

func TestBank_controlReadRoundTrips(t *testing.T) {
	b := NewBank(&fakeIRQ{}, nil)
	value := uint16(0x3) | (1 << 2) | (1 << 6) | (1 << 7)
	b.SetControl(0, value)
	assert.Equal(t, value, b.ControlRead(0))
}
