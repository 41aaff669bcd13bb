package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDMA struct{ requests []uint32 }

func (f *fakeDMA) FIFORequest(addr uint32) { f.requests = append(f.requests, addr) }

func TestTick_disabledProducesNoSamples(t *testing.T) {
	a := New(nil)
	a.Tick(cyclesPerSample * 4)
	assert.Equal(t, 0, a.RingLen(), "master disable gates sample emission")
}

func TestTick_enabledEmitsSamplesAtExpectedRate(t *testing.T) {
	a := New(nil)
	a.SetMasterEnable(true)
	a.Tick(cyclesPerSample * 4)
	assert.Equal(t, 4, a.RingLen())
}

func TestGetSamples_drainsInterleavedPairs(t *testing.T) {
	a := New(nil)
	a.SetMasterEnable(true)
	a.Tick(cyclesPerSample * 3)
	samples := a.GetSamples(3)
	assert.Len(t, samples, 6, "count is stereo pairs, GetSamples returns interleaved l/r")
	assert.Equal(t, 0, a.RingLen())
}

func TestWriteFIFOA_pushesWordLittleEndian(t *testing.T) {
	a := New(nil)
	a.WriteFIFOA(0x04030201)
	assert.Equal(t, 4, a.fifoA.count)
	assert.Equal(t, byte(0x01), a.fifoA.buf[0])
	assert.Equal(t, byte(0x04), a.fifoA.buf[3])
}

func TestTimerOverflowed_popsAndRequestsRefillBelowThreshold(t *testing.T) {
	dma := &fakeDMA{}
	a := New(dma)
	a.fifoA.timerIndex = 0
	a.fifoA.count = 32
	a.fifoA.write = 0

	a.TimerOverflowed(0) // count 32 -> 31, still above threshold
	assert.Empty(t, dma.requests, "FIFO still above the 16-entry refill threshold")

	a.fifoA.count = 17
	a.TimerOverflowed(0) // count 17 -> 16, at the refill threshold
	assert.Equal(t, []uint32{fifoAAddr}, dma.requests)
}

func TestTimerOverflowed_ignoresUnrelatedTimer(t *testing.T) {
	dma := &fakeDMA{}
	a := New(dma)
	a.fifoA.timerIndex = 0
	a.fifoB.timerIndex = 1
	a.fifoB.PushWord(0x01010101)

	a.TimerOverflowed(0)
	assert.Empty(t, dma.requests, "timer 0 overflow shouldn't touch FIFO B's queue")
}

func TestRegisterAccessorsRoundTrip(t *testing.T) {
	a := New(nil)
	a.SetSoundCntL(0x1234)
	a.SetSoundCntH(0x0007)
	a.SetSoundBias(0x0200)
	assert.Equal(t, uint16(0x1234), a.SoundCntL())
	assert.Equal(t, uint16(0x0007), a.SoundCntH())
	assert.Equal(t, uint16(0x0200), a.SoundBias())
}
