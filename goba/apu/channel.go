package apu

import "github.com/kestrel-dev/goba/goba/bit"

// Channel holds the state of one of the four legacy tone channels. Fields
// are reused across channel kinds per spec.md §3; only the fields relevant
// to a channel's kind are driven by its Step function. Grounded directly on
// jeebie/audio/apu.go's Channel struct — the GBA's four legacy channels are
// functionally identical to the Game Boy's, which is why this ports the
// teacher's envelope/sweep/LFSR/duty logic near-verbatim, adapted to emit
// an unsigned 0..15 level (spec.md §4.4) instead of the teacher's
// DC-corrected signed one.
type Channel struct {
	enabled    bool
	dacEnabled bool
	left, right bool

	duty   uint8
	length uint16 // current length counter
	lengthLoad uint16 // reload value computed from the length-timer field on trigger
	lengthEnable bool

	volume uint8 // current (post-envelope) volume, 0-15

	// envelope (ch1, ch2, ch4)
	envelopeInitial uint8
	envelopePace    uint8
	envelopeUp      bool
	envelopeCounter uint8

	// sweep (ch1 only)
	sweepPeriod  uint8
	sweepDown    bool
	sweepStep    uint8
	sweepEnabled bool
	sweepTimer   uint8
	shadowFreq   uint16

	period    uint16 // 11-bit frequency period (ch1-3)
	freqTimer int
	dutyStep  uint8

	waveIndex  uint8
	volumeCode uint8 // NR32-style output level selector for ch3

	noiseTimer  int
	lfsr        uint16
	use7bitLFSR bool
	shift       uint8
	divider     uint8
}

var dutyPatterns = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

var noiseDividers = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// squarePeriodCycles/wavePeriodCycles convert the 11-bit period register to
// a CPU-cycle reload value. GBA runs at 16.78 MHz (4x the Game Boy's 4.19
// MHz), so periods are scaled by 4 relative to the teacher's Game Boy
// constants to preserve the same audible frequency.
func squarePeriodCycles(period uint16) int {
	p := 2048 - int(period&0x7FF)
	if p <= 0 {
		return 0
	}
	return p * 4 * 4
}

func wavePeriodCycles(period uint16) int {
	p := 2048 - int(period&0x7FF)
	if p <= 0 {
		return 0
	}
	return p * 2 * 4
}

func noisePeriodCycles(divider, shift uint8) int {
	d := noiseDividers[divider&0x7]
	return (d << shift) * 4
}

// stepSquare advances a duty-cycle channel by cycles and returns its
// unsigned 0..15 output level.
func stepSquare(ch *Channel, cycles int) uint8 {
	period := squarePeriodCycles(ch.period)
	if period == 0 || !ch.enabled || !ch.dacEnabled {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}
	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.dutyStep = (ch.dutyStep + 1) & 0x7
	}
	if dutyPatterns[ch.duty&0x3][ch.dutyStep] == 0 {
		return 0
	}
	return ch.volume
}

// stepWave advances the wave channel and returns its post-shift 0..15 level.
func stepWave(ch *Channel, waveRAM *[16]byte, cycles int) uint8 {
	period := wavePeriodCycles(ch.period)
	if period == 0 || !ch.enabled || !ch.dacEnabled {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}
	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.waveIndex = (ch.waveIndex + 1) & 0x1F
	}

	byteIdx := ch.waveIndex >> 1
	raw := waveRAM[byteIdx]
	var sample uint8
	if ch.waveIndex&1 == 0 {
		sample = raw >> 4
	} else {
		sample = raw & 0x0F
	}

	switch ch.volumeCode & 0x3 {
	case 0:
		return 0
	case 1:
		return sample
	case 2:
		return sample >> 1
	case 3:
		return sample >> 2
	}
	return 0
}

// stepNoise advances the noise channel's LFSR and returns its 0..15 level.
func stepNoise(ch *Channel, cycles int) uint8 {
	period := noisePeriodCycles(ch.divider, ch.shift)
	if period == 0 || !ch.enabled || !ch.dacEnabled {
		return 0
	}
	if ch.lfsr == 0 {
		ch.lfsr = 0x7FFF
	}
	if ch.noiseTimer <= 0 {
		ch.noiseTimer = period
	}
	ch.noiseTimer -= cycles
	for ch.noiseTimer <= 0 {
		ch.noiseTimer += period
		b := (ch.lfsr & 1) ^ ((ch.lfsr >> 1) & 1)
		ch.lfsr = (ch.lfsr >> 1) | (b << 14)
		if ch.use7bitLFSR {
			ch.lfsr = (ch.lfsr &^ (1 << 6)) | (b << 6)
		}
	}
	if bit.IsSet16(0, ch.lfsr) {
		return 0
	}
	return ch.volume
}

// tickLength decrements the length counter (256 Hz); when it reaches zero
// with length-enable set, the channel is disabled.
func (ch *Channel) tickLength() {
	if !ch.lengthEnable || ch.length == 0 {
		return
	}
	ch.length--
	if ch.length == 0 {
		ch.enabled = false
	}
}

// tickEnvelope advances the volume envelope (64 Hz).
func (ch *Channel) tickEnvelope() {
	if ch.envelopePace == 0 {
		return
	}
	ch.envelopeCounter++
	if ch.envelopeCounter < ch.envelopePace {
		return
	}
	ch.envelopeCounter = 0
	if ch.envelopeUp && ch.volume < 15 {
		ch.volume++
	} else if !ch.envelopeUp && ch.volume > 0 {
		ch.volume--
	}
}

// tickSweep advances channel 1's frequency sweep (128 Hz).
func (ch *Channel) tickSweep() {
	if ch.sweepTimer > 0 {
		ch.sweepTimer--
	}
	if ch.sweepTimer != 0 {
		return
	}
	if ch.sweepPeriod > 0 {
		ch.sweepTimer = ch.sweepPeriod
	} else {
		ch.sweepTimer = 8
	}
	if !ch.sweepEnabled || ch.sweepPeriod == 0 {
		return
	}
	newFreq, overflow := ch.sweepCalc()
	if overflow {
		ch.enabled = false
		return
	}
	if ch.sweepStep > 0 {
		ch.shadowFreq = newFreq
		ch.period = newFreq
		// overflow check performed again per real hardware behavior
		if _, overflow2 := ch.sweepCalc(); overflow2 {
			ch.enabled = false
		}
	}
}

func (ch *Channel) sweepCalc() (uint16, bool) {
	delta := ch.shadowFreq >> ch.sweepStep
	var newFreq uint16
	if ch.sweepDown {
		if delta > ch.shadowFreq {
			newFreq = 0
		} else {
			newFreq = ch.shadowFreq - delta
		}
	} else {
		newFreq = ch.shadowFreq + delta
	}
	return newFreq, newFreq > 2047
}

// trigger resets per-channel state on an NRx4 trigger write.
func (ch *Channel) trigger(isSquare1 bool) {
	ch.enabled = ch.dacEnabled
	if ch.length == 0 {
		ch.length = ch.lengthLoad
	}
	ch.freqTimer = 0
	ch.envelopeCounter = 0
	ch.volume = ch.envelopeInitial

	if isSquare1 {
		ch.shadowFreq = ch.period
		ch.sweepEnabled = ch.sweepPeriod != 0 || ch.sweepStep != 0
		if ch.sweepPeriod > 0 {
			ch.sweepTimer = ch.sweepPeriod
		} else {
			ch.sweepTimer = 8
		}
		if ch.sweepStep > 0 {
			if _, overflow := ch.sweepCalc(); overflow {
				ch.enabled = false
			}
		}
	}
}
