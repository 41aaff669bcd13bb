package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCPU struct{ cyclesPerStep, totalCycles int }

func (f *fakeCPU) Step() int {
	f.totalCycles += f.cyclesPerStep
	return f.cyclesPerStep
}

type tickRecorder struct{ totalCycles int }

func (t *tickRecorder) Tick(cycles int) { t.totalCycles += cycles }

type fakePPU struct {
	hblankCalls, renderCalls, vcountCalls int
	hblankStates                          []bool
}

func (p *fakePPU) SetHBlank(on bool) {
	p.hblankCalls++
	p.hblankStates = append(p.hblankStates, on)
}
func (p *fakePPU) RenderScanline() { p.renderCalls++ }
func (p *fakePPU) AdvanceVCount()  { p.vcountCalls++ }

func TestRunFrame_cycleBudget(t *testing.T) {
	cpu := &fakeCPU{cyclesPerStep: 4}
	timers := &tickRecorder{}
	apu := &tickRecorder{}
	ppu := &fakePPU{}

	s := New(cpu, timers, apu, ppu)
	s.RunFrame()

	assert.GreaterOrEqual(t, cpu.totalCycles, cyclesPerLine*scanlinesPerFrame)
	assert.Equal(t, cpu.totalCycles, timers.totalCycles)
	assert.Equal(t, cpu.totalCycles, apu.totalCycles)
}

func TestRunFrame_scanlineSequence(t *testing.T) {
	cpu := &fakeCPU{cyclesPerStep: 1}
	ppu := &fakePPU{}
	s := New(cpu, &tickRecorder{}, &tickRecorder{}, ppu)

	s.RunFrame()

	assert.Equal(t, scanlinesPerFrame, ppu.hblankCalls)
	assert.Equal(t, scanlinesPerFrame, ppu.vcountCalls)
	assert.Equal(t, visibleScanlines, ppu.renderCalls, "only visible scanlines render")
	for _, on := range ppu.hblankStates {
		assert.True(t, on, "SetHBlank should only ever be entered with true")
	}
}

func TestCpuRun_consumesAtLeastN(t *testing.T) {
	cpu := &fakeCPU{cyclesPerStep: 3}
	s := New(cpu, &tickRecorder{}, &tickRecorder{}, &fakePPU{})

	s.cpuRun(10)

	assert.GreaterOrEqual(t, cpu.totalCycles, 10)
	assert.Less(t, cpu.totalCycles-10, cpu.cyclesPerStep, "shouldn't overshoot by more than one step")
}
