package goba

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_runsFramesAndCountsThem(t *testing.T) {
	e := New()
	assert.False(t, e.Paused())
	assert.Equal(t, uint64(0), e.FrameCount())

	e.RunFrame()
	assert.Equal(t, uint64(1), e.FrameCount())

	fb := e.CurrentFrame()
	assert.NotNil(t, fb)
}

func TestSetPaused_gatesRunFrame(t *testing.T) {
	e := New()
	e.SetPaused(true)
	assert.True(t, e.Paused())

	e.RunFrame()
	assert.Equal(t, uint64(0), e.FrameCount(), "paused emulator doesn't advance frames")

	e.SetPaused(false)
	e.RunFrame()
	assert.Equal(t, uint64(1), e.FrameCount())
}

func TestKeypad_isWired(t *testing.T) {
	e := New()
	assert.NotNil(t, e.Keypad())
}

func TestExtractDebug_returnsConsistentSnapshot(t *testing.T) {
	e := New()
	snap := e.ExtractDebug()
	assert.Equal(t, uint32(0), snap.CPU.Registers[15], "PC starts at the reset vector")
}

func TestPersistSave_noCartridgeIsNotAnError(t *testing.T) {
	e := New()
	assert.NoError(t, e.PersistSave())
}
