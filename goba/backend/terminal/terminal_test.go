package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
)

func TestScale5to8(t *testing.T) {
	assert.Equal(t, int32(0), scale5to8(0))
	assert.Equal(t, int32(255), scale5to8(31))
}

func TestProcessKey_escapeStopsTheBackend(t *testing.T) {
	b := New()
	b.running = true
	b.processKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))
	assert.False(t, b.running)
}

func TestProcessKey_f10TogglesDebug(t *testing.T) {
	b := New()
	b.processKey(tcell.NewEventKey(tcell.KeyF10, 0, tcell.ModNone))
	assert.True(t, b.keys.ToggleDebug)
}

func TestProcessKey_lettersMapToButtons(t *testing.T) {
	b := New()
	b.processKey(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone))
	assert.True(t, b.keys.Held[0], "z is the A button")
}
