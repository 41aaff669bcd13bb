package backend

import (
	"testing"

	"github.com/kestrel-dev/goba/goba/input"
	"github.com/stretchr/testify/assert"
)

func TestKeyState_ApplyTo(t *testing.T) {
	keys := input.New()

	state := KeyState{}
	state.Held[0] = true // A
	state.Held[6] = true // Up
	state.ApplyTo(keys)

	assert.Equal(t, uint16(0), keys.KEYINPUT()&(1<<0), "A should read held (active-low 0)")
	assert.Equal(t, uint16(0), keys.KEYINPUT()&(1<<6), "Up should read held")
	assert.NotEqual(t, uint16(0), keys.KEYINPUT()&(1<<1), "B should read released")

	state.Held[0] = false
	state.ApplyTo(keys)
	assert.NotEqual(t, uint16(0), keys.KEYINPUT()&(1<<0), "A should read released once cleared")
}
