//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/kestrel-dev/goba/goba/backend"
	"github.com/kestrel-dev/goba/goba/ppu"
)

// Backend is a stub used when the sdl2 build tag is absent (the common
// case: SDL2 development libraries aren't installed on most build
// machines), per jeebie/backend/sdl2_stub.go's build-tag split.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (s *Backend) Init(config backend.Config) error {
	return fmt.Errorf("sdl2 backend not available: compile with -tags sdl2 and install SDL2 development libraries")
}

func (s *Backend) Update(frame *ppu.FrameBuffer) (backend.KeyState, error) {
	return backend.KeyState{}, fmt.Errorf("sdl2 backend not available")
}

func (s *Backend) Cleanup() error { return nil }
