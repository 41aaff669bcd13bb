//go:build sdl2

// Package sdl2 implements goba/backend.Backend with real hardware-
// accelerated rendering via go-sdl2, gated behind the sdl2 build tag.
// Grounded on jeebie/backend/sdl2/sdl2.go's window/renderer/texture setup
// and audio-queueing shape, adapted from the Game Boy's 160×144 framebuffer
// to the GBA's 240×160 one and from jeebie/audio.Provider to
// goba/apu.Provider.
package sdl2

import (
	"fmt"
	"log/slog"

	"github.com/kestrel-dev/goba/goba/backend"
	"github.com/kestrel-dev/goba/goba/ppu"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	defaultScale = 3
	bytesPerPixel = 4
)

// Backend renders via an SDL2 window/renderer/streaming-texture triplet.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	scale    int

	audioDevice sdl.AudioDeviceID
	config      backend.Config

	pixelBuffer []byte
	keys        backend.KeyState
}

func New() *Backend { return &Backend{} }

func (s *Backend) Init(config backend.Config) error {
	s.config = config
	s.scale = config.Scale
	if s.scale <= 0 {
		s.scale = defaultScale
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("sdl2 backend: init: %w", err)
	}

	title := config.Title
	if title == "" {
		title = "goba"
	}
	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(ppu.Width*s.scale), int32(ppu.Height*s.scale), sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("sdl2 backend: create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl2 backend: create renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING,
		int32(ppu.Width), int32(ppu.Height))
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl2 backend: create texture: %w", err)
	}
	s.texture = texture
	s.pixelBuffer = make([]byte, ppu.Width*ppu.Height*bytesPerPixel)

	if s.config.Audio != nil {
		if err := s.initAudio(); err != nil {
			slog.Warn("sdl2 backend: audio init failed", "error", err)
		}
	}

	s.running = true
	slog.Info("sdl2 backend initialized", "scale", s.scale)
	return nil
}

func (s *Backend) initAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     32768,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  1024,
	}
	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	s.audioDevice = dev
	sdl.PauseAudioDevice(dev, false)
	return nil
}

func (s *Backend) Update(frame *ppu.FrameBuffer) (backend.KeyState, error) {
	s.keys.ToggleDebug = false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handleEvent(event)
	}

	if !s.running {
		s.keys.Quit = true
		return s.keys, nil
	}

	s.renderFrame(frame)

	if s.audioDevice != 0 && s.config.Audio != nil {
		samples := s.config.Audio.GetSamples(2048)
		if len(samples) > 0 {
			buf := make([]byte, len(samples)*2)
			for i, v := range samples {
				buf[i*2] = byte(v)
				buf[i*2+1] = byte(v >> 8)
			}
			if err := sdl.QueueAudio(s.audioDevice, buf); err != nil {
				slog.Warn("sdl2 backend: queue audio failed", "error", err)
			}
		}
	}

	return s.keys, nil
}

func (s *Backend) Cleanup() error {
	if s.audioDevice != 0 {
		sdl.CloseAudioDevice(s.audioDevice)
	}
	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *Backend) renderFrame(frame *ppu.FrameBuffer) {
	src := frame.ToSlice()
	for i := 0; i < ppu.Width*ppu.Height; i++ {
		s.pixelBuffer[i*4+0] = src[i*3+0]
		s.pixelBuffer[i*4+1] = src[i*3+1]
		s.pixelBuffer[i*4+2] = src[i*3+2]
		s.pixelBuffer[i*4+3] = 0xFF
	}
	s.texture.Update(nil, s.pixelBuffer, ppu.Width*bytesPerPixel)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}

func (s *Backend) handleEvent(evt sdl.Event) {
	switch e := evt.(type) {
	case *sdl.QuitEvent:
		s.running = false
	case *sdl.KeyboardEvent:
		held := e.Type == sdl.KEYDOWN
		switch e.Keysym.Sym {
		case sdl.K_z:
			s.keys.Held[0] = held // A
		case sdl.K_x:
			s.keys.Held[1] = held // B
		case sdl.K_a:
			s.keys.Held[2] = held // Select
		case sdl.K_s:
			s.keys.Held[3] = held // Start
		case sdl.K_RIGHT:
			s.keys.Held[4] = held
		case sdl.K_LEFT:
			s.keys.Held[5] = held
		case sdl.K_UP:
			s.keys.Held[6] = held
		case sdl.K_DOWN:
			s.keys.Held[7] = held
		case sdl.K_w:
			s.keys.Held[8] = held // R
		case sdl.K_q:
			s.keys.Held[9] = held // L
		case sdl.K_ESCAPE:
			if held {
				s.running = false
			}
		case sdl.K_F10:
			if held {
				s.keys.ToggleDebug = true
			}
		}
	}
}
