// Package terminal implements a goba/backend.Backend using tcell, rendering
// the framebuffer with half-block characters (two vertically-stacked
// pixels per terminal cell) so a 240×160 frame fits in roughly 240×80
// character cells. Grounded on jeebie/backend/terminal/terminal.go's
// half-block rendering technique and signal-driven clean shutdown,
// adapted from the Game Boy's 4-shade grayscale palette to the GBA's
// full 15-bit color framebuffer (tcell truecolor instead of a fixed
// 4-entry shade table).
package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/kestrel-dev/goba/goba/backend"
	"github.com/kestrel-dev/goba/goba/ppu"
)

const (
	minTermWidth  = 80
	minTermHeight = 24
)

// Backend renders into a tcell terminal screen.
type Backend struct {
	screen  tcell.Screen
	running bool
	config  backend.Config
	keys    backend.KeyState
}

func New() *Backend { return &Backend{} }

func (t *Backend) Init(config backend.Config) error {
	t.config = config

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal backend: init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal backend: init screen: %w", err)
	}
	t.screen = screen
	t.running = true

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()

	slog.Info("terminal backend initialized", "title", config.Title)
	return nil
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	<-signals
	t.running = false
}

func (t *Backend) Update(frame *ppu.FrameBuffer) (backend.KeyState, error) {
	// tcell delivers key-down events only; without an OS-level key-up
	// signal the best a terminal backend can do is treat a press as "held
	// for this frame" and clear it every frame, matching
	// jeebie/backend/terminal's key-expiry workaround in spirit.
	t.keys.ToggleDebug = false
	for i := range t.keys.Held {
		t.keys.Held[i] = false
	}

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKey(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	if !t.running {
		t.keys.Quit = true
		return t.keys, nil
	}

	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		t.screen.Show()
		return t.keys, nil
	}

	t.render(frame)
	t.screen.Show()
	return t.keys, nil
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

func (t *Backend) render(frame *ppu.FrameBuffer) {
	t.screen.Clear()
	for y := 0; y < ppu.Height; y += 2 {
		for x := 0; x < ppu.Width; x++ {
			top := frame.GetPixel(x, y)
			bottom := top
			if y+1 < ppu.Height {
				bottom = frame.GetPixel(x, y+1)
			}
			fg := tcell.NewRGBColor(scale5to8(top.R), scale5to8(top.G), scale5to8(top.B))
			bg := tcell.NewRGBColor(scale5to8(bottom.R), scale5to8(bottom.G), scale5to8(bottom.B))
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
}

// scale5to8 widens a 5-bit color channel (0-31) to 8 bits, matching
// ppu.FrameBuffer.ToSlice's scaling so terminal output isn't systematically
// darker than a true-color backend's.
func scale5to8(v uint8) int32 {
	return int32((uint16(v)*255 + 15) / 31)
}

func (t *Backend) processKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		t.running = false
		return
	}
	if ev.Key() == tcell.KeyF10 {
		t.keys.ToggleDebug = true
		return
	}
	if ev.Key() != tcell.KeyRune {
		return
	}
	switch ev.Rune() {
	case 'z':
		t.keys.Held[0] = true // A
	case 'x':
		t.keys.Held[1] = true // B
	case 'a':
		t.keys.Held[2] = true // Select
	case 's':
		t.keys.Held[3] = true // Start
	}
}
