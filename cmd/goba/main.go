package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kestrel-dev/goba/goba"
	"github.com/kestrel-dev/goba/goba/backend"
	"github.com/kestrel-dev/goba/goba/backend/sdl2"
	"github.com/kestrel-dev/goba/goba/backend/terminal"
	"github.com/kestrel-dev/goba/goba/timing"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "goba"
	app.Description = "A Game Boy Advance emulator"
	app.Usage = "goba [options] <rom.gba>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to a BIOS image (absent: run with HLE BIOS services)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor (sdl2 backend only)",
			Value: 3,
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Display backend: terminal or sdl2",
			Value: "terminal",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a display backend",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug-level logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("goba exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	romPath := c.Args().Get(0)
	if romPath == "" {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}

	emu, err := goba.NewWithFile(romPath, c.String("bios"))
	if err != nil {
		return err
	}
	defer func() {
		if err := emu.PersistSave(); err != nil {
			slog.Warn("failed to persist save", "error", err)
		}
	}()

	if c.Bool("headless") {
		return runHeadless(emu, c.Int("frames"))
	}

	return runInteractive(emu, c.String("backend"), c.Int("scale"))
}

func runHeadless(emu *goba.Emulator, frames int) error {
	if frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}

	for i := 0; i < frames; i++ {
		emu.RunFrame()
		if (i+1)%60 == 0 {
			slog.Info("frame progress", "completed", i+1, "total", frames)
		}
	}
	slog.Info("headless execution completed", "frames", frames)
	return nil
}

func runInteractive(emu *goba.Emulator, backendName string, scale int) error {
	var be backend.Backend
	switch backendName {
	case "terminal":
		be = terminal.New()
	case "sdl2":
		be = sdl2.New()
	default:
		return fmt.Errorf("unknown backend %q (want terminal or sdl2)", backendName)
	}

	config := backend.Config{
		Title: "goba",
		Scale: scale,
		Debug: emu,
		Audio: nil,
	}
	if err := be.Init(config); err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer be.Cleanup()

	limiter := timing.NewTickerLimiter()
	defer limiter.Stop()

	for {
		emu.RunFrame()

		keys, err := be.Update(emu.CurrentFrame())
		if err != nil {
			return fmt.Errorf("backend update: %w", err)
		}
		if keys.Quit {
			return nil
		}
		keys.ApplyTo(emu.Keypad())

		if keys.ToggleDebug {
			emu.SetPaused(!emu.Paused())
			limiter.Reset()
		}

		limiter.WaitForNextFrame()
	}
}
