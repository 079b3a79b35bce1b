// Command goba is the reference frontend for the goba core: it owns ROM
// and BIOS loading, the host-side event loop, and backend selection. The
// core itself never imports this package (SPEC_FULL.md §1).
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimari/goba/goba"
	"github.com/urfave/cli"
)

// backend is what a presentation layer must provide to drive a Core.
// sdl2Backend and termBackend both satisfy it; a headless run skips the
// interface entirely and drives the core directly.
type backend interface {
	Init(core *goba.Core, title string) error
	// RunFrame renders the most recently produced framebuffer and polls
	// input, returning false once the user asked to quit.
	RunFrame() bool
	Cleanup()
}

func main() {
	app := cli.NewApp()
	app.Name = "goba"
	app.Usage = "goba [options] <ROM file>"
	app.Description = "A Game Boy Advance emulator core with SDL2/terminal frontends"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "path to the ROM file"},
		cli.StringFlag{Name: "bios", Usage: "path to a real GBA BIOS image (optional; falls back to the HLE shim)"},
		cli.StringFlag{Name: "save", Usage: "path to a save file to load/persist"},
		cli.StringFlag{Name: "backend", Value: "sdl2", Usage: "sdl2 | term | headless"},
		cli.BoolFlag{Name: "headless", Usage: "shorthand for --backend=headless"},
		cli.IntFlag{Name: "frames", Value: 0, Usage: "frame count to run in headless mode (0 = no limit)"},
		cli.IntFlag{Name: "sample-rate", Value: 32768, Usage: "audio sample rate in Hz (accepted but not used: the core always mixes at 32768 Hz)"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("goba exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	core := goba.New()

	if biosPath := c.String("bios"); biosPath != "" {
		data, err := os.ReadFile(biosPath)
		if err != nil {
			return fmt.Errorf("reading bios: %w", err)
		}
		if err := core.LoadBIOS(data); err != nil {
			return fmt.Errorf("loading bios: %w", err)
		}
		slog.Info("loaded BIOS", "path", biosPath, "bytes", len(data))
	}

	romData, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}
	if err := core.LoadROM(romData); err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}
	slog.Info("loaded ROM", "path", romPath, "title", core.Header().Title, "bytes", len(romData))

	savePath := c.String("save")
	if savePath != "" {
		if data, err := os.ReadFile(savePath); err == nil {
			core.LoadSaveData(data)
			slog.Info("loaded save data", "path", savePath, "bytes", len(data))
		}
		core.SetAutoSaveHook(func(data []byte) {
			if err := os.WriteFile(savePath, data, 0644); err != nil {
				slog.Warn("auto-save failed", "path", savePath, "error", err)
			}
		})
	}

	kind := c.String("backend")
	if c.Bool("headless") {
		kind = "headless"
	}

	if kind == "headless" {
		return runHeadless(core, c.Int("frames"))
	}

	var be backend
	switch kind {
	case "sdl2":
		be = newSDL2Backend()
	case "term":
		be = newTermBackend()
	default:
		return fmt.Errorf("unknown backend %q", kind)
	}

	if err := be.Init(core, fmt.Sprintf("goba — %s", core.Header().Title)); err != nil {
		return fmt.Errorf("initializing %s backend: %w", kind, err)
	}
	defer be.Cleanup()

	for be.RunFrame() {
	}
	return nil
}

// runHeadless drives the core with no presentation layer at all, the
// quantum the host can use for automated/CI runs (spec.md §5).
func runHeadless(core *goba.Core, frames int) error {
	audioBuf := make([]int16, 4096)
	n := 0
	for frames <= 0 || n < frames {
		if _, err := core.StepFrame(); err != nil {
			return err
		}
		core.DrainAudio(audioBuf)
		n++
	}
	slog.Info("headless run complete", "frames", n)
	return nil
}
