package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/hajimari/goba/goba"
	"github.com/hajimari/goba/goba/video"
)

// termBackend renders an ASCII approximation of the framebuffer to a
// terminal via tcell, for headless/SSH debugging sessions where an SDL2
// window isn't available, grounded on the teacher's
// jeebie/backend/terminal.Backend. Five shade buckets of brightness
// stand in for the teacher's four fixed DMG grays since the GBA palette
// is continuous RGB555.
type termBackend struct {
	core   *goba.Core
	screen tcell.Screen
	keys   map[tcell.Key]uint16
	runes  map[rune]uint16
}

func newTermBackend() *termBackend {
	return &termBackend{
		keys: map[tcell.Key]uint16{
			tcell.KeyEnter: 1 << 3, // Start
			tcell.KeyUp:    1 << 6,
			tcell.KeyDown:  1 << 7,
			tcell.KeyLeft:  1 << 5,
			tcell.KeyRight: 1 << 4,
		},
		runes: map[rune]uint16{
			'x': 1 << 0, // A
			'z': 1 << 1, // B
			'a': 1 << 9, // L
			's': 1 << 8, // R
		},
	}
}

func (t *termBackend) Init(core *goba.Core, title string) error {
	t.core = core

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen.Init: %w", err)
	}
	screen.SetTitle(title)
	t.screen = screen
	return nil
}

func (t *termBackend) Cleanup() {
	if t.screen != nil {
		t.screen.Fini()
	}
}

var shadeChars = []rune{' ', '░', '▒', '▓', '█'}

func (t *termBackend) RunFrame() bool {
	var pressed uint16
	for t.screen.HasPendingEvent() {
		ev := t.screen.PollEvent()
		switch e := ev.(type) {
		case *tcell.EventKey:
			if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC {
				return false
			}
			if bit, ok := t.keys[e.Key()]; ok {
				pressed |= bit
			}
			if bit, ok := t.runes[e.Rune()]; ok {
				pressed |= bit
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
	t.core.SetKeyState(pressed)

	fb, err := t.core.StepFrame()
	if err != nil {
		return false
	}
	t.render(fb)
	return true
}

// render downsamples the 240x160 framebuffer into the terminal's cell
// grid, one cell per 2x4 source block, and maps luminance into
// shadeChars.
func (t *termBackend) render(fb *video.Framebuffer) {
	cols, rows := t.screen.Size()
	cols = min(cols, video.Width/2)
	rows = min(rows, video.Height/4)

	t.screen.Clear()
	style := tcell.StyleDefault
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			var sum uint32
			var n uint32
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := cx*2+dx, cy*4+dy
					if x >= video.Width || y >= video.Height {
						continue
					}
					sum += luminance(fb.At(x, y))
					n++
				}
			}
			avg := sum
			if n > 0 {
				avg = sum / n
			}
			idx := int(avg) * (len(shadeChars) - 1) / 31
			t.screen.SetContent(cx, cy, shadeChars[idx], nil, style)
		}
	}
	t.screen.Show()
}

func luminance(c uint16) uint32 {
	r := uint32(c & 0x1F)
	g := uint32((c >> 5) & 0x1F)
	b := uint32((c >> 10) & 0x1F)
	return (r*2 + g*3 + b) / 6
}
