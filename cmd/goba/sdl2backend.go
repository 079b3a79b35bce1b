//go:build sdl2

package main

import (
	"fmt"
	"unsafe"

	"github.com/hajimari/goba/goba"
	"github.com/hajimari/goba/goba/video"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	pixelScale = 3
	winWidth   = video.Width * pixelScale
	winHeight  = video.Height * pixelScale
)

// sdl2Backend renders the core's RGB555 framebuffer into an SDL2
// texture and feeds sdl.PollEvent into the keypad, grounded on the
// teacher's jeebie/backend/sdl2.Backend (sdl2.go), generalized from the
// DMG's 4-shade grayscale palette to RGB555 and from its 8-button
// mapping to the GBA's 10-button KEYINPUT polarity.
type sdl2Backend struct {
	core     *goba.Core
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	pressed  uint16
}

func newSDL2Backend() *sdl2Backend { return &sdl2Backend{} }

func (s *sdl2Backend) Init(core *goba.Core, title string) error {
	s.core = core

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl.Init: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		winWidth, winHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("creating window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating renderer: %w", err)
	}
	s.renderer = renderer

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING,
		video.Width, video.Height)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("creating texture: %w", err)
	}
	s.texture = texture

	s.running = true
	return nil
}

func (s *sdl2Backend) Cleanup() {
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
}

// keyMapping maps SDL2 keycodes to GBA input.Key bit positions, ordered
// A,B,Select,Start,Right,Left,Up,Down,R,L per spec.md §6.
var keyMapping = map[sdl.Keycode]uint16{
	sdl.K_x:      1 << 0, // A
	sdl.K_z:      1 << 1, // B
	sdl.K_RSHIFT: 1 << 2, // Select
	sdl.K_RETURN: 1 << 3, // Start
	sdl.K_RIGHT:  1 << 4,
	sdl.K_LEFT:   1 << 5,
	sdl.K_UP:     1 << 6,
	sdl.K_DOWN:   1 << 7,
	sdl.K_s:      1 << 8, // R
	sdl.K_a:      1 << 9, // L
}

func (s *sdl2Backend) RunFrame() bool {
	if !s.running {
		return false
	}

	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			s.running = false
		case *sdl.KeyboardEvent:
			bit, ok := keyMapping[e.Keysym.Sym]
			if !ok {
				break
			}
			if e.Type == sdl.KEYDOWN {
				s.pressed |= bit
			} else if e.Type == sdl.KEYUP {
				s.pressed &^= bit
			}
		}
	}
	if !s.running {
		return false
	}

	s.core.SetKeyState(s.pressed)
	fb, err := s.core.StepFrame()
	if err != nil {
		s.running = false
		return false
	}
	s.render(fb)
	return s.running
}

func (s *sdl2Backend) render(fb *video.Framebuffer) {
	pixels := make([]byte, video.Width*video.Height*4)
	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			c := fb.At(x, y)
			r := uint8((c & 0x1F) << 3)
			g := uint8(((c >> 5) & 0x1F) << 3)
			b := uint8(((c >> 10) & 0x1F) << 3)
			i := (y*video.Width + x) * 4
			// ABGR byte order for little-endian RGBA8888.
			pixels[i] = 0xFF
			pixels[i+1] = b
			pixels[i+2] = g
			pixels[i+3] = r
		}
	}
	s.texture.Update(nil, unsafe.Pointer(&pixels[0]), video.Width*4)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
}
