//go:build !sdl2

package main

import (
	"fmt"

	"github.com/hajimari/goba/goba"
)

// sdl2Backend stubs out the real backend when built without the sdl2
// tag, matching the teacher's jeebie/backend/sdl2/stub.go pattern (SDL2
// development libraries are not assumed to be installed by default).
type sdl2Backend struct{}

func newSDL2Backend() *sdl2Backend { return &sdl2Backend{} }

func (s *sdl2Backend) Init(core *goba.Core, title string) error {
	return fmt.Errorf("sdl2 backend not available - build with -tags sdl2 to enable")
}

func (s *sdl2Backend) RunFrame() bool { return false }

func (s *sdl2Backend) Cleanup() {}
