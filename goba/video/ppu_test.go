package video

import (
	"testing"

	"github.com/hajimari/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

func newTestPPU() *PPU {
	return New(make([]byte, 0x18000), make([]byte, 0x400), make([]byte, 0x400), nil, nil)
}

// TestMode3PixelWrite is spec.md §8 scenario 3: writing a 16-bit RGB555
// color to VRAM at the mode-3 offset for (x,y) renders that pixel.
func TestMode3PixelWrite(t *testing.T) {
	p := newTestPPU()
	p.dispcnt = 3 // BG mode 3
	p.vram[0] = 0x1F
	p.vram[1] = 0x00 // little-endian RGB555 red = 0x001F

	p.renderScanline(0)
	assert.Equal(t, uint16(0x001F), p.fb.At(0, 0))
}

// TestHBlankThenVBlankTransitions walks the scanline counter across one
// full visible line and then to the VBlank line, checking DISPSTAT and
// the IRQ/DMA hooks spec.md §4.4 documents.
func TestHBlankThenVBlankTransitions(t *testing.T) {
	var irqs []addr.Interrupt
	var dmaTriggers []int
	p := New(make([]byte, 0x18000), make([]byte, 0x400), make([]byte, 0x400),
		func(i addr.Interrupt) { irqs = append(irqs, i) },
		func(kind int) { dmaTriggers = append(dmaTriggers, kind) })
	p.dispstat = 1<<4 | 1<<3 // enable HBlank and VBlank IRQs

	p.Advance(hblankCycle)
	assert.NotZero(t, p.dispstat&(1<<1), "HBlank flag must be set")
	assert.Contains(t, irqs, addr.HBlank)
	assert.Contains(t, dmaTriggers, TriggerHBlank)

	p.Advance(cyclesPerLine - hblankCycle)
	assert.Zero(t, p.dispstat&(1<<1), "HBlank flag clears at the start of the next line")
	assert.Equal(t, uint16(1), p.VCount())

	for p.VCount() != visibleLines {
		p.Advance(cyclesPerLine)
	}
	assert.NotZero(t, p.dispstat&(1<<0), "VBlank flag must be set")
	assert.Contains(t, irqs, addr.VBlank)
	assert.Contains(t, dmaTriggers, TriggerVBlank)
	assert.True(t, p.FrameReady)
}

func TestDISPCNTRoundTrip(t *testing.T) {
	p := newTestPPU()
	p.WriteIO(addr.DISPCNT, 16, 0x0403)
	assert.Equal(t, uint32(0x0403), p.ReadIO(addr.DISPCNT, 16))
}

// TestAffineReferenceSignExtension covers the 28-bit sign-extended
// affine reference-point registers (spec.md §4.4).
func TestAffineReferenceSignExtension(t *testing.T) {
	p := newTestPPU()
	// Write a negative 20.8 value: -1 as a 28-bit field is 0xFFFFFFF.
	p.WriteIO(addr.BG2X, 16, 0xFFFF)
	p.WriteIO(addr.BG2X+2, 16, 0x0FFF)
	assert.Equal(t, int32(-1), p.affine[0].X)
}
