package swi

import (
	"testing"

	"github.com/hajimari/goba/goba/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct{ mem map[uint32]uint8 }

func newFakeBus() *fakeBus { return &fakeBus{mem: make(map[uint32]uint8)} }

func (b *fakeBus) Read8(a uint32) uint8 { return b.mem[a] }
func (b *fakeBus) Read16(a uint32) uint16 {
	return uint16(b.Read8(a)) | uint16(b.Read8(a+1))<<8
}
func (b *fakeBus) Read32(a uint32) uint32 {
	return uint32(b.Read16(a)) | uint32(b.Read16(a+2))<<16
}
func (b *fakeBus) Write8(a uint32, v uint8) { b.mem[a] = v }
func (b *fakeBus) Write16(a uint32, v uint16) {
	b.Write8(a, uint8(v))
	b.Write8(a+1, uint8(v>>8))
}
func (b *fakeBus) Write32(a uint32, v uint32) {
	b.Write16(a, uint16(v))
	b.Write16(a+2, uint16(v>>16))
}
func (b *fakeBus) IRQPending() bool { return false }

// TestDivLaw is spec.md §8's division law: quot*den + rem == num,
// |rem| < |den|, and sign(rem) == sign(num).
func TestDivLaw(t *testing.T) {
	c := cpu.New(newFakeBus())
	num := int32(-7)
	c.Regs().SetReg(0, uint32(num))
	c.Regs().SetReg(1, uint32(int32(2)))

	s := New()
	s.Handle(c, 0x06)

	quot := int32(c.Regs().GetReg(0))
	rem := int32(c.Regs().GetReg(1))
	assert.Equal(t, int32(-7), quot*2+rem)
	assert.Less(t, rem, int32(0), "remainder sign follows the dividend")
	assert.Equal(t, int32(-3), quot)
	assert.Equal(t, uint32(3), c.Regs().GetReg(3), "r3 holds abs(quotient)")
}

func TestDivArmSwapsOperands(t *testing.T) {
	c := cpu.New(newFakeBus())
	c.Regs().SetReg(0, uint32(int32(2))) // denominator for DivArm
	c.Regs().SetReg(1, uint32(int32(9))) // numerator for DivArm

	s := New()
	s.Handle(c, 0x07)

	assert.Equal(t, int32(4), int32(c.Regs().GetReg(0)))
	assert.Equal(t, int32(1), int32(c.Regs().GetReg(1)))
}

func TestSqrt(t *testing.T) {
	c := cpu.New(newFakeBus())
	c.Regs().SetReg(0, 144)
	New().Handle(c, 0x08)
	assert.Equal(t, uint32(12), c.Regs().GetReg(0))
}

func TestCpuSetFill16(t *testing.T) {
	bus := newFakeBus()
	bus.Write16(0x1000, 0xBEEF)
	cpuSet(bus, 0x1000, 0x2000, 4|(1<<24)) // fill, halfword, count=4
	for i := uint32(0); i < 4; i++ {
		assert.Equal(t, uint16(0xBEEF), bus.Read16(0x2000+i*2))
	}
}

func TestCpuSetCopy32(t *testing.T) {
	bus := newFakeBus()
	bus.Write32(0x1000, 0x11111111)
	bus.Write32(0x1004, 0x22222222)
	cpuSet(bus, 0x1000, 0x2000, 2|(1<<26)) // copy, word
	assert.Equal(t, uint32(0x11111111), bus.Read32(0x2000))
	assert.Equal(t, uint32(0x22222222), bus.Read32(0x2004))
}

// TestRLUncompLiteralRun exercises the run-length decompression scheme's
// literal (non-repeat) block.
func TestRLUncompLiteralRun(t *testing.T) {
	bus := newFakeBus()
	bus.Write32(0, 3<<8) // header: type ignored here, size=3
	bus.Write8(4, 0x02)  // flag: literal run, length = 2+1 = 3
	bus.Write8(5, 0xAA)
	bus.Write8(6, 0xBB)
	bus.Write8(7, 0xCC)

	rlUncomp(bus, 0, 0x1000)
	assert.Equal(t, uint8(0xAA), bus.Read8(0x1000))
	assert.Equal(t, uint8(0xBB), bus.Read8(0x1001))
	assert.Equal(t, uint8(0xCC), bus.Read8(0x1002))
}

func TestRLUncompRepeatRun(t *testing.T) {
	bus := newFakeBus()
	bus.Write32(0, 5<<8)
	bus.Write8(4, 0x80|2) // repeat flag, length = 2+3 = 5
	bus.Write8(5, 0x7)

	rlUncomp(bus, 0, 0x1000)
	for i := uint32(0); i < 5; i++ {
		assert.Equal(t, uint8(0x7), bus.Read8(0x1000+i))
	}
}

func TestLZ77UncompMixedLiteralAndBackref(t *testing.T) {
	bus := newFakeBus()
	bus.Write32(0, 6<<8) // decompressed size = 6
	bus.Write8(4, 0x20)  // flags: bits 7,6 literal, bit 5 a backref
	bus.Write8(5, 0x01)  // literal byte 0
	bus.Write8(6, 0x02)  // literal byte 1
	bus.Write8(7, 0x00)  // b0: length nibble=0 -> length=3, disp high nibble=0
	bus.Write8(8, 0x00)  // b1: disp low byte=0 -> disp=0 (repeat previous byte)

	lz77Uncomp(bus, 0, 0x1000)
	assert.Equal(t, uint8(0x01), bus.Read8(0x1000))
	assert.Equal(t, uint8(0x02), bus.Read8(0x1001))
	// disp=0 means srcPos = dst+written-1, i.e. repeat the last written byte
	assert.Equal(t, uint8(0x02), bus.Read8(0x1002))
	assert.Equal(t, uint8(0x02), bus.Read8(0x1003))
	assert.Equal(t, uint8(0x02), bus.Read8(0x1004))
}

func TestArcTanIsMonotonicNearOrigin(t *testing.T) {
	require.Less(t, arctan(0), arctan(1000))
}
