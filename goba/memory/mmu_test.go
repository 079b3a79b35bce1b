package memory

import (
	"testing"

	"github.com/hajimari/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

// TestEWRAMRoundTrip is spec.md §8's word round-trip invariant: reading
// a word written to an aligned address returns the same word.
func TestEWRAMRoundTrip(t *testing.T) {
	m := New()
	m.Write32(addr.EWRAMBase+0x100, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), m.Read32(addr.EWRAMBase+0x100))
}

// TestRotatedWordRead is spec.md §8's rotated-read law: LDR at addr mod 4
// = k returns ROR(mem_word(addr &^ 3), 8*k).
func TestRotatedWordRead(t *testing.T) {
	m := New()
	m.Write32(addr.IWRAMBase, 0x12345678)

	assert.Equal(t, uint32(0x12345678), m.Read32(addr.IWRAMBase))
	assert.Equal(t, uint32(0x78123456), m.Read32(addr.IWRAMBase+1))
	assert.Equal(t, uint32(0x56781234), m.Read32(addr.IWRAMBase+2))
	assert.Equal(t, uint32(0x34567812), m.Read32(addr.IWRAMBase+3))
}

// TestEWRAMMirror verifies the documented 0x3FFFF mirror (spec.md §6).
func TestEWRAMMirror(t *testing.T) {
	m := New()
	m.Write8(addr.EWRAMBase, 0x42)
	assert.Equal(t, uint8(0x42), m.Read8(addr.EWRAMBase+addr.EWRAMSize))
}

// TestVRAMByteWriteDuplicatesHalfword and TestOAMByteWriteIgnored are the
// VRAM/palette/OAM byte-write rules from spec.md §4.2.
func TestVRAMByteWriteDuplicatesHalfword(t *testing.T) {
	m := New()
	m.Write8(addr.VRAMBase, 0x5A)
	assert.Equal(t, uint16(0x5A5A), m.Read16(addr.VRAMBase))
}

func TestPaletteByteWriteDuplicatesHalfword(t *testing.T) {
	m := New()
	m.Write8(addr.PaletteBase+2, 0x33)
	assert.Equal(t, uint16(0x3333), m.Read16(addr.PaletteBase+2))
}

func TestOAMByteWriteIgnored(t *testing.T) {
	m := New()
	m.Write16(addr.OAMBase, 0xBEEF)
	m.Write8(addr.OAMBase, 0x00)
	assert.Equal(t, uint16(0xBEEF), m.Read16(addr.OAMBase), "byte writes to OAM must be dropped")
}

// TestROMAndBIOSAreReadOnly covers spec.md §3's "writes to ROM and BIOS
// are ignored".
func TestROMAndBIOSAreReadOnly(t *testing.T) {
	m := New()
	m.LoadROM([]byte{0x11, 0x22, 0x33, 0x44})
	m.Write8(addr.ROMBase, 0xFF)
	assert.Equal(t, uint8(0x11), m.Read8(addr.ROMBase))

	m.LoadBIOS(make([]byte, addr.BIOSSize))
	m.SetCPUInBIOS(func() bool { return true })
	m.Write8(addr.BIOSBase, 0xFF)
	assert.Equal(t, uint8(0), m.Read8(addr.BIOSBase))
}

// TestUnknownIOReadsZero covers spec.md §7 UnknownIo.
func TestUnknownIOReadsZero(t *testing.T) {
	m := New()
	assert.Equal(t, uint8(0), m.Read8(addr.IOBase+0x100))
}
