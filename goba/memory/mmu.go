// Package memory implements the GBA address-routed bus: region
// classification, mirroring, the VRAM/palette/OAM byte-write rule, and
// the unaligned-access normalization rules (spec.md §4.2, §7).
//
// Grounded on the teacher's jeebie/memory.MMU byte-array-per-region
// router, generalized from the DMG's small fixed region set to the
// GBA's larger regions plus the special VRAM mirroring and byte-write
// duplication rules documented in original_source/gba-core/src/bus.rs.
package memory

import "github.com/hajimari/goba/goba/addr"

// IOHandler is the narrow contract peripherals implement to participate
// in I/O-space reads and writes; MMU dispatches by address range rather
// than storing back-pointers to each peripheral (spec.md §9).
type IOHandler interface {
	ReadIO(address uint32, width uint8) uint32
	WriteIO(address uint32, width uint8, value uint32)
	// Owns reports whether this handler claims address, so MMU can probe
	// handlers in registration order without a static range table.
	Owns(address uint32) bool
}

// MMU routes 32-bit addresses to their backing region and applies the
// width/mirroring/rotation rules common to every access.
type MMU struct {
	bios  []byte
	ewram []byte
	iwram []byte
	pram  []byte
	vram  []byte
	oam   []byte
	rom   []byte

	save SaveDevice

	ioHandlers []IOHandler

	lastBIOSFetch uint32
	cpuInBIOS     func() bool
}

// SaveDevice is the narrow contract a cartridge save backend (SRAM,
// Flash, EEPROM) implements (spec.md §4.9).
type SaveDevice interface {
	Read(address uint32) uint8
	Write(address uint32, value uint8)
}

func New() *MMU {
	return &MMU{
		bios:  make([]byte, addr.BIOSSize),
		ewram: make([]byte, addr.EWRAMSize),
		iwram: make([]byte, addr.IWRAMSize),
		pram:  make([]byte, addr.PaletteSize),
		vram:  make([]byte, addr.VRAMSize),
		oam:   make([]byte, addr.OAMSize),
	}
}

// SetCPUInBIOS installs the predicate MMU uses to decide whether a BIOS
// read is a legitimate in-BIOS fetch (returns real data) or an
// open-bus probe from outside BIOS (spec.md §7 BiosMissing).
func (m *MMU) SetCPUInBIOS(f func() bool) { m.cpuInBIOS = f }

func (m *MMU) RegisterIO(h IOHandler) { m.ioHandlers = append(m.ioHandlers, h) }

func (m *MMU) LoadBIOS(data []byte) {
	n := copy(m.bios, data)
	_ = n
}

func (m *MMU) LoadROM(data []byte) {
	m.rom = make([]byte, len(data))
	copy(m.rom, data)
}

func (m *MMU) SetSaveDevice(dev SaveDevice) { m.save = dev }

func (m *MMU) ROM() []byte { return m.rom }

// VRAM, Palette and OAM expose the backing slices directly so the PPU
// can render from them without routing every pixel fetch through the
// bus façade (spec.md §9 Cyclic references: a shared slice, not a
// back-pointer, keeps PPU decoupled from MMU's own logic).
func (m *MMU) VRAM() []byte    { return m.vram }
func (m *MMU) Palette() []byte { return m.pram }
func (m *MMU) OAM() []byte     { return m.oam }

// --- byte-level region access ---------------------------------------

func (m *MMU) readByte(address uint32) uint8 {
	switch {
	case address < addr.BIOSBase+addr.BIOSSize:
		if m.cpuInBIOS == nil || m.cpuInBIOS() {
			return m.bios[address&(addr.BIOSSize-1)]
		}
		return uint8(m.lastBIOSFetch)
	case address >= addr.EWRAMBase && address < addr.EWRAMBase+0x01000000:
		return m.ewram[address&(addr.EWRAMSize-1)]
	case address >= addr.IWRAMBase && address < addr.IWRAMBase+0x01000000:
		return m.iwram[address&(addr.IWRAMSize-1)]
	case address >= addr.IOBase && address < addr.IOBase+0x01000000:
		return uint8(m.readIO(address, 8))
	case address >= addr.PaletteBase && address < addr.PaletteBase+0x01000000:
		return m.pram[address&(addr.PaletteSize-1)]
	case address >= addr.VRAMBase && address < addr.VRAMBase+0x01000000:
		return m.vram[vramMirror(address)]
	case address >= addr.OAMBase && address < addr.OAMBase+0x01000000:
		return m.oam[address&(addr.OAMSize-1)]
	case address >= addr.ROMBase && address < addr.ROMBase+0x02000000,
		address >= addr.ROMBase2 && address < addr.ROMBase2+0x02000000,
		address >= addr.ROMBase3 && address < addr.ROMBase3+0x02000000:
		off := address & (addr.ROMMaxSize - 1)
		if int(off) < len(m.rom) {
			return m.rom[off]
		}
		return 0
	case address >= addr.SaveBase:
		if m.save != nil {
			return m.save.Read(address & (addr.SaveMaxSize - 1))
		}
		return 0xFF
	default:
		return 0
	}
}

func (m *MMU) writeByte(address uint32, v uint8) {
	switch {
	case address < addr.BIOSBase+addr.BIOSSize:
		// BIOS is read-only (spec.md §3).
	case address >= addr.EWRAMBase && address < addr.EWRAMBase+0x01000000:
		m.ewram[address&(addr.EWRAMSize-1)] = v
	case address >= addr.IWRAMBase && address < addr.IWRAMBase+0x01000000:
		m.iwram[address&(addr.IWRAMSize-1)] = v
	case address >= addr.IOBase && address < addr.IOBase+0x01000000:
		m.writeIO(address, 8, uint32(v))
	case address >= addr.PaletteBase && address < addr.PaletteBase+0x01000000:
		// Byte writes duplicate into both halves of the halfword
		// (spec.md §4.2).
		base := address &^ 1 & (addr.PaletteSize - 1)
		m.pram[base] = v
		m.pram[base+1] = v
	case address >= addr.VRAMBase && address < addr.VRAMBase+0x01000000:
		off := vramMirror(address) &^ 1
		m.vram[off] = v
		m.vram[off+1] = v
	case address >= addr.OAMBase && address < addr.OAMBase+0x01000000:
		// Byte writes to OAM are ignored entirely (spec.md §4.2).
	case address >= addr.ROMBase && address < addr.ROMBase+0x02000000,
		address >= addr.ROMBase2 && address < addr.ROMBase2+0x02000000,
		address >= addr.ROMBase3 && address < addr.ROMBase3+0x02000000:
		// ROM is read-only.
	case address >= addr.SaveBase:
		if m.save != nil {
			m.save.Write(address&(addr.SaveMaxSize-1), v)
		}
	}
}

// vramMirror implements the documented VRAM wraparound: two 64 KiB
// halves for BG data in modes 0-2, and bitmap modes treat it as two
// 32 KiB regions within the upper half for OBJ tiles (spec.md §6).
func vramMirror(address uint32) uint32 {
	off := (address - addr.VRAMBase) % 0x20000
	if off >= addr.VRAMSize {
		off -= 0x8000
	}
	return off
}

func (m *MMU) readIO(address uint32, width uint8) uint32 {
	for _, h := range m.ioHandlers {
		if h.Owns(address) {
			return h.ReadIO(address, width)
		}
	}
	return 0
}

func (m *MMU) writeIO(address uint32, width uint8, v uint32) {
	for _, h := range m.ioHandlers {
		if h.Owns(address) {
			h.WriteIO(address, width, v)
			return
		}
	}
	// Unknown I/O: dropped (spec.md §7 UnknownIo).
}

// isIO reports whether address falls in the I/O register window, where a
// 16/32-bit access must reach the owning handler as a single call at its
// true width rather than as independent byte writes: a handler programs
// its whole register from one STRH/STR, and splitting that into byte-wide
// writes loses whichever half arrives first (spec.md §4.2, §9).
func isIO(address uint32) bool {
	return address >= addr.IOBase && address < addr.IOBase+0x01000000
}

// ioOwner returns the handler claiming the entire [address, address+n)
// span, or nil if no single handler owns all of it (falls back to the
// byte-wise path, which still reaches each byte's owner independently).
func (m *MMU) ioOwner(address uint32, n uint32) IOHandler {
	for _, h := range m.ioHandlers {
		if !h.Owns(address) {
			continue
		}
		for i := uint32(1); i < n; i++ {
			if !h.Owns(address + i) {
				return nil
			}
		}
		return h
	}
	return nil
}

// --- width-aware bus surface (implements cpu.Bus) --------------------

func (m *MMU) Read8(address uint32) uint8 { return m.readByte(address) }

// Read16 applies the same rotation rule as Read32, scaled to 16 bits: an
// odd address rotates the aligned halfword by 8 bits (spec.md §4.2).
func (m *MMU) Read16(address uint32) uint16 {
	aligned := address &^ 1
	var v uint16
	if isIO(aligned) {
		if h := m.ioOwner(aligned, 2); h != nil {
			v = uint16(h.ReadIO(aligned, 16))
		} else {
			v = uint16(m.readIO(aligned, 8)) | uint16(m.readIO(aligned+1, 8))<<8
		}
	} else {
		lo := uint16(m.readByte(aligned))
		hi := uint16(m.readByte(aligned + 1))
		v = lo | hi<<8
	}
	if address&1 != 0 {
		return (v >> 8) | (v << 8)
	}
	return v
}

// Read32 applies the documented unaligned-word rotation (spec.md §4.2,
// §8 Rotated-read law).
func (m *MMU) Read32(address uint32) uint32 {
	aligned := address &^ 3
	var v uint32
	if isIO(aligned) {
		if h := m.ioOwner(aligned, 4); h != nil {
			v = h.ReadIO(aligned, 32)
		} else {
			v = uint32(m.readIO(aligned, 8)) | uint32(m.readIO(aligned+1, 8))<<8 |
				uint32(m.readIO(aligned+2, 8))<<16 | uint32(m.readIO(aligned+3, 8))<<24
		}
	} else {
		v = m.readWord(aligned)
	}
	rotate := (address & 3) * 8
	if rotate == 0 {
		return v
	}
	return (v >> rotate) | (v << (32 - rotate))
}

func (m *MMU) readWord(address uint32) uint32 {
	b0 := uint32(m.readByte(address))
	b1 := uint32(m.readByte(address + 1))
	b2 := uint32(m.readByte(address + 2))
	b3 := uint32(m.readByte(address + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func (m *MMU) Write8(address uint32, v uint8) { m.writeByte(address, v) }

func (m *MMU) Write16(address uint32, v uint16) {
	address &^= 1
	if isIO(address) {
		if h := m.ioOwner(address, 2); h != nil {
			h.WriteIO(address, 16, uint32(v))
			return
		}
	}
	if address >= addr.OAMBase && address < addr.OAMBase+0x01000000 {
		// Only 8-bit OAM stores are dropped; halfword stores land as-is.
		off := address & (addr.OAMSize - 1)
		m.oam[off], m.oam[off+1] = uint8(v), uint8(v>>8)
		return
	}
	m.writeByte(address, uint8(v))
	m.writeByte(address+1, uint8(v>>8))
}

func (m *MMU) Write32(address uint32, v uint32) {
	address &^= 3
	if isIO(address) {
		if h := m.ioOwner(address, 4); h != nil {
			h.WriteIO(address, 32, v)
			return
		}
	}
	if address >= addr.OAMBase && address < addr.OAMBase+0x01000000 {
		off := address & (addr.OAMSize - 1)
		m.oam[off], m.oam[off+1], m.oam[off+2], m.oam[off+3] = uint8(v), uint8(v>>8), uint8(v>>16), uint8(v>>24)
		return
	}
	m.writeByte(address, uint8(v))
	m.writeByte(address+1, uint8(v>>8))
	m.writeByte(address+2, uint8(v>>16))
	m.writeByte(address+3, uint8(v>>24))
}
