package memory

import (
	"bytes"
	"log/slog"
)

// SaveKind identifies the auto-detected backup storage device
// (spec.md §4.9).
type SaveKind uint8

const (
	SaveNone SaveKind = iota
	SaveSRAM
	SaveFlash64K
	SaveFlash128K
	SaveEEPROM512
	SaveEEPROM8K
)

var saveTags = []struct {
	tag  string
	kind SaveKind
}{
	{"SRAM_V", SaveSRAM},
	{"FLASH1M_V", SaveFlash128K},
	{"FLASH512_V", SaveFlash64K},
	{"FLASH_V", SaveFlash64K},
	{"EEPROM_V", SaveEEPROM512},
}

// DetectSaveKind scans a ROM image for one of the documented ASCII save
// tags (spec.md §4.9). EEPROM_V is resolved to 512B or 8K by ROM size:
// ≤16MiB carts use the smaller variant.
func DetectSaveKind(rom []byte) SaveKind {
	for _, t := range saveTags {
		if bytes.Contains(rom, []byte(t.tag)) {
			if t.kind == SaveEEPROM512 && len(rom) > 16*1024*1024 {
				return SaveEEPROM8K
			}
			return t.kind
		}
	}
	return SaveNone
}

// NewSaveDevice builds the backing SaveDevice for a detected kind,
// loading prior save bytes if provided.
func NewSaveDevice(kind SaveKind, existing []byte) SaveDevice {
	switch kind {
	case SaveSRAM:
		return NewSRAM(existing)
	case SaveFlash64K:
		return NewFlash(0x10000, false, existing)
	case SaveFlash128K:
		return NewFlash(0x20000, true, existing)
	case SaveEEPROM512:
		return NewEEPROM(512, existing)
	case SaveEEPROM8K:
		return NewEEPROM(8192, existing)
	default:
		slog.Debug("cartridge: no save device detected")
		return nil
	}
}

// Header is the 192-byte GBA ROM header, parsed for validation and
// informational display (original_source/gba-core/src/cartridge.rs).
type Header struct {
	Title        string
	GameCode     string
	MakerCode    string
	Checksum     uint8
	computedSum  uint8
}

// ErrRomTooSmall and ErrBadHeaderChecksum are the two RomLoadError kinds
// named in spec.md §7; they live on the root goba package, not here,
// since ParseHeader is a pure function with no load-call semantics of
// its own.
func ParseHeader(rom []byte) (Header, bool) {
	if len(rom) < 192 {
		return Header{}, false
	}
	h := Header{
		Title:     trimCString(rom[0xA0:0xAC]),
		GameCode:  trimCString(rom[0xAC:0xB0]),
		MakerCode: trimCString(rom[0xB0:0xB2]),
		Checksum:  rom[0xBD],
	}
	var sum uint8
	for i := 0xA0; i <= 0xBC; i++ {
		sum -= rom[i]
	}
	sum -= 0x19
	h.computedSum = sum
	return h, h.computedSum == h.Checksum
}

func trimCString(b []byte) string {
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		n = len(b)
	}
	return string(bytes.TrimRight(b[:n], "\x00"))
}
