package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blankHeaderROM() []byte { return make([]byte, 192) }

func TestParseHeaderRejectsBadChecksum(t *testing.T) {
	rom := blankHeaderROM() // checksum byte left at 0, but the all-zero
	// header's computed checksum is 0xE7, so this must fail validation.
	_, ok := ParseHeader(rom)
	assert.False(t, ok)
}

func TestParseHeaderAcceptsMatchingChecksum(t *testing.T) {
	rom := blankHeaderROM()
	rom[0xBD] = 0xE7 // computed checksum of an all-zero title/gamecode/makercode block
	h, ok := ParseHeader(rom)
	require.True(t, ok)
	assert.Equal(t, "", h.Title)
}

func TestParseHeaderExtractsTitle(t *testing.T) {
	rom := blankHeaderROM()
	copy(rom[0xA0:0xAC], "TEST")
	rom[0xBD] = 0xA7 // computed checksum with "TEST" in the title field
	h, ok := ParseHeader(rom)
	require.True(t, ok)
	assert.Equal(t, "TEST", h.Title)
}

func TestParseHeaderRejectsShortROM(t *testing.T) {
	_, ok := ParseHeader(make([]byte, 10))
	assert.False(t, ok)
}

func TestDetectSaveKindTags(t *testing.T) {
	assert.Equal(t, SaveSRAM, DetectSaveKind([]byte("junk SRAM_V123 junk")))
	assert.Equal(t, SaveFlash128K, DetectSaveKind([]byte("FLASH1M_V102")))
	assert.Equal(t, SaveFlash64K, DetectSaveKind([]byte("FLASH_V130")))
	assert.Equal(t, SaveNone, DetectSaveKind([]byte("nothing recognizable")))
}

func TestDetectSaveKindEEPROMSizeSplit(t *testing.T) {
	small := []byte("EEPROM_V120")
	assert.Equal(t, SaveEEPROM512, DetectSaveKind(small))

	big := make([]byte, 17*1024*1024)
	copy(big, []byte("EEPROM_V120"))
	assert.Equal(t, SaveEEPROM8K, DetectSaveKind(big))
}

func TestNewSaveDeviceDispatchesByKind(t *testing.T) {
	assert.IsType(t, &SRAM{}, NewSaveDevice(SaveSRAM, nil))
	assert.IsType(t, &Flash{}, NewSaveDevice(SaveFlash64K, nil))
	assert.IsType(t, &EEPROM{}, NewSaveDevice(SaveEEPROM8K, nil))
	assert.Nil(t, NewSaveDevice(SaveNone, nil))
}
