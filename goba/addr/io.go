// Package addr holds the GBA I/O register addresses and the interrupt
// source enumeration shared by every peripheral package, mirroring the
// flat address-constant style the teacher uses for the DMG equivalents.
package addr

// Memory region bases, per spec.md §6.
const (
	BIOSBase   uint32 = 0x00000000
	EWRAMBase  uint32 = 0x02000000
	IWRAMBase  uint32 = 0x03000000
	IOBase     uint32 = 0x04000000
	PaletteBase uint32 = 0x05000000
	VRAMBase   uint32 = 0x06000000
	OAMBase    uint32 = 0x07000000
	ROMBase    uint32 = 0x08000000
	ROMBase2   uint32 = 0x0A000000
	ROMBase3   uint32 = 0x0C000000
	SaveBase   uint32 = 0x0E000000

	BIOSSize    = 0x4000
	EWRAMSize   = 0x40000
	IWRAMSize   = 0x8000
	IOSize      = 0x400
	PaletteSize = 0x400
	VRAMSize    = 0x18000
	OAMSize     = 0x400
	ROMMaxSize  = 0x2000000
	SaveMaxSize = 0x10000
)

// PPU registers.
const (
	DISPCNT  uint32 = 0x04000000
	DISPSTAT uint32 = 0x04000004
	VCOUNT   uint32 = 0x04000006
	BG0CNT   uint32 = 0x04000008
	BG1CNT   uint32 = 0x0400000A
	BG2CNT   uint32 = 0x0400000C
	BG3CNT   uint32 = 0x0400000E
	BG0HOFS  uint32 = 0x04000010
	BG0VOFS  uint32 = 0x04000012
	BG1HOFS  uint32 = 0x04000014
	BG1VOFS  uint32 = 0x04000016
	BG2HOFS  uint32 = 0x04000018
	BG2VOFS  uint32 = 0x0400001A
	BG3HOFS  uint32 = 0x0400001C
	BG3VOFS  uint32 = 0x0400001E
	BG2PA    uint32 = 0x04000020
	BG2PB    uint32 = 0x04000022
	BG2PC    uint32 = 0x04000024
	BG2PD    uint32 = 0x04000026
	BG2X     uint32 = 0x04000028
	BG2Y     uint32 = 0x0400002C
	BG3PA    uint32 = 0x04000030
	BG3PB    uint32 = 0x04000032
	BG3PC    uint32 = 0x04000034
	BG3PD    uint32 = 0x04000036
	BG3X     uint32 = 0x04000038
	BG3Y     uint32 = 0x0400003C
	WIN0H    uint32 = 0x04000040
	WIN1H    uint32 = 0x04000042
	WIN0V    uint32 = 0x04000044
	WIN1V    uint32 = 0x04000046
	WININ    uint32 = 0x04000048
	WINOUT   uint32 = 0x0400004A
	MOSAIC   uint32 = 0x0400004C
	BLDCNT   uint32 = 0x04000050
	BLDALPHA uint32 = 0x04000052
	BLDY     uint32 = 0x04000054
)

// Sound registers (subset relevant to the legacy channels and FIFOs).
const (
	SOUND1CNT_L uint32 = 0x04000060
	SOUND1CNT_H uint32 = 0x04000062
	SOUND1CNT_X uint32 = 0x04000064
	SOUND2CNT_L uint32 = 0x04000068
	SOUND2CNT_H uint32 = 0x0400006C
	SOUND3CNT_L uint32 = 0x04000070
	SOUND3CNT_H uint32 = 0x04000072
	SOUND3CNT_X uint32 = 0x04000074
	SOUND4CNT_L uint32 = 0x04000078
	SOUND4CNT_H uint32 = 0x0400007C
	SOUNDCNT_L  uint32 = 0x04000080
	SOUNDCNT_H  uint32 = 0x04000082
	SOUNDCNT_X  uint32 = 0x04000084
	SOUNDBIAS   uint32 = 0x04000088
	WAVE_RAM    uint32 = 0x04000090
	FIFO_A      uint32 = 0x040000A0
	FIFO_B      uint32 = 0x040000A4
	SoundStart  uint32 = 0x04000060
	SoundEnd    uint32 = 0x040000A8
)

// DMA registers (4 channels, 12 bytes apart).
const (
	DMA0SAD uint32 = 0x040000B0
	DMA0DAD uint32 = 0x040000B4
	DMA0CNT_L uint32 = 0x040000B8
	DMA0CNT_H uint32 = 0x040000BA
	DMA1SAD uint32 = 0x040000BC
	DMA2SAD uint32 = 0x040000C8
	DMA3SAD uint32 = 0x040000D4
	DMAStart uint32 = 0x040000B0
	DMAEnd   uint32 = 0x040000DE
)

// Timer registers.
const (
	TM0CNT_L uint32 = 0x04000100
	TM0CNT_H uint32 = 0x04000102
	TM1CNT_L uint32 = 0x04000104
	TM1CNT_H uint32 = 0x04000106
	TM2CNT_L uint32 = 0x04000108
	TM2CNT_H uint32 = 0x0400010A
	TM3CNT_L uint32 = 0x0400010C
	TM3CNT_H uint32 = 0x0400010E
	TimerStart uint32 = 0x04000100
	TimerEnd   uint32 = 0x0400010E
)

// Keypad and interrupt registers.
const (
	KEYINPUT uint32 = 0x04000130
	KEYCNT   uint32 = 0x04000132
	IE       uint32 = 0x04000200
	IF       uint32 = 0x04000202
	WAITCNT  uint32 = 0x04000204
	IME      uint32 = 0x04000208
)

// Interrupt identifies a GBA interrupt source, matching IE/IF bit
// positions (spec.md §4.3).
type Interrupt uint16

const (
	VBlank  Interrupt = 1 << 0
	HBlank  Interrupt = 1 << 1
	VCount  Interrupt = 1 << 2
	Timer0  Interrupt = 1 << 3
	Timer1  Interrupt = 1 << 4
	Timer2  Interrupt = 1 << 5
	Timer3  Interrupt = 1 << 6
	Serial  Interrupt = 1 << 7
	DMA0    Interrupt = 1 << 8
	DMA1    Interrupt = 1 << 9
	DMA2    Interrupt = 1 << 10
	DMA3    Interrupt = 1 << 11
	Keypad  Interrupt = 1 << 12
	GamePak Interrupt = 1 << 13
)
