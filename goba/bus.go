// Package goba wires the ARM7TDMI core to the memory bus, PPU, APU,
// timers, DMA, interrupt controller, keypad, and cartridge/save into one
// runnable system (spec.md §2, §5).
//
// Grounded on the teacher's jeebie top-level Emulator type, which owns
// every subsystem and exposes a single StepFrame-shaped entry point;
// generalized here from the DMG's tight CPU/PPU/APU coupling to the
// GBA's additional timer/DMA/interrupt/SWI layers, wired through narrow
// callback contracts rather than back-pointers (spec.md §9).
package goba

import (
	"github.com/hajimari/goba/goba/addr"
	"github.com/hajimari/goba/goba/audio"
	"github.com/hajimari/goba/goba/cpu"
	"github.com/hajimari/goba/goba/dma"
	"github.com/hajimari/goba/goba/input"
	"github.com/hajimari/goba/goba/interrupt"
	"github.com/hajimari/goba/goba/memory"
	"github.com/hajimari/goba/goba/timer"
	"github.com/hajimari/goba/goba/video"
)

// bus implements cpu.Bus and dma.Bus by delegating to the MMU for raw
// memory and to the interrupt controller for the IRQ line, and routes
// every peripheral's register window into the MMU as an IOHandler.
type bus struct {
	mmu    *memory.MMU
	intc   *interrupt.Controller
	keypad *input.Keypad
	timers *timer.Block
	dmaCtl *dma.Controller
	ppu    *video.PPU
	apu    *audio.APU

	eeprom     *memory.EEPROM
	saveKind   memory.SaveKind
	saveDevice memory.SaveDevice

	cpu *cpu.CPU
}

func newBus() *bus {
	b := &bus{
		mmu:    memory.New(),
		intc:   interrupt.New(),
		keypad: input.New(),
	}
	b.timers = timer.New(b.intc.Request)
	b.dmaCtl = dma.New(b, b.intc.Request)
	b.ppu = video.New(b.mmu.VRAM(), b.mmu.Palette(), b.mmu.OAM(), b.intc.Request, b.onPPUDMATrigger)
	b.apu = audio.New()
	// FifoRefill is left unset: the sound-FIFO DMA transfer already
	// writes its words through the ordinary bus, which routes FIFO_A/B
	// addresses into the APU's IOHandler like any other I/O write.

	b.mmu.RegisterIO(b.ppu)
	b.mmu.RegisterIO(b.apu)
	b.mmu.RegisterIO(&timerIOAdapter{b.timers})
	b.mmu.RegisterIO(&dmaIOAdapter{b.dmaCtl})
	b.mmu.RegisterIO(&intcIOAdapter{b.intc})
	b.mmu.RegisterIO(&keypadIOAdapter{b.keypad})
	b.mmu.SetCPUInBIOS(b.cpuInBIOS)
	return b
}

func (b *bus) cpuInBIOS() bool {
	return b.cpu != nil && b.cpu.Regs().PC() < addr.BIOSBase+addr.BIOSSize
}

func (b *bus) onPPUDMATrigger(kind int) {
	switch kind {
	case video.TriggerVBlank:
		b.dmaCtl.Tick(dma.TimingVBlank)
	case video.TriggerHBlank:
		b.dmaCtl.Tick(dma.TimingHBlank)
	}
}

// --- cpu.Bus -----------------------------------------------------------

func (b *bus) Read8(address uint32) uint8  { return b.mmu.Read8(address) }
func (b *bus) Read16(address uint32) uint16 { return b.eepromRead16(address) }
func (b *bus) Read32(address uint32) uint32 { return b.mmu.Read32(address) }

func (b *bus) Write8(address uint32, v uint8)  { b.mmu.Write8(address, v) }
func (b *bus) Write16(address uint32, v uint16) { b.eepromWrite16(address, v) }
func (b *bus) Write32(address uint32, v uint32) { b.mmu.Write32(address, v) }

func (b *bus) IRQPending() bool {
	if b.keypad.IRQPending() {
		b.intc.Request(addr.Keypad)
	}
	return b.intc.Pending()
}

// eepromRead16/eepromWrite16 intercept the save region when an EEPROM
// backend is active, since EEPROM is a bit-serial device addressed one
// bit per 16-bit DMA3 transfer unit rather than a byte array
// (spec.md §4.9, §9 Cyclic references).
func (b *bus) eepromRead16(address uint32) uint16 {
	if b.eeprom != nil && address >= addr.SaveBase {
		return uint16(b.eeprom.ReadBit())
	}
	return b.mmu.Read16(address)
}

func (b *bus) eepromWrite16(address uint32, v uint16) {
	if b.eeprom != nil && address >= addr.SaveBase {
		b.eeprom.WriteBit(uint8(v & 1))
		return
	}
	b.mmu.Write16(address, v)
}

// --- dma.Bus -------------------------------------------------------------
// Satisfied directly by Read16/Read32/Write16/Write32 above.

// --- IOHandler adapters --------------------------------------------------
// timer.Block and dma.Controller expose ReadRegister/WriteRegister
// rather than memory.IOHandler directly, matching the style the teacher
// uses for its divider/timer registers; these adapters bridge that
// shape into the MMU's address-probe dispatch.

type timerIOAdapter struct{ t *timer.Block }

func (a *timerIOAdapter) Owns(address uint32) bool {
	return address >= addr.TimerStart && address <= addr.TimerEnd+1
}
func (a *timerIOAdapter) ReadIO(address uint32, width uint8) uint32 {
	return a.t.ReadRegister(address, width)
}
func (a *timerIOAdapter) WriteIO(address uint32, width uint8, v uint32) {
	a.t.WriteRegister(address, width, v)
}

type dmaIOAdapter struct{ d *dma.Controller }

func (a *dmaIOAdapter) Owns(address uint32) bool {
	return address >= addr.DMAStart && address <= addr.DMAEnd+1
}
func (a *dmaIOAdapter) ReadIO(address uint32, width uint8) uint32 {
	return uint32(a.d.ReadRegister(address))
}
func (a *dmaIOAdapter) WriteIO(address uint32, width uint8, v uint32) {
	a.d.WriteRegister(address, width, v)
}

// intcIOAdapter bridges IE/IF/WAITCNT/IME into the MMU's probe dispatch.
// It owns the full IE..IME halfword-plus-padding span so that the high
// byte of IE (DMA0-3/Keypad/GamePak enables live at 0x4000201) and of IF
// (their pending flags at 0x4000203) aren't silently dropped by a probe
// that only recognized the even base addresses (spec.md §4.3).
type intcIOAdapter struct{ c *interrupt.Controller }

func (a *intcIOAdapter) Owns(address uint32) bool {
	return address >= addr.IE && address <= addr.IME+1
}

func (a *intcIOAdapter) ReadIO(address uint32, width uint8) uint32 {
	switch {
	case width == 32 && address == addr.IE:
		return uint32(a.c.ReadIE()) | uint32(a.c.ReadIF())<<16
	case address >= addr.IE && address < addr.IE+2:
		return subReg16(a.c.ReadIE(), address-addr.IE, width)
	case address >= addr.IF && address < addr.IF+2:
		return subReg16(a.c.ReadIF(), address-addr.IF, width)
	case address >= addr.IME && address < addr.IME+2:
		return subReg16(boolToU16(a.c.ReadIME()), address-addr.IME, width)
	default:
		return 0
	}
}

func (a *intcIOAdapter) WriteIO(address uint32, width uint8, v uint32) {
	switch {
	case width == 32 && address == addr.IE:
		a.c.WriteIE(uint16(v))
		a.c.WriteIF(uint16(v >> 16))
	case address >= addr.IE && address < addr.IE+2:
		a.c.WriteIE(mergeReg16(a.c.ReadIE(), address-addr.IE, width, v))
	case address >= addr.IF && address < addr.IF+2:
		// W1C: fold the write into an all-zero base at the addressed
		// byte offset so a byte-wide write only clears bits in its own
		// byte, matching real hardware's independent IF_L/IF_H clears.
		a.c.WriteIF(mergeReg16(0, address-addr.IF, width, v))
	case address >= addr.IME && address < addr.IME+2:
		a.c.WriteIME(mergeReg16(boolToU16(a.c.ReadIME()), address-addr.IME, width, v))
	}
}

func boolToU16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// mergeReg16/subReg16 apply the same byte-offset reassembly the timer and
// DMA register windows use, so a byte-decomposed 16-bit access into any
// of these adapters' registers merges instead of clobbering.
func mergeReg16(cur uint16, byteOffset uint32, width uint8, v uint32) uint16 {
	if width >= 16 {
		return uint16(v)
	}
	shift := byteOffset * 8
	mask := uint16(0xFF) << shift
	return (cur &^ mask) | (uint16(v)&0xFF)<<shift
}

func subReg16(v uint16, byteOffset uint32, width uint8) uint32 {
	if width >= 16 {
		return uint32(v)
	}
	return uint32(v>>(byteOffset*8)) & 0xFF
}

type keypadIOAdapter struct{ k *input.Keypad }

func (a *keypadIOAdapter) Owns(address uint32) bool {
	return address == addr.KEYINPUT || address == addr.KEYCNT
}
func (a *keypadIOAdapter) ReadIO(address uint32, width uint8) uint32 {
	if address == addr.KEYINPUT {
		return uint32(a.k.ReadKEYINPUT())
	}
	return uint32(a.k.ReadKEYCNT())
}
func (a *keypadIOAdapter) WriteIO(address uint32, width uint8, v uint32) {
	if address == addr.KEYCNT {
		a.k.WriteKEYCNT(uint16(v))
	}
}
