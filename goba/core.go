package goba

import (
	"errors"

	"github.com/hajimari/goba/goba/cpu"
	"github.com/hajimari/goba/goba/dma"
	"github.com/hajimari/goba/goba/memory"
	"github.com/hajimari/goba/goba/swi"
	"github.com/hajimari/goba/goba/video"
)

// Host contract violations named in spec.md §7; the core never returns
// these for guest-observable behaviour, only for misuse of these entry
// points.
var (
	ErrRomTooSmall       = errors.New("goba: rom image smaller than the 192-byte header")
	ErrBadHeaderChecksum = errors.New("goba: rom header checksum mismatch")
	ErrNotLoaded         = errors.New("goba: step_frame called before load_rom")
)

// Core is the assembled system: CPU plus every peripheral, reachable
// through the single entry-point surface spec.md §6 names.
type Core struct {
	bus  *bus
	cpu  *cpu.CPU
	shim *swi.Shim

	romLoaded bool
	header    memory.Header

	autoSaveHook func([]byte)
}

// New returns a Core with a fresh ARM7TDMI core, BIOS-less SWI shim
// installed, and no ROM loaded yet.
func New() *Core {
	b := newBus()
	c := cpu.New(b)
	b.cpu = c
	shim := swi.New()
	c.SetSWIShim(shim.Handle)
	return &Core{bus: b, cpu: c, shim: shim}
}

// LoadBIOS installs a real BIOS image. Once loaded, SWI vectors into it
// instead of the shim (spec.md §4.8); callers that prefer the shim
// regardless should simply not call this.
func (core *Core) LoadBIOS(data []byte) error {
	core.bus.mmu.LoadBIOS(data)
	core.cpu.SetSWIShim(nil)
	return nil
}

// LoadROM validates the header, detects the save backend, and installs
// the ROM image (spec.md §4.9, §7 RomLoadError).
func (core *Core) LoadROM(data []byte) error {
	if len(data) < 192 {
		return ErrRomTooSmall
	}
	header, ok := memory.ParseHeader(data)
	if !ok {
		return ErrBadHeaderChecksum
	}
	core.header = header

	core.bus.mmu.LoadROM(data)

	kind := memory.DetectSaveKind(data)
	dev := memory.NewSaveDevice(kind, nil)
	core.bus.mmu.SetSaveDevice(dev)
	core.bus.saveKind = kind
	core.bus.saveDevice = dev
	if e, ok := dev.(*memory.EEPROM); ok {
		core.bus.eeprom = e
	} else {
		core.bus.eeprom = nil
	}

	core.romLoaded = true
	core.Reset()
	return nil
}

// Reset reinitializes every subsystem to its post-BIOS-handoff state
// (spec.md §3 Lifecycle).
func (core *Core) Reset() {
	core.cpu.Reset()
	core.bus.intc.Reset()
	core.bus.timers.Reset()
	core.bus.dmaCtl.Reset()
	core.bus.ppu.Reset()
	core.bus.apu.Reset()
}

// SetKeyState overwrites the 10-bit pressed-button mask for this frame
// (spec.md §6, 1 = pressed in the host-facing convention).
func (core *Core) SetKeyState(pressedMask uint16) {
	core.bus.keypad.SetKeyState(pressedMask)
}

// Header returns the parsed title/game-code/maker-code/checksum fields of
// the loaded cartridge, for a host UI to display; it gates nothing in
// the core itself (original_source/gba-core/src/cartridge.rs).
func (core *Core) Header() memory.Header {
	return core.header
}

// SetAutoSaveHook registers a callback invoked with the current save
// buffer at every frame boundary, mirroring
// original_source/gba-core/src/emulator.rs's auto_save hook. The core
// only hands back the bytes; persisting them to disk remains the host's
// job (spec.md §1 Out of scope).
func (core *Core) SetAutoSaveHook(fn func([]byte)) {
	core.autoSaveHook = fn
}

// StepFrame runs the system until the PPU completes the current frame
// (line 227 rolling to 0) and returns the finished framebuffer
// (spec.md §5, §6).
func (core *Core) StepFrame() (*video.Framebuffer, error) {
	if !core.romLoaded {
		return nil, ErrNotLoaded
	}
	core.bus.ppu.FrameReady = false
	for !core.bus.ppu.FrameReady {
		core.stepOnce()
	}
	if core.autoSaveHook != nil {
		if data := core.SaveData(); data != nil {
			core.autoSaveHook(data)
		}
	}
	return core.bus.ppu.Framebuffer(), nil
}

// stepOnce executes one CPU instruction (or halted quantum) and advances
// every peripheral by the returned cycle count, servicing any DMA that
// became triggerable in the interval, in ascending channel order
// (spec.md §5 Concurrency model).
func (core *Core) stepOnce() {
	cycles := core.cpu.Step()
	if cycles == 0 {
		return // exception entry took no simulated bus time
	}
	n := uint32(cycles)

	core.bus.ppu.Advance(n)
	core.bus.apu.Advance(n)
	core.bus.timers.Advance(n)

	for i, overflowed := range core.bus.timers.Overflowed {
		if !overflowed {
			continue
		}
		refillA, refillB := core.bus.apu.NotifyTimerOverflow(i)
		if refillA {
			core.bus.dmaCtl.TickChannel(1, dma.TimingSpecial)
		}
		if refillB {
			core.bus.dmaCtl.TickChannel(2, dma.TimingSpecial)
		}
	}

	core.bus.dmaCtl.Tick(dma.TimingImmediate)
}

// DrainAudio copies queued stereo samples into dst (spec.md §6).
func (core *Core) DrainAudio(dst []int16) int {
	return core.bus.apu.DrainAudio(dst)
}

// SaveData returns the raw backing bytes of the detected save device,
// or nil if the cartridge uses none (spec.md §6, §4.9).
func (core *Core) SaveData() []byte {
	switch d := core.bus.saveDevice.(type) {
	case *memory.SRAM:
		return d.Bytes()
	case *memory.Flash:
		return d.Bytes()
	case *memory.EEPROM:
		return d.Bytes()
	default:
		return nil
	}
}

// LoadSaveData installs previously-saved bytes into the detected save
// device, replacing its current contents.
func (core *Core) LoadSaveData(data []byte) {
	dev := memory.NewSaveDevice(core.bus.saveKind, data)
	core.bus.mmu.SetSaveDevice(dev)
	core.bus.saveDevice = dev
	if e, ok := dev.(*memory.EEPROM); ok {
		core.bus.eeprom = e
	} else {
		core.bus.eeprom = nil
	}
}
