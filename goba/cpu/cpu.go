// Package cpu implements the ARM7TDMI execute engine: ARM and THUMB
// decode/execute, banked registers, and the IRQ/FIQ/SWI exception model.
//
// Grounded on the teacher's jeebie/cpu.CPU (Exec()-returns-cycles shape,
// Bus-as-narrow-interface, halt handling) generalized from a single Z80
// instruction set to two ARM/THUMB encodings and banked-mode registers,
// per original_source/gba-arm7tdmi/src/cpu.rs.
package cpu


// Bus is the narrow contract the CPU needs from the system bus: byte,
// halfword and word access plus interrupt-request plumbing. Passed in at
// construction rather than stored as a cyclic back-pointer (spec.md §9).
type Bus interface {
	Read8(address uint32) uint8
	Read16(address uint32) uint16
	Read32(address uint32) uint32
	Write8(address uint32, value uint8)
	Write16(address uint32, value uint16)
	Write32(address uint32, value uint32)
	// IRQPending reports whether the interrupt controller currently has a
	// serviceable IRQ line asserted ((IE&IF)!=0 && IME).
	IRQPending() bool
}

const (
	armPCOffset   = 8 // ARM: PC reads as fetch-address + 8 (two instructions ahead)
	thumbPCOffset = 4 // THUMB: PC reads as fetch-address + 4
)

// Vector addresses for the exception model (spec.md §4.1).
const (
	vectorUndefined = 0x04
	vectorSWI       = 0x08
	vectorIRQ       = 0x18
	vectorFIQ       = 0x1C
)

// CPU is the ARM7TDMI core. Step consumes one instruction and
// returns the cycles it took; the caller (the system bus) is responsible
// for ticking PPU/APU/timers/DMA by that amount.
type CPU struct {
	regs Registers
	bus  Bus

	halted bool

	// swiShim, if non-nil, intercepts SWI rather than vectoring through
	// BIOS code (spec.md §4.8). Set by the bus wiring when no BIOS image
	// was loaded, or always-on if the host prefers the HLE shim.
	swiShim func(c *CPU, number uint8) int

	irqRaised bool
	fiqRaised bool

	cycles uint64
}

// New returns a CPU wired to bus, in the post-reset state.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// SetSWIShim installs the BIOS HLE shim used to intercept SWI instead of
// vectoring into loaded BIOS code. number is the SWI comment byte decoded
// by the caller from the trapping opcode.
func (c *CPU) SetSWIShim(shim func(c *CPU, number uint8) int) { c.swiShim = shim }

// Reset reinitializes the register file to the GBA's documented
// post-BIOS-handoff state (spec.md §3 Lifecycle).
func (c *CPU) Reset() {
	c.regs.Reset()
	c.halted = false
	c.irqRaised = false
	c.fiqRaised = false
	c.cycles = 0
}

// RaiseIRQ forces the CPU to consider an IRQ pending on its next Step,
// regardless of what Bus.IRQPending reports. Exposed for tests and for
// bus wiring that prefers push-style notification.
func (c *CPU) RaiseIRQ() { c.irqRaised = true }

// RaiseFIQ is the FIQ equivalent of RaiseIRQ. The GBA never asserts FIQ
// in practice, but the ARM7TDMI contract includes it.
func (c *CPU) RaiseFIQ() { c.fiqRaised = true }

func (c *CPU) Halted() bool    { return c.halted }
func (c *CPU) SetHalted(v bool) { c.halted = v }
func (c *CPU) Cycles() uint64   { return c.cycles }
func (c *CPU) Regs() *Registers { return &c.regs }

// Bus exposes the narrow memory/interrupt contract to the installed SWI
// shim (spec.md §4.8), which otherwise has no access to CPU's private
// fields.
func (c *CPU) Bus() Bus { return c.bus }

// Step executes a single instruction (or, while halted, burns a small
// cycle quantum waiting for an interrupt) and returns cycles consumed.
func (c *CPU) Step() int {
	if c.serviceInterrupts() {
		return 0
	}

	if c.halted {
		return 4
	}

	var cycles int
	if c.regs.Thumb() {
		cycles = c.stepThumb()
	} else {
		cycles = c.stepARM()
	}
	c.cycles += uint64(cycles)
	return cycles
}

// serviceInterrupts checks for a pending, unmasked IRQ/FIQ and, if one is
// found, vectors into the handler. Returns true if an exception was
// taken this call (the caller should not also execute an instruction).
func (c *CPU) serviceInterrupts() bool {
	if c.fiqRaised && !c.regs.FIQDisabled() {
		c.fiqRaised = false
		c.halted = false
		c.enterExceptionAt(ModeFIQ, vectorFIQ, c.regs.PC()+4)
		return true
	}

	pending := c.irqRaised || c.bus.IRQPending()
	if !pending {
		return false
	}

	if c.halted {
		c.halted = false
	}

	if c.regs.IRQDisabled() {
		return false
	}

	c.irqRaised = false
	// IRQ is checked before Step advances PC (unlike SWI/Undefined, which
	// trap mid-stepARM/stepThumb after the advance), so PC() here already
	// is the address of the not-yet-executed instruction X. r14_irq must
	// be X+4 regardless of instruction set, since the BIOS return
	// trampoline (SUBS PC, LR, #4) is always ARM code (spec.md §4.1).
	c.enterExceptionAt(ModeIRQ, vectorIRQ, c.regs.PC()+4)
	return true
}

// enterException performs the shared SWI/Undefined exception entry
// sequence: save CPSR to SPSR_<mode>, save the return address (adjusted
// by returnOffset from the already-advanced PC) to LR_<mode>, switch
// mode/state, mask IRQ, and jump to the vector (spec.md §4.1).
func (c *CPU) enterException(mode Mode, vector uint32, returnOffset uint32) {
	returnPC := c.regs.PC()
	if c.regs.Thumb() {
		// PC already points one instruction past the one that trapped
		// (THUMB fetch increments by 2); align the saved offset to the
		// ARM-relative convention used by BIOS return sequences.
		returnPC = returnPC - 2 + returnOffset
	} else {
		returnPC = returnPC - 4 + returnOffset
	}
	c.enterExceptionAt(mode, vector, returnPC)
}

// enterExceptionAt runs the entry sequence with an already-computed
// return address, for exceptions (IRQ/FIQ) raised before the current
// instruction's PC advance rather than after it.
func (c *CPU) enterExceptionAt(mode Mode, vector uint32, returnPC uint32) {
	oldCPSR := c.regs.CPSR()
	c.regs.ChangeMode(mode)
	c.regs.SetSPSR(oldCPSR)
	c.regs.SetReg(14, returnPC)
	c.regs.SetThumb(false)
	newCPSR := c.regs.CPSR() | flagI
	if mode == ModeFIQ {
		newCPSR |= flagF
	}
	c.regs.SetCPSR((newCPSR &^ 0x1F) | uint32(mode))
	c.regs.SetPC(vector)
}

// raiseUndefined is called by the ARM/THUMB decoders on an unrecognized
// opcode. Per spec.md §7 this is never fatal to the core.
func (c *CPU) raiseUndefined() int {
	c.enterException(ModeUndefined, vectorUndefined, 4)
	return 4
}

// raiseSWI services `SWI #imm`. If a shim is installed it runs instead of
// the ARM exception entry (spec.md §4.8); otherwise the real SVC vector
// is taken so a loaded BIOS image can service it.
func (c *CPU) raiseSWI(number uint8) int {
	if c.swiShim != nil {
		return c.swiShim(c, number)
	}
	c.enterException(ModeSupervisor, vectorSWI, 4)
	return 4
}

// condHolds evaluates a 4-bit ARM condition code against the current
// flags (spec.md §4.1 Condition evaluation).
func (c *CPU) condHolds(cond uint8) bool {
	n, z, cc, v := c.regs.FlagN(), c.regs.FlagZ(), c.regs.FlagC(), c.regs.FlagV()
	switch cond {
	case 0x0:
		return z // EQ
	case 0x1:
		return !z // NE
	case 0x2:
		return cc // CS/HS
	case 0x3:
		return !cc // CC/LO
	case 0x4:
		return n // MI
	case 0x5:
		return !n // PL
	case 0x6:
		return v // VS
	case 0x7:
		return !v // VC
	case 0x8:
		return cc && !z // HI
	case 0x9:
		return !cc || z // LS
	case 0xA:
		return n == v // GE
	case 0xB:
		return n != v // LT
	case 0xC:
		return !z && n == v // GT
	case 0xD:
		return z || n != v // LE
	case 0xE:
		return true // AL
	default:
		return false // NV: never execute (spec.md §4.1)
	}
}

// readRegPipelined returns register n's value as seen by an instruction
// operand: ordinary registers read as-is, r15 reads as the pipelined PC
// (spec.md §3 PC pipeline-ahead offset).
func (c *CPU) readRegPipelined(n uint8, thumb bool) uint32 {
	if n != 15 {
		return c.regs.GetReg(n)
	}
	if thumb {
		return c.regs.PC() + (thumbPCOffset - 2)
	}
	return c.regs.PC() + (armPCOffset - 4)
}
