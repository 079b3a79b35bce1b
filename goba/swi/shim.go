// Package swi implements a BIOS HLE shim: the set of `SWI #imm` calls a
// commercial GBA game relies on, serviced in Go rather than by executing
// real BIOS code (spec.md §4.8).
//
// Grounded on the teacher's jeebie/cpu package's callback-based op
// dispatch style, generalized from Z80 RST vectors to ARM's r0-r3
// calling convention, per original_source/gba-arm7tdmi/src/bios.rs.
package swi

import "github.com/hajimari/goba/goba/cpu"

// Bus is the narrow memory contract the shim needs for CpuSet/LZ77/RL
// decompression. cpu.Bus already satisfies this.
type Bus interface {
	Read8(address uint32) uint8
	Read16(address uint32) uint16
	Read32(address uint32) uint32
	Write8(address uint32, value uint8)
	Write16(address uint32, value uint16)
	Write32(address uint32, value uint32)
}

const (
	swiSoftReset          = 0x00
	swiHalt               = 0x02
	swiStop               = 0x03
	swiIntrWait           = 0x04
	swiVBlankIntrWait     = 0x05
	swiDiv                = 0x06
	swiDivArm             = 0x07
	swiSqrt               = 0x08
	swiArcTan             = 0x09
	swiArcTan2            = 0x0A
	swiCpuSet             = 0x0B
	swiCpuFastSet         = 0x0C
	swiBitUnPack          = 0x10
	swiLZ77UnCompWram     = 0x11
	swiLZ77UnCompVram     = 0x12
	swiRLUnCompWram       = 0x14
	swiRLUnCompVram       = 0x15
)

// Shim dispatches SWI numbers against r0-r3 arguments. Install with
// cpu.CPU.SetSWIShim(shim.Handle).
type Shim struct{}

// New returns a ready-to-install shim.
func New() *Shim { return &Shim{} }

// Handle is installed via cpu.CPU.SetSWIShim and implements the BIOS
// call set spec.md §4.8 names. Unknown numbers are a no-op.
func (s *Shim) Handle(c *cpu.CPU, number uint8) int {
	regs := c.Regs()
	bus := c.Bus()

	switch number {
	case swiSoftReset:
		c.Reset()
		return 4
	case swiHalt:
		c.SetHalted(true)
		return 4
	case swiStop:
		c.SetHalted(true)
		return 4
	case swiIntrWait, swiVBlankIntrWait:
		c.SetHalted(true)
		return 4
	case swiDiv, swiDivArm:
		div(regs, number == swiDivArm)
		return 4
	case swiSqrt:
		regs.SetReg(0, isqrt(regs.GetReg(0)))
		return 4
	case swiArcTan:
		regs.SetReg(0, arctan(int32(regs.GetReg(0))))
		return 4
	case swiArcTan2:
		regs.SetReg(0, arctan2(int32(regs.GetReg(0)), int32(regs.GetReg(1))))
		return 4
	case swiCpuSet:
		cpuSet(bus, regs.GetReg(0), regs.GetReg(1), regs.GetReg(2))
		return 4
	case swiCpuFastSet:
		cpuFastSet(bus, regs.GetReg(0), regs.GetReg(1), regs.GetReg(2))
		return 4
	case swiBitUnPack:
		bitUnPack(bus, regs.GetReg(0), regs.GetReg(1), regs.GetReg(2))
		return 4
	case swiLZ77UnCompWram, swiLZ77UnCompVram:
		lz77Uncomp(bus, regs.GetReg(0), regs.GetReg(1))
		return 4
	case swiRLUnCompWram, swiRLUnCompVram:
		rlUncomp(bus, regs.GetReg(0), regs.GetReg(1))
		return 4
	default:
		return 4 // unimplemented SWI: no-op (spec.md §4.8)
	}
}

// div implements SWI 0x06/0x07: signed 32-bit division of r0 by r1 (r1 by
// r0 for DivArm), quotient/remainder/abs(quotient) returned in r0, r1, r3.
// Division by zero leaves the quotient unspecified but does not trap.
func div(regs *cpu.Registers, isDivArm bool) {
	var num, den int32
	if isDivArm {
		den = int32(regs.GetReg(0))
		num = int32(regs.GetReg(1))
	} else {
		num = int32(regs.GetReg(0))
		den = int32(regs.GetReg(1))
	}
	if den == 0 {
		regs.SetReg(0, uint32(num))
		regs.SetReg(1, 0)
		regs.SetReg(3, uint32(abs32(num)))
		return
	}
	q := num / den
	r := num % den
	regs.SetReg(0, uint32(q))
	regs.SetReg(1, uint32(r))
	regs.SetReg(3, uint32(abs32(q)))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func isqrt(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	x := v
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + v/x) / 2
	}
	return x
}
