package cpu

// THUMB decode/execute: the 19 16-bit instruction formats (spec.md §4.1).
//
// thumbTable mirrors armTable's approach: classification is precomputed
// over the opcode's top 10 bits (bits 15-6, the bits that distinguish
// every format), keyed into a 1024-entry table per spec.md §9; the
// per-format exec functions re-decode the full opcode for field-level
// detail.

type thumbFormat uint8

const (
	fmtMoveShifted thumbFormat = iota
	fmtAddSub
	fmtImmediate
	fmtALU
	fmtHiReg
	fmtPCRelLoad
	fmtLoadStoreReg
	fmtLoadStoreSext
	fmtLoadStoreImm
	fmtLoadStoreHalf
	fmtSPRelLoadStore
	fmtLoadAddr
	fmtAddSP
	fmtPushPop
	fmtMultipleLoadStore
	fmtCondBranch
	fmtSWI
	fmtUncondBranch
	fmtLongBranchLink
)

var thumbTable [1024]thumbFormat

func init() {
	for idx := 0; idx < len(thumbTable); idx++ {
		thumbTable[idx] = classifyThumb(uint16(idx) << 6)
	}
}

func classifyThumb(top16 uint16) thumbFormat {
	switch {
	case top16&0xF800 == 0x1800:
		return fmtAddSub
	case top16&0xE000 == 0x0000:
		return fmtMoveShifted
	case top16&0xE000 == 0x2000:
		return fmtImmediate
	case top16&0xFC00 == 0x4000:
		return fmtALU
	case top16&0xFC00 == 0x4400:
		return fmtHiReg
	case top16&0xF800 == 0x4800:
		return fmtPCRelLoad
	case top16&0xF200 == 0x5000:
		return fmtLoadStoreReg
	case top16&0xF200 == 0x5200:
		return fmtLoadStoreSext
	case top16&0xE000 == 0x6000:
		return fmtLoadStoreImm
	case top16&0xF000 == 0x8000:
		return fmtLoadStoreHalf
	case top16&0xF000 == 0x9000:
		return fmtSPRelLoadStore
	case top16&0xF000 == 0xA000:
		return fmtLoadAddr
	case top16&0xFF00 == 0xB000:
		return fmtAddSP
	case top16&0xF600 == 0xB400:
		return fmtPushPop
	case top16&0xF000 == 0xC000:
		return fmtMultipleLoadStore
	case top16&0xFF00 == 0xDF00:
		return fmtSWI
	case top16&0xF000 == 0xD000:
		return fmtCondBranch
	case top16&0xF800 == 0xE000:
		return fmtUncondBranch
	case top16&0xF000 == 0xF000:
		return fmtLongBranchLink
	default:
		return fmtMoveShifted
	}
}

func (c *CPU) stepThumb() int {
	pc := c.regs.PC()
	opcode := uint32(c.bus.Read16(pc &^ 1))
	c.regs.SetPC(pc + 2)

	idx := opcode >> 6
	switch thumbTable[idx] {
	case fmtMoveShifted:
		return c.execThumbMoveShifted(opcode)
	case fmtAddSub:
		return c.execThumbAddSub(opcode)
	case fmtImmediate:
		return c.execThumbImmediate(opcode)
	case fmtALU:
		return c.execThumbALU(opcode)
	case fmtHiReg:
		return c.execThumbHiReg(opcode)
	case fmtPCRelLoad:
		return c.execThumbPCRelLoad(opcode)
	case fmtLoadStoreReg:
		return c.execThumbLoadStoreReg(opcode)
	case fmtLoadStoreSext:
		return c.execThumbLoadStoreSext(opcode)
	case fmtLoadStoreImm:
		return c.execThumbLoadStoreImm(opcode)
	case fmtLoadStoreHalf:
		return c.execThumbLoadStoreHalf(opcode)
	case fmtSPRelLoadStore:
		return c.execThumbSPRelLoadStore(opcode)
	case fmtLoadAddr:
		return c.execThumbLoadAddr(opcode)
	case fmtAddSP:
		return c.execThumbAddSP(opcode)
	case fmtPushPop:
		return c.execThumbPushPop(opcode)
	case fmtMultipleLoadStore:
		return c.execThumbMultipleLoadStore(opcode)
	case fmtCondBranch:
		return c.execThumbCondBranch(opcode)
	case fmtSWI:
		return c.raiseSWI(uint8(opcode & 0xFF))
	case fmtUncondBranch:
		return c.execThumbUncondBranch(opcode)
	case fmtLongBranchLink:
		return c.execThumbLongBranchLink(opcode)
	default:
		return c.raiseUndefined()
	}
}

func thumbPCBase(c *CPU) uint32 {
	return (c.regs.PC() + 2) &^ 3
}

func (c *CPU) execThumbMoveShifted(opcode uint32) int {
	op := uint8((opcode >> 11) & 0x3)
	offset := uint8((opcode >> 6) & 0x1F)
	rs := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)

	value := c.regs.GetReg(rs)
	var res shiftResult
	switch op {
	case 0:
		res = lsl(value, offset, c.regs.FlagC())
	case 1:
		res = barrelShift(shiftLSR, value, offset, c.regs.FlagC(), true)
	case 2:
		res = barrelShift(shiftASR, value, offset, c.regs.FlagC(), true)
	default:
		res = shiftResult{value: value, carry: c.regs.FlagC()}
	}
	c.regs.SetReg(rd, res.value)
	c.regs.SetFlags(res.value&(1<<31) != 0, res.value == 0, res.carry, c.regs.FlagV())
	return 1
}

func (c *CPU) execThumbAddSub(opcode uint32) int {
	immediate := opcode&(1<<10) != 0
	sub := opcode&(1<<9) != 0
	field := uint8((opcode >> 6) & 0x7)
	rs := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)

	var operand2 uint32
	if immediate {
		operand2 = uint32(field)
	} else {
		operand2 = c.regs.GetReg(field)
	}

	op1 := c.regs.GetReg(rs)
	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = addWithCarry(op1, ^operand2, true)
	} else {
		result, carry, overflow = addWithCarry(op1, operand2, false)
	}
	c.regs.SetReg(rd, result)
	c.regs.SetFlags(result&(1<<31) != 0, result == 0, carry, overflow)
	return 1
}

func (c *CPU) execThumbImmediate(opcode uint32) int {
	op := uint8((opcode >> 11) & 0x3)
	rd := uint8((opcode >> 8) & 0x7)
	imm := opcode & 0xFF

	op1 := c.regs.GetReg(rd)
	switch op {
	case 0: // MOV
		c.regs.SetReg(rd, imm)
		c.regs.SetFlags(false, imm == 0, c.regs.FlagC(), c.regs.FlagV())
	case 1: // CMP
		result, carry, overflow := addWithCarry(op1, ^imm, true)
		c.regs.SetFlags(result&(1<<31) != 0, result == 0, carry, overflow)
	case 2: // ADD
		result, carry, overflow := addWithCarry(op1, imm, false)
		c.regs.SetReg(rd, result)
		c.regs.SetFlags(result&(1<<31) != 0, result == 0, carry, overflow)
	case 3: // SUB
		result, carry, overflow := addWithCarry(op1, ^imm, true)
		c.regs.SetReg(rd, result)
		c.regs.SetFlags(result&(1<<31) != 0, result == 0, carry, overflow)
	}
	return 1
}

func (c *CPU) execThumbALU(opcode uint32) int {
	op := (opcode >> 6) & 0xF
	rs := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)

	op1 := c.regs.GetReg(rd)
	rsVal := c.regs.GetReg(rs)

	var result uint32
	carry, overflow := c.regs.FlagC(), c.regs.FlagV()
	write := true
	touchCV := false

	switch op {
	case 0x0: // AND
		result = op1 & rsVal
	case 0x1: // EOR
		result = op1 ^ rsVal
	case 0x2: // LSL
		r := lsl(op1, uint8(rsVal&0xFF), c.regs.FlagC())
		result, carry, touchCV = r.value, r.carry, true
	case 0x3: // LSR
		r := barrelShift(shiftLSR, op1, uint8(rsVal&0xFF), c.regs.FlagC(), false)
		result, carry, touchCV = r.value, r.carry, true
	case 0x4: // ASR
		r := barrelShift(shiftASR, op1, uint8(rsVal&0xFF), c.regs.FlagC(), false)
		result, carry, touchCV = r.value, r.carry, true
	case 0x5: // ADC
		result, carry, overflow = addWithCarry(op1, rsVal, c.regs.FlagC())
		touchCV = true
	case 0x6: // SBC
		result, carry, overflow = addWithCarry(op1, ^rsVal, c.regs.FlagC())
		touchCV = true
	case 0x7: // ROR
		r := barrelShift(shiftROR, op1, uint8(rsVal&0xFF), c.regs.FlagC(), false)
		result, carry, touchCV = r.value, r.carry, true
	case 0x8: // TST
		result, write = op1&rsVal, false
	case 0x9: // NEG
		result, carry, overflow = addWithCarry(0, ^rsVal, true)
		touchCV = true
	case 0xA: // CMP
		result, carry, overflow = addWithCarry(op1, ^rsVal, true)
		write, touchCV = false, true
	case 0xB: // CMN
		result, carry, overflow = addWithCarry(op1, rsVal, false)
		write, touchCV = false, true
	case 0xC: // ORR
		result = op1 | rsVal
	case 0xD: // MUL
		result = op1 * rsVal
	case 0xE: // BIC
		result = op1 &^ rsVal
	case 0xF: // MVN
		result = ^rsVal
	}

	if write {
		c.regs.SetReg(rd, result)
	}
	if touchCV {
		c.regs.SetFlags(result&(1<<31) != 0, result == 0, carry, overflow)
	} else {
		c.regs.SetFlags(result&(1<<31) != 0, result == 0, c.regs.FlagC(), c.regs.FlagV())
	}
	return 1
}

func (c *CPU) execThumbHiReg(opcode uint32) int {
	op := (opcode >> 8) & 0x3
	h1 := opcode&(1<<7) != 0
	h2 := opcode&(1<<6) != 0
	rs := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	rsVal := c.readRegPipelined(rs, true)

	switch op {
	case 0: // ADD
		result := c.regs.GetReg(rd) + rsVal
		c.regs.SetReg(rd, result)
		if rd == 15 {
			c.regs.SetPC(result &^ 1)
		}
	case 1: // CMP
		result, carry, overflow := addWithCarry(c.regs.GetReg(rd), ^rsVal, true)
		c.regs.SetFlags(result&(1<<31) != 0, result == 0, carry, overflow)
	case 2: // MOV
		c.regs.SetReg(rd, rsVal)
		if rd == 15 {
			c.regs.SetPC(rsVal &^ 1)
		}
	case 3: // BX (and BLX, treated identically; GBA code never uses BLX)
		c.regs.SetThumb(rsVal&1 != 0)
		if rsVal&1 != 0 {
			c.regs.SetPC(rsVal &^ 1)
		} else {
			c.regs.SetPC(rsVal &^ 3)
		}
	}
	return 2
}

func (c *CPU) execThumbPCRelLoad(opcode uint32) int {
	rd := uint8((opcode >> 8) & 0x7)
	word8 := opcode & 0xFF
	addr := thumbPCBase(c) + word8*4
	c.regs.SetReg(rd, c.bus.Read32(addr))
	return 2
}

func (c *CPU) execThumbLoadStoreReg(opcode uint32) int {
	l := opcode&(1<<11) != 0
	b := opcode&(1<<10) != 0
	ro := uint8((opcode >> 6) & 0x7)
	rb := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)
	addr := c.regs.GetReg(rb) + c.regs.GetReg(ro)
	switch {
	case l && b:
		c.regs.SetReg(rd, uint32(c.bus.Read8(addr)))
	case l && !b:
		c.regs.SetReg(rd, c.bus.Read32(addr))
	case !l && b:
		c.bus.Write8(addr, uint8(c.regs.GetReg(rd)))
	default:
		c.bus.Write32(addr, c.regs.GetReg(rd))
	}
	return 2
}

func (c *CPU) execThumbLoadStoreSext(opcode uint32) int {
	h := opcode&(1<<11) != 0
	s := opcode&(1<<10) != 0
	ro := uint8((opcode >> 6) & 0x7)
	rb := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)
	addr := c.regs.GetReg(rb) + c.regs.GetReg(ro)
	switch {
	case !h && !s: // STRH
		c.bus.Write16(addr, uint16(c.regs.GetReg(rd)))
	case !h && s: // LDSB
		c.regs.SetReg(rd, signExtend8(c.bus.Read8(addr)))
	case h && !s: // LDRH
		c.regs.SetReg(rd, uint32(c.bus.Read16(addr)))
	default: // LDSH
		c.regs.SetReg(rd, signExtend16(c.bus.Read16(addr)))
	}
	return 2
}

func (c *CPU) execThumbLoadStoreImm(opcode uint32) int {
	b := opcode&(1<<12) != 0
	l := opcode&(1<<11) != 0
	offset5 := (opcode >> 6) & 0x1F
	rb := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)

	var addr uint32
	if b {
		addr = c.regs.GetReg(rb) + offset5
	} else {
		addr = c.regs.GetReg(rb) + offset5*4
	}
	switch {
	case l && b:
		c.regs.SetReg(rd, uint32(c.bus.Read8(addr)))
	case l && !b:
		c.regs.SetReg(rd, c.bus.Read32(addr))
	case !l && b:
		c.bus.Write8(addr, uint8(c.regs.GetReg(rd)))
	default:
		c.bus.Write32(addr, c.regs.GetReg(rd))
	}
	return 2
}

func (c *CPU) execThumbLoadStoreHalf(opcode uint32) int {
	l := opcode&(1<<11) != 0
	offset5 := (opcode >> 6) & 0x1F
	rb := uint8((opcode >> 3) & 0x7)
	rd := uint8(opcode & 0x7)
	addr := c.regs.GetReg(rb) + offset5*2
	if l {
		c.regs.SetReg(rd, uint32(c.bus.Read16(addr)))
	} else {
		c.bus.Write16(addr, uint16(c.regs.GetReg(rd)))
	}
	return 2
}

func (c *CPU) execThumbSPRelLoadStore(opcode uint32) int {
	l := opcode&(1<<11) != 0
	rd := uint8((opcode >> 8) & 0x7)
	word8 := opcode & 0xFF
	addr := c.regs.GetReg(13) + word8*4
	if l {
		c.regs.SetReg(rd, c.bus.Read32(addr))
	} else {
		c.bus.Write32(addr, c.regs.GetReg(rd))
	}
	return 2
}

func (c *CPU) execThumbLoadAddr(opcode uint32) int {
	sp := opcode&(1<<11) != 0
	rd := uint8((opcode >> 8) & 0x7)
	word8 := opcode & 0xFF
	var base uint32
	if sp {
		base = c.regs.GetReg(13)
	} else {
		base = thumbPCBase(c)
	}
	c.regs.SetReg(rd, base+word8*4)
	return 1
}

func (c *CPU) execThumbAddSP(opcode uint32) int {
	negative := opcode&(1<<7) != 0
	sword7 := (opcode & 0x7F) * 4
	if negative {
		c.regs.SetReg(13, c.regs.GetReg(13)-sword7)
	} else {
		c.regs.SetReg(13, c.regs.GetReg(13)+sword7)
	}
	return 1
}

func (c *CPU) execThumbPushPop(opcode uint32) int {
	l := opcode&(1<<11) != 0
	storeExtra := opcode&(1<<8) != 0 // LR on push, PC on pop
	rlist := uint8(opcode & 0xFF)

	count := 0
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) != 0 {
			count++
		}
	}
	if storeExtra {
		count++
	}

	if l {
		addr := c.regs.GetReg(13)
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				c.regs.SetReg(uint8(i), c.bus.Read32(addr))
				addr += 4
			}
		}
		if storeExtra {
			target := c.bus.Read32(addr)
			c.regs.SetPC(target &^ 1)
			addr += 4
		}
		c.regs.SetReg(13, addr)
	} else {
		addr := c.regs.GetReg(13) - uint32(count)*4
		c.regs.SetReg(13, addr)
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				c.bus.Write32(addr, c.regs.GetReg(uint8(i)))
				addr += 4
			}
		}
		if storeExtra {
			c.bus.Write32(addr, c.regs.GetReg(14))
		}
	}
	return 2 + count
}

func (c *CPU) execThumbMultipleLoadStore(opcode uint32) int {
	l := opcode&(1<<11) != 0
	rb := uint8((opcode >> 8) & 0x7)
	rlist := uint8(opcode & 0xFF)

	addr := c.regs.GetReg(rb)
	count := 0
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) != 0 {
			count++
			if l {
				c.regs.SetReg(uint8(i), c.bus.Read32(addr))
			} else {
				c.bus.Write32(addr, c.regs.GetReg(uint8(i)))
			}
			addr += 4
		}
	}
	c.regs.SetReg(rb, addr)
	return 2 + count
}

func (c *CPU) execThumbCondBranch(opcode uint32) int {
	cond := uint8((opcode >> 8) & 0xF)
	offset := signExtendN(opcode&0xFF, 8) << 1
	if !c.condHolds(cond) {
		return 1
	}
	target := uint32(int64(c.readRegPipelined(15, true)) + int64(offset))
	c.regs.SetPC(target)
	return 3
}

func (c *CPU) execThumbUncondBranch(opcode uint32) int {
	offset := signExtendN(opcode&0x7FF, 11) << 1
	target := uint32(int64(c.readRegPipelined(15, true)) + int64(offset))
	c.regs.SetPC(target)
	return 3
}

func (c *CPU) execThumbLongBranchLink(opcode uint32) int {
	h := opcode&(1<<11) != 0
	offset := opcode & 0x7FF
	if !h {
		high := signExtendN(offset, 11) << 12
		c.regs.SetReg(14, uint32(int64(c.readRegPipelined(15, true))+int64(high)))
		return 1
	}
	target := c.regs.GetReg(14) + offset<<1
	c.regs.SetReg(14, c.regs.PC()|1)
	c.regs.SetPC(target)
	return 3
}
