// Package timer implements the four cascadable 16-bit timer channels
// (spec.md §4.6), grounded on the teacher's single free-running DIV/TIMA
// counter in jeebie/memory/timer.go, generalized from one channel with a
// fixed divider table to four channels with cascade.
package timer

import "github.com/hajimari/goba/goba/addr"

var prescalerCycles = [4]uint32{1, 64, 256, 1024}

// Channel is one TMxCNT_L/H pair plus the running counter state.
type Channel struct {
	counter  uint16
	reload   uint16
	control  uint16 // raw TMxCNT_H value
	subCycle uint32 // cycles accumulated toward the next prescaler tick
}

func (ch *Channel) prescaler() uint32 { return prescalerCycles[ch.control&0x3] }
func (ch *Channel) cascade() bool     { return ch.control&(1<<2) != 0 }
func (ch *Channel) irqEnabled() bool  { return ch.control&(1<<6) != 0 }
func (ch *Channel) enabled() bool     { return ch.control&(1<<7) != 0 }

// Block owns all four timer channels and the interrupt sink they report
// overflow to.
type Block struct {
	ch [4]Channel

	// Overflowed records, per channel, whether this channel overflowed on
	// the most recent Advance call; timer 0/1 overflow additionally
	// triggers Direct Sound FIFO refills wired by the bus (spec.md §4.5).
	Overflowed [4]bool

	requestIRQ func(addr.Interrupt)
}

func New(requestIRQ func(addr.Interrupt)) *Block {
	return &Block{requestIRQ: requestIRQ}
}

func (b *Block) Reset() {
	*b = Block{requestIRQ: b.requestIRQ}
}

var irqBits = [4]addr.Interrupt{addr.Timer0, addr.Timer1, addr.Timer2, addr.Timer3}

// Advance ticks every enabled, non-cascading channel by cycles, then
// propagates cascades through the chain in channel order.
func (b *Block) Advance(cycles uint32) {
	for i := range b.Overflowed {
		b.Overflowed[i] = false
	}
	for i := 0; i < 4; i++ {
		ch := &b.ch[i]
		if !ch.enabled() || ch.cascade() {
			continue
		}
		b.tick(i, cycles)
	}
}

func (b *Block) tick(i int, cycles uint32) {
	ch := &b.ch[i]
	ch.subCycle += cycles
	step := ch.prescaler()
	for ch.subCycle >= step {
		ch.subCycle -= step
		b.increment(i)
	}
}

// increment advances channel i's counter by one tick, handling overflow,
// reload, IRQ, and cascading into channel i+1.
func (b *Block) increment(i int) {
	ch := &b.ch[i]
	if ch.counter == 0xFFFF {
		ch.counter = ch.reload
		b.Overflowed[i] = true
		if ch.irqEnabled() && b.requestIRQ != nil {
			b.requestIRQ(irqBits[i])
		}
		if i < 3 {
			next := &b.ch[i+1]
			if next.enabled() && next.cascade() {
				b.increment(i + 1)
			}
		}
	} else {
		ch.counter++
	}
}

func (b *Block) ReadCNT_L(i int) uint16 { return b.ch[i].counter }
func (b *Block) ReadCNT_H(i int) uint16 { return b.ch[i].control }

func (b *Block) WriteCNT_L(i int, v uint16) { b.ch[i].reload = v }

// WriteCNT_H latches reload into the live counter on the enable 0->1
// edge (spec.md §4.6 "Enabling a timer latches the reload into the
// counter").
func (b *Block) WriteCNT_H(i int, v uint16) {
	ch := &b.ch[i]
	wasEnabled := ch.enabled()
	ch.control = v & 0xC7
	if !wasEnabled && ch.enabled() {
		ch.counter = ch.reload
		ch.subCycle = 0
	}
}

// ReadRegister/WriteRegister dispatch by absolute I/O address, the shape
// the bus uses for every peripheral (spec.md §4.2). width lets a
// byte-wide access (STRB, or the MMU's byte-decomposed fallback) target
// just the half of the 16-bit register the address addresses, instead of
// clobbering the whole register with a zero-extended single byte.
func (b *Block) ReadRegister(address uint32, width uint8) uint32 {
	i, high := decodeAddr(address)
	var v uint16
	if high {
		v = b.ReadCNT_H(i)
	} else {
		v = b.ReadCNT_L(i)
	}
	if width >= 16 {
		return uint32(v)
	}
	if address&1 != 0 {
		return uint32(v >> 8)
	}
	return uint32(v & 0xFF)
}

func (b *Block) WriteRegister(address uint32, width uint8, v uint32) {
	i, high := decodeAddr(address)
	byteOffset := address & 1
	if high {
		b.WriteCNT_H(i, mergeReg16(b.ch[i].control, byteOffset, width, v))
	} else {
		b.WriteCNT_L(i, mergeReg16(b.ch[i].reload, byteOffset, width, v))
	}
}

// mergeReg16 folds a possibly byte-wide write into the existing 16-bit
// register value at the given byte offset, so a two-step byte-decomposed
// 16-bit write reassembles instead of the second byte clobbering the
// first (spec.md §4.2, §8 Timer reload law).
func mergeReg16(cur uint16, byteOffset uint32, width uint8, v uint32) uint16 {
	if width >= 16 {
		return uint16(v)
	}
	shift := byteOffset * 8
	mask := uint16(0xFF) << shift
	return (cur &^ mask) | (uint16(v)&0xFF)<<shift
}

func decodeAddr(address uint32) (channel int, high bool) {
	offset := address - addr.TimerStart
	return int(offset / 4), offset%4 >= 2
}
