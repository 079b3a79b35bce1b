// Package dma implements the four DMA channels (spec.md §4.7), grounded
// on the teacher's jeebie/memory OAM-DMA transfer loop generalized from a
// single fixed GDMA/HDMA pair to four independently configured channels
// with shadow-latching and timing triggers.
package dma

import "github.com/hajimari/goba/goba/addr"

// Timing is when a channel's transfer is eligible to run.
type Timing uint8

const (
	TimingImmediate Timing = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

// AddrMode controls how source/destination advance after each unit.
type AddrMode uint8

const (
	AddrIncrement AddrMode = iota
	AddrDecrement
	AddrFixed
	AddrIncrementReload // destination only
)

// Bus is the narrow memory contract DMA needs to move bytes.
type Bus interface {
	Read16(address uint32) uint16
	Read32(address uint32) uint32
	Write16(address uint32, value uint16)
	Write32(address uint32, value uint32)
}

type Channel struct {
	// Live registers as written by the CPU.
	src, dst uint32
	count    uint16
	control  uint16

	// Shadow copies latched on the enable 0->1 edge (spec.md §3
	// Invariants); the transfer always operates on these.
	shadowSrc, shadowDst uint32
	shadowCount          uint16

	pendingImmediate bool
	wasEnabled       bool
}

func (ch *Channel) enabled() bool       { return ch.control&(1<<15) != 0 }
func (ch *Channel) repeat() bool        { return ch.control&(1<<9) != 0 }
func (ch *Channel) wide() bool          { return ch.control&(1<<10) != 0 }
func (ch *Channel) irqOnComplete() bool { return ch.control&(1<<14) != 0 }
func (ch *Channel) timing() Timing      { return Timing((ch.control >> 12) & 0x3) }
func (ch *Channel) dstMode() AddrMode   { return AddrMode((ch.control >> 5) & 0x3) }
func (ch *Channel) srcMode() AddrMode   { return AddrMode((ch.control >> 7) & 0x3) }

// Controller owns the four channels, the bus they move bytes through,
// and the interrupt sink for completion IRQs.
type Controller struct {
	ch         [4]Channel
	bus        Bus
	requestIRQ func(addr.Interrupt)

	// FifoRefill, if set, is called after a sound-FIFO special DMA
	// (channel 1 or 2) has run, with the channel and its destination
	// address (spec.md §4.5).
	FifoRefill func(channel int, dst uint32)
}

func New(bus Bus, requestIRQ func(addr.Interrupt)) *Controller {
	return &Controller{bus: bus, requestIRQ: requestIRQ}
}

func (c *Controller) Reset() {
	*c = Controller{bus: c.bus, requestIRQ: c.requestIRQ, FifoRefill: c.FifoRefill}
}

var irqBits = [4]addr.Interrupt{addr.DMA0, addr.DMA1, addr.DMA2, addr.DMA3}

func regBase(i int) uint32 {
	switch i {
	case 0:
		return addr.DMA0SAD
	case 1:
		return addr.DMA1SAD
	case 2:
		return addr.DMA2SAD
	default:
		return addr.DMA3SAD
	}
}

// ReadRegister/WriteRegister dispatch by absolute I/O address.
func (c *Controller) WriteRegister(address uint32, width uint8, v uint32) {
	for i := 0; i < 4; i++ {
		base := regBase(i)
		switch address {
		case base, base + 1, base + 2, base + 3:
			c.writeField(&c.ch[i].src, base, address, width, v)
			return
		case base + 4, base + 5, base + 6, base + 7:
			c.writeField(&c.ch[i].dst, base+4, address, width, v)
			return
		case base + 8, base + 9:
			c.ch[i].count = writeField16(c.ch[i].count, base+8, address, width, v)
			return
		case base + 10, base + 11:
			c.writeControl(i, writeField16(c.ch[i].control, base+10, address, width, v))
			return
		}
	}
}

func (c *Controller) writeField(field *uint32, fieldBase, address uint32, width uint8, v uint32) {
	shift := (address - fieldBase) * 8
	mask := uint32(0xFF)
	if width == 16 {
		mask = 0xFFFF
	} else if width == 32 {
		mask = 0xFFFFFFFF
	}
	*field = (*field &^ (mask << shift)) | ((v & mask) << shift)
}

// writeField16 merges v into a 16-bit register at the byte offset
// address-fieldBase, the same offset+width reassembly writeField does for
// the 32-bit src/dst fields, so a byte-decomposed 16-bit write (the MMU's
// fallback when no single handler owns a whole aligned access) doesn't
// clobber the half it didn't touch.
func writeField16(cur uint16, fieldBase, address uint32, width uint8, v uint32) uint16 {
	if width >= 16 {
		return uint16(v)
	}
	shift := (address - fieldBase) * 8
	mask := uint16(0xFF) << shift
	return (cur &^ mask) | (uint16(v)&0xFF)<<shift
}

func (c *Controller) writeControl(i int, v uint16) {
	ch := &c.ch[i]
	wasEnabled := ch.enabled()
	ch.control = v
	if !wasEnabled && ch.enabled() {
		ch.shadowSrc = ch.src
		ch.shadowDst = ch.dst
		ch.shadowCount = ch.count
		if ch.timing() == TimingImmediate {
			ch.pendingImmediate = true
		}
	}
}

func (c *Controller) ReadRegister(address uint32) uint16 {
	for i := 0; i < 4; i++ {
		base := regBase(i)
		if address == base+10 || address == base+11 {
			return c.ch[i].control
		}
	}
	return 0
}

// Tick runs any channel now eligible under trigger (which timing kind
// just became pending), in ascending-priority (channel 0 first) order
// (spec.md §4.7, §5 ordering guarantees).
func (c *Controller) Tick(trigger Timing) {
	for i := 0; i < 4; i++ {
		c.TickChannel(i, trigger)
	}
}

// TickChannel runs channel i if it is enabled and eligible under
// trigger. Used for the sound-FIFO special trigger, which fires per
// channel according to which timer (TM0 or TM1) the APU reports
// overflowed, rather than every Special channel at once.
func (c *Controller) TickChannel(i int, trigger Timing) {
	ch := &c.ch[i]
	if !ch.enabled() {
		return
	}
	run := false
	if trigger == TimingImmediate && ch.pendingImmediate {
		run = true
	} else if ch.timing() == trigger && trigger != TimingImmediate {
		run = true
	}
	if run {
		ch.pendingImmediate = false
		c.runTransfer(i)
	}
}

func (c *Controller) runTransfer(i int) {
	ch := &c.ch[i]

	count := uint32(ch.shadowCount)
	if count == 0 {
		count = 0x10000
	}

	// Sound FIFO special timing always moves exactly 4 32-bit words,
	// regardless of the programmed count (spec.md §4.7).
	if ch.timing() == TimingSpecial && (i == 1 || i == 2) {
		count = 4
		for n := uint32(0); n < count; n++ {
			c.bus.Write32(ch.shadowDst, c.bus.Read32(ch.shadowSrc))
			ch.shadowSrc += 4
		}
		if c.FifoRefill != nil {
			c.FifoRefill(i, ch.shadowDst)
		}
	} else {
		width := uint32(2)
		if ch.wide() {
			width = 4
		}
		srcStep := stepFor(ch.srcMode(), width)
		dstStep := stepFor(ch.dstMode(), width)
		for n := uint32(0); n < count; n++ {
			if width == 4 {
				c.bus.Write32(ch.shadowDst, c.bus.Read32(ch.shadowSrc))
			} else {
				c.bus.Write16(ch.shadowDst, c.bus.Read16(ch.shadowSrc))
			}
			ch.shadowSrc = uint32(int64(ch.shadowSrc) + int64(srcStep))
			ch.shadowDst = uint32(int64(ch.shadowDst) + int64(dstStep))
		}
	}

	if ch.irqOnComplete() && c.requestIRQ != nil {
		c.requestIRQ(irqBits[i])
	}

	if ch.repeat() && ch.timing() != TimingImmediate {
		ch.shadowCount = ch.count
		if ch.dstMode() == AddrIncrementReload {
			ch.shadowDst = ch.dst
		}
	} else {
		ch.control &^= 1 << 15 // one-shot: clear enable
	}
}

func stepFor(mode AddrMode, width uint32) int32 {
	switch mode {
	case AddrIncrement, AddrIncrementReload:
		return int32(width)
	case AddrDecrement:
		return -int32(width)
	default:
		return 0
	}
}
