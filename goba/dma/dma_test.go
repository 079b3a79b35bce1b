package dma

import (
	"testing"

	"github.com/hajimari/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

// fakeBus is a flat byte map behind the 16/32-bit dma.Bus contract.
type fakeBus struct{ mem map[uint32]uint8 }

func newFakeBus() *fakeBus { return &fakeBus{mem: make(map[uint32]uint8)} }

func (b *fakeBus) Read16(a uint32) uint16 {
	return uint16(b.mem[a]) | uint16(b.mem[a+1])<<8
}
func (b *fakeBus) Read32(a uint32) uint32 {
	return uint32(b.Read16(a)) | uint32(b.Read16(a+2))<<16
}
func (b *fakeBus) Write16(a uint32, v uint16) {
	b.mem[a] = uint8(v)
	b.mem[a+1] = uint8(v >> 8)
}
func (b *fakeBus) Write32(a uint32, v uint32) {
	b.Write16(a, uint16(v))
	b.Write16(a+2, uint16(v>>16))
}

// TestImmediateHalfwordTransfer is spec.md §8 scenario 5: an immediate
// DMA0 transfer of two halfwords from EWRAM+0x100 to IWRAM+0 lands
// {0xAA,0xAA,0xBB,0xBB} in IWRAM.
func TestImmediateHalfwordTransfer(t *testing.T) {
	bus := newFakeBus()
	bus.Write16(addr.EWRAMBase+0x100, 0xAAAA)
	bus.Write16(addr.EWRAMBase+0x102, 0xBBBB)

	c := New(bus, nil)
	c.WriteRegister(addr.DMA0SAD, 32, addr.EWRAMBase+0x100)
	c.WriteRegister(addr.DMA0DAD, 32, addr.IWRAMBase)
	c.WriteRegister(addr.DMA0CNT_L, 16, 2)
	c.WriteRegister(addr.DMA0CNT_H, 16, 1<<15) // enable, immediate, 16-bit, increment/increment

	c.Tick(TimingImmediate)

	assert.Equal(t, uint8(0xAA), bus.mem[addr.IWRAMBase])
	assert.Equal(t, uint8(0xAA), bus.mem[addr.IWRAMBase+1])
	assert.Equal(t, uint8(0xBB), bus.mem[addr.IWRAMBase+2])
	assert.Equal(t, uint8(0xBB), bus.mem[addr.IWRAMBase+3])
}

// TestOneShotClearsEnable covers spec.md §4.7's non-repeat behavior: a
// non-repeating channel clears its own enable bit after running once.
func TestOneShotClearsEnable(t *testing.T) {
	bus := newFakeBus()
	c := New(bus, nil)
	c.WriteRegister(addr.DMA0SAD, 32, addr.EWRAMBase)
	c.WriteRegister(addr.DMA0DAD, 32, addr.IWRAMBase)
	c.WriteRegister(addr.DMA0CNT_L, 16, 1)
	c.WriteRegister(addr.DMA0CNT_H, 16, 1<<15)

	c.Tick(TimingImmediate)
	assert.Equal(t, uint16(0), c.ReadRegister(addr.DMA0CNT_H)&(1<<15))
}

// TestSoundFIFOAlwaysMovesFourWords covers spec.md §4.7's fixed-size
// special case for the Direct Sound FIFO channels, ignoring the
// programmed count.
func TestSoundFIFOAlwaysMovesFourWords(t *testing.T) {
	bus := newFakeBus()
	for i := uint32(0); i < 16; i += 4 {
		bus.Write32(addr.EWRAMBase+i, 0x11111111*(i/4+1))
	}

	var refilled int
	var refillDst uint32
	c := New(bus, nil)
	c.FifoRefill = func(channel int, dst uint32) {
		refilled = channel
		refillDst = dst
	}
	c.WriteRegister(addr.DMA1SAD, 32, addr.EWRAMBase)
	c.WriteRegister(addr.DMA1SAD+4, 32, addr.IWRAMBase)
	c.WriteRegister(addr.DMA1SAD+8, 16, 1) // programmed count is irrelevant for FIFO timing
	c.WriteRegister(addr.DMA1SAD+10, 16, 1<<15|3<<12)

	c.TickChannel(1, TimingSpecial)

	assert.Equal(t, uint32(0x11111111), bus.Read32(addr.IWRAMBase))
	assert.Equal(t, 1, refilled)
	assert.Equal(t, addr.IWRAMBase, refillDst)
}
