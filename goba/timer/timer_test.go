package timer

import (
	"testing"

	"github.com/hajimari/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

// TestOverflowReloadsAndSetsIRQ is spec.md §8's timer invariant: the
// counter reaches 0xFFFF, then the next tick reloads and sets IF if
// enabled.
func TestOverflowReloadsAndSetsIRQ(t *testing.T) {
	var fired []addr.Interrupt
	b := New(func(i addr.Interrupt) { fired = append(fired, i) })

	b.WriteCNT_L(0, 0xFFFE)
	b.WriteCNT_H(0, 1<<7|1<<6) // enable + IRQ, prescaler /1

	b.Advance(1) // 0xFFFE -> 0xFFFF
	assert.Equal(t, uint16(0xFFFF), b.ReadCNT_L(0))
	assert.Empty(t, fired)

	b.Advance(1) // overflow -> reload
	assert.Equal(t, uint16(0xFFFE), b.ReadCNT_L(0))
	assert.Equal(t, []addr.Interrupt{addr.Timer0}, fired)
	assert.True(t, b.Overflowed[0])
}

// TestCascadeOnlyOnOverflow is spec.md §8's cascade invariant: a
// cascading channel counts up iff the previous channel overflowed this
// step.
func TestCascadeOnlyOnOverflow(t *testing.T) {
	b := New(nil)
	b.WriteCNT_L(0, 0xFFFF)
	b.WriteCNT_H(0, 1<<7) // enabled, prescaler /1, no IRQ; latches counter to 0xFFFF
	b.WriteCNT_L(0, 0)    // reload for after this overflow is 0, so it won't overflow again next tick

	b.WriteCNT_L(1, 10)
	b.WriteCNT_H(1, 1<<7|1<<2) // enabled + cascade

	b.Advance(1) // ch0 overflows, ch1 (cascade) should tick once
	assert.True(t, b.Overflowed[0])
	assert.Equal(t, uint16(11), b.ReadCNT_L(1))
	assert.Equal(t, uint16(0), b.ReadCNT_L(0))

	b.Advance(1) // ch0 no longer at 0xFFFF; ch1 must not tick
	assert.Equal(t, uint16(11), b.ReadCNT_L(1))
}

// TestEnableLatchesReload covers "enabling a timer latches the reload
// into the counter" (spec.md §4.6).
func TestEnableLatchesReload(t *testing.T) {
	b := New(nil)
	b.WriteCNT_L(2, 0x1234)
	b.WriteCNT_H(2, 1<<7)
	assert.Equal(t, uint16(0x1234), b.ReadCNT_L(2))
}

func TestPrescalerGatesTicks(t *testing.T) {
	b := New(nil)
	b.WriteCNT_L(0, 0)
	b.WriteCNT_H(0, 1<<7|0x1) // prescaler /64
	b.Advance(63)
	assert.Equal(t, uint16(0), b.ReadCNT_L(0))
	b.Advance(1)
	assert.Equal(t, uint16(1), b.ReadCNT_L(0))
}
