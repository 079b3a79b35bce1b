package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetKeyStatePolarityIsInverted(t *testing.T) {
	k := New()
	k.SetKeyState(1 << A)
	assert.Equal(t, uint16(0x03FF&^(1<<A)), k.ReadKEYINPUT(), "pressed A must clear its KEYINPUT bit")
}

func TestSetKeyTogglesSingleBit(t *testing.T) {
	k := New()
	k.SetKey(Start, true)
	assert.False(t, k.ReadKEYINPUT()&(1<<Start) != 0)
	k.SetKey(Start, false)
	assert.True(t, k.ReadKEYINPUT()&(1<<Start) != 0)
}

// TestIRQCombinationLogic covers spec.md §4.10's AND/OR KEYCNT semantics.
func TestIRQCombinationLogic(t *testing.T) {
	k := New()
	k.SetKey(A, true)
	k.SetKey(B, true)

	k.WriteKEYCNT(1<<14 | 1<<15 | (1 << A) | (1 << B)) // IRQ enable, AND, A+B
	assert.True(t, k.IRQPending())

	k.SetKey(B, false)
	assert.False(t, k.IRQPending(), "AND mode requires every selected button")

	k.WriteKEYCNT(1<<14 | (1 << A) | (1 << B)) // OR mode
	assert.True(t, k.IRQPending(), "OR mode fires with only A held")
}

func TestIRQDisabledWhenEnableBitClear(t *testing.T) {
	k := New()
	k.SetKey(A, true)
	k.WriteKEYCNT(1 << A) // selected but IRQ not enabled
	assert.False(t, k.IRQPending())
}
