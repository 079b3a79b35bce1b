package interrupt

import (
	"testing"

	"github.com/hajimari/goba/goba/addr"
	"github.com/stretchr/testify/assert"
)

// TestWriteOneToClear is spec.md §8's IF invariant: writing 1 to an IF
// bit clears it; writing 0 leaves it.
func TestWriteOneToClear(t *testing.T) {
	c := New()
	c.Request(addr.VBlank)
	c.Request(addr.Timer0)
	assert.Equal(t, uint16(addr.VBlank|addr.Timer0), c.ReadIF())

	c.WriteIF(uint16(addr.VBlank))
	assert.Equal(t, uint16(addr.Timer0), c.ReadIF(), "writing 1 clears only that bit")

	c.WriteIF(0)
	assert.Equal(t, uint16(addr.Timer0), c.ReadIF(), "writing 0 leaves bits untouched")
}

func TestPendingRequiresIMEAndEnable(t *testing.T) {
	c := New()
	c.Request(addr.VBlank)
	assert.False(t, c.Pending(), "IME disabled: not pending")

	c.WriteIME(1)
	assert.False(t, c.Pending(), "IE not set: not pending")

	c.WriteIE(uint16(addr.VBlank))
	assert.True(t, c.Pending())
}

func TestResetClearsEverything(t *testing.T) {
	c := New()
	c.Request(addr.DMA0)
	c.WriteIE(0xFFFF)
	c.WriteIME(1)
	c.Reset()
	assert.Equal(t, uint16(0), c.ReadIF())
	assert.Equal(t, uint16(0), c.ReadIE())
	assert.False(t, c.ReadIME())
}
