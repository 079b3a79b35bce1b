// Package interrupt implements the GBA interrupt controller: IE, IF, IME
// and the aggregate pending test the CPU polls once per step.
package interrupt

import "github.com/hajimari/goba/goba/addr"

// Controller holds IE/IF/IME and the W1C semantics of IF.
//
// Grounded on original_source/gba-core/src/interrupt.rs, generalized from
// the teacher's single-bit-at-a-time jeebie/memory.MMU.RequestInterrupt
// into a vector-flag model (GBA exposes IE/IF directly to software,
// unlike the DMG which only exposes a flag register for the CPU).
type Controller struct {
	ie  uint16
	iff uint16
	ime bool
}

// New returns a controller with all sources masked and IME disabled, the
// GBA power-on state.
func New() *Controller {
	return &Controller{}
}

// Reset clears all pending/enabled interrupts.
func (c *Controller) Reset() {
	c.ie = 0
	c.iff = 0
	c.ime = false
}

// Request sets the IF bit for source. Called by any component on its
// event edge (VBlank, HBlank, timer overflow, DMA completion, ...).
func (c *Controller) Request(source addr.Interrupt) {
	c.iff |= uint16(source)
}

// Pending reports whether the CPU should see an IRQ: (IE & IF) != 0 &&
// IME == 1. The CPU additionally ANDs this with CPSR.I == 0.
func (c *Controller) Pending() bool {
	return c.ime && (c.ie&c.iff) != 0
}

// PendingMask returns the set of sources that are both enabled and
// flagged.
func (c *Controller) PendingMask() uint16 {
	return c.ie & c.iff
}

func (c *Controller) ReadIE() uint16  { return c.ie }
func (c *Controller) ReadIF() uint16  { return c.iff }
func (c *Controller) ReadIME() bool   { return c.ime }

func (c *Controller) WriteIE(v uint16) { c.ie = v & 0x3FFF }

// WriteIF clears only the bits whose corresponding write value is 1
// (write-one-to-clear), per spec.md §4.3 and §8.
func (c *Controller) WriteIF(v uint16) {
	c.iff &^= v
}

func (c *Controller) WriteIME(v uint16) { c.ime = v&1 != 0 }
