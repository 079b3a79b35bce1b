// Package input models the GBA keypad: the 10-bit KEYINPUT register and
// the KEYCNT IRQ-on-combination logic.
//
// Adapted from the teacher's memory.JoypadKey/HandleKeyPress model, but
// the GBA keypad is a single flat 10-bit "0 = pressed" register with no
// selector nibble (the DMG's P1 multiplexes buttons/d-pad onto 4 bits).
package input

import "github.com/hajimari/goba/goba/addr"

// Key identifies one of the ten GBA buttons, ordered to match KEYINPUT
// bit positions (spec.md §6).
type Key uint8

const (
	A Key = iota
	B
	Select
	Start
	Right
	Left
	Up
	Down
	R
	L
)

// Keypad tracks button state and raises the Keypad interrupt when the
// configured IRQ condition in KEYCNT is met.
type Keypad struct {
	state uint16 // 1 = released, matches KEYINPUT polarity
	cnt   uint16
}

// New returns a keypad with every button released.
func New() *Keypad {
	return &Keypad{state: 0x03FF}
}

// SetKeyState overwrites the full 10-bit "pressed" mask (1 = pressed,
// host-facing convention) in one call, the shape the frontend naturally
// produces each frame from polled input events.
func (k *Keypad) SetKeyState(pressedMask uint16) {
	k.state = ^pressedMask & 0x03FF
}

// SetKey updates a single button.
func (k *Keypad) SetKey(key Key, pressed bool) {
	bitMask := uint16(1) << uint(key)
	if pressed {
		k.state &^= bitMask
	} else {
		k.state |= bitMask
	}
}

// ReadKEYINPUT returns the raw KEYINPUT register value.
func (k *Keypad) ReadKEYINPUT() uint16 {
	return k.state & 0x03FF
}

func (k *Keypad) ReadKEYCNT() uint16  { return k.cnt }
func (k *Keypad) WriteKEYCNT(v uint16) { k.cnt = v }

// IRQPending evaluates KEYCNT against the current button state: bit 14
// is the IRQ enable, bit 15 selects AND (1) vs OR (0) combination of the
// selected buttons in bits 0-9.
func (k *Keypad) IRQPending() bool {
	if k.cnt&(1<<14) == 0 {
		return false
	}
	selected := k.cnt & 0x03FF
	pressed := (^k.state) & 0x03FF
	if k.cnt&(1<<15) != 0 {
		// AND mode: all selected buttons must be pressed.
		return selected != 0 && (pressed&selected) == selected
	}
	// OR mode: any selected button pressed.
	return pressed&selected != 0
}

// Address exposes the register addresses for the bus dispatcher.
var Address = struct {
	KEYINPUT uint32
	KEYCNT   uint32
}{addr.KEYINPUT, addr.KEYCNT}
