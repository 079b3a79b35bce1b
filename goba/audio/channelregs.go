package audio

import "github.com/hajimari/goba/goba/addr"

// readChannelRegister and writeChannelRegister dispatch the four legacy
// channels' control registers and wave RAM (spec.md §4.5).
func (a *APU) readChannelRegister(address uint32) uint32 {
	switch {
	case address >= addr.WAVE_RAM && address < addr.WAVE_RAM+16:
		return uint32(a.wave.ReadRAMByte(int(address - addr.WAVE_RAM)))
	}

	switch address &^ 1 {
	case addr.SOUND1CNT_L:
		return uint32(a.square1.sweepPeriod)<<4 | boolBit(a.square1.sweepDecreasing, 3) | uint32(a.square1.sweepShift)
	case addr.SOUND1CNT_H, addr.SOUND2CNT_L:
		return 0
	case addr.SOUND1CNT_X, addr.SOUND2CNT_H:
		return 0
	case addr.SOUND3CNT_L:
		return boolBit(a.wave.dacEnabled, 7)
	case addr.SOUND3CNT_H:
		return 0
	case addr.SOUND3CNT_X:
		return 0
	case addr.SOUND4CNT_L, addr.SOUND4CNT_H:
		return 0
	default:
		return 0
	}
}

func boolBit(b bool, shift uint) uint32 {
	if b {
		return 1 << shift
	}
	return 0
}

func (a *APU) writeChannelRegister(address uint32, v uint16) {
	if address >= addr.WAVE_RAM && address < addr.WAVE_RAM+16 {
		a.wave.WriteRAMByte(int(address-addr.WAVE_RAM), byte(v))
		return
	}

	switch address &^ 1 {
	case addr.SOUND1CNT_L:
		a.square1.WriteSweep(v)
	case addr.SOUND1CNT_H:
		a.square1.WriteDutyEnvelope(v)
	case addr.SOUND1CNT_X:
		a.square1.WriteFreqControl(v)
	case addr.SOUND2CNT_L:
		a.square2.WriteDutyEnvelope(v)
	case addr.SOUND2CNT_H:
		a.square2.WriteFreqControl(v)
	case addr.SOUND3CNT_L:
		a.wave.WriteEnable(v)
	case addr.SOUND3CNT_H:
		a.wave.WriteLengthVolume(v)
	case addr.SOUND3CNT_X:
		a.wave.WriteFreqControl(v)
	case addr.SOUND4CNT_L:
		a.noise.WriteLengthEnvelope(v)
	case addr.SOUND4CNT_H:
		a.noise.WriteFreqControl(v)
	}
}
