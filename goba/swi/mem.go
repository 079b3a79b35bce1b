package swi

// cpuSet implements SWI 0x0B: fixed-width fill or copy. wordCount packs
// the transfer count in bits 0-20, a fill flag in bit 24, and a 32-bit
// width flag in bit 26 (spec.md §4.8).
func cpuSet(bus Bus, src, dst, wordCount uint32) {
	count := wordCount & 0x1FFFFF
	fill := wordCount&(1<<24) != 0
	wide := wordCount&(1<<26) != 0

	if wide {
		value := bus.Read32(src)
		for i := uint32(0); i < count; i++ {
			if !fill {
				value = bus.Read32(src + i*4)
			}
			bus.Write32(dst+i*4, value)
		}
		return
	}
	value := bus.Read16(src)
	for i := uint32(0); i < count; i++ {
		if !fill {
			value = bus.Read16(src + i*2)
		}
		bus.Write16(dst+i*2, value)
	}
}

// cpuFastSet implements SWI 0x0C: the same operation as cpuSet but
// always 32-bit and processed in 8-word blocks on real hardware; the
// block granularity has no observable effect here.
func cpuFastSet(bus Bus, src, dst, wordCount uint32) {
	count := (wordCount & 0x1FFFFF)
	count = (count + 7) &^ 7 // rounds up to a multiple of 8, per hardware
	fill := wordCount&(1<<24) != 0

	value := bus.Read32(src)
	for i := uint32(0); i < count; i++ {
		if !fill {
			value = bus.Read32(src + i*4)
		}
		bus.Write32(dst+i*4, value)
	}
}

// bitUnPack implements SWI 0x10: expands packed N-bit source values into
// wider destination units, per the 8-byte parameter block pointed to by
// paramsAddr (source width, destination width, count, plus offset bits).
func bitUnPack(bus Bus, src, dst, paramsAddr uint32) {
	srcLen := uint32(bus.Read16(paramsAddr))
	srcWidth := uint32(bus.Read8(paramsAddr + 2))
	dstWidth := uint32(bus.Read8(paramsAddr + 3))
	dataOffset := bus.Read32(paramsAddr + 4)
	addZero := dataOffset&(1<<31) != 0
	offset := dataOffset &^ (1 << 31)

	if srcWidth == 0 || dstWidth == 0 {
		return
	}

	var accum uint32
	var accumBits uint32
	var out uint32
	var outBits uint32
	srcPos := uint32(0)

	for srcPos < srcLen {
		for accumBits < srcWidth {
			accum |= uint32(bus.Read8(src+srcPos)) << accumBits
			accumBits += 8
			srcPos++
		}
		value := accum & ((1 << srcWidth) - 1)
		accum >>= srcWidth
		accumBits -= srcWidth

		if value != 0 || addZero {
			value += offset
		}

		out |= value << outBits
		outBits += dstWidth
		for outBits >= 32 {
			bus.Write32(dst, out)
			dst += 4
			out = 0
			outBits -= 32
		}
	}
	if outBits > 0 {
		bus.Write32(dst, out)
	}
}
