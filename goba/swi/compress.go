package swi

// lz77Uncomp implements SWI 0x11/0x12: decompresses an LZ77 stream with
// a 4-byte header (type byte, 24-bit decompressed size) into dst
// (spec.md §4.8). The source/destination memory are opaque to the
// scheme; WRAM vs VRAM only matters for the real BIOS's access-width
// quirks, which this functional model does not need to reproduce.
func lz77Uncomp(bus Bus, src, dst uint32) {
	header := bus.Read32(src)
	size := header >> 8
	src += 4

	var written uint32
	for written < size {
		flags := bus.Read8(src)
		src++
		for bit := 7; bit >= 0 && written < size; bit-- {
			if flags&(1<<uint(bit)) == 0 {
				bus.Write8(dst+written, bus.Read8(src))
				src++
				written++
				continue
			}
			b0 := uint32(bus.Read8(src))
			b1 := uint32(bus.Read8(src + 1))
			src += 2
			length := (b0 >> 4) + 3
			disp := ((b0 & 0xF) << 8) | b1
			for i := uint32(0); i < length && written < size; i++ {
				srcPos := dst + written - disp - 1
				bus.Write8(dst+written, bus.Read8(srcPos))
				written++
			}
		}
	}
}

// rlUncomp implements SWI 0x14/0x15: run-length decompression with the
// same 4-byte header shape as LZ77.
func rlUncomp(bus Bus, src, dst uint32) {
	header := bus.Read32(src)
	size := header >> 8
	src += 4

	var written uint32
	for written < size {
		flag := bus.Read8(src)
		src++
		if flag&0x80 != 0 {
			length := uint32(flag&0x7F) + 3
			value := bus.Read8(src)
			src++
			for i := uint32(0); i < length && written < size; i++ {
				bus.Write8(dst+written, value)
				written++
			}
		} else {
			length := uint32(flag) + 1
			for i := uint32(0); i < length && written < size; i++ {
				bus.Write8(dst+written, bus.Read8(src))
				src++
				written++
			}
		}
	}
}
