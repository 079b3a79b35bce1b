package video

// Bitmap modes 3/4/5 (spec.md §4.4).

func (p *PPU) renderBitmapLine(y int) {
	mode := p.dispcnt & 0x7
	page := uint32(0)
	if p.dispcnt&(1<<4) != 0 {
		page = 0xA000
	}

	switch mode {
	case 3:
		for x := 0; x < Width; x++ {
			off := uint32(y*Width+x) * 2
			p.fb.Set(x, y, p.vramRead16(off))
		}
	case 4:
		for x := 0; x < Width; x++ {
			off := page + uint32(y*Width+x)
			idx := p.vramByte(off)
			p.fb.Set(x, y, p.bgPalette256(idx))
		}
	case 5:
		const bw, bh = 160, 128
		for x := 0; x < Width; x++ {
			if x >= bw || y >= bh {
				p.fb.Set(x, y, 0)
				continue
			}
			off := page + uint32(y*bw+x)*2
			p.fb.Set(x, y, p.vramRead16(off))
		}
	}
}
