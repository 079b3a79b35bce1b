package video

// Tiled background rendering for modes 0-2 (spec.md §4.4), grounded on
// original_source/gba-core/src/ppu/background.rs for the screen-entry
// and affine sampling layout.

type bgLayer struct {
	enabled  bool
	affine   bool
	priority uint8
	color    uint16
	opaque   bool
}

// renderBGText renders one scanline of a text-mode (non-affine) layer n
// into dst, honoring 4bpp/8bpp tiles, screen size, and H/V scroll.
func (p *PPU) renderBGText(n int, y int, dst []bgLayer) {
	cnt := p.bgcnt[n]
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	is8bpp := cnt&(1<<7) != 0
	screenSize := (cnt >> 14) & 0x3
	priority := uint8(cnt & 0x3)

	tilesWide := 32
	tilesHigh := 32
	switch screenSize {
	case 1:
		tilesWide = 64
	case 2:
		tilesHigh = 64
	case 3:
		tilesWide, tilesHigh = 64, 64
	}

	scrollX := int(p.bghofs[n] & 0x1FF)
	scrollY := int(p.bgvofs[n] & 0x1FF)
	mapY := (y + scrollY) % (tilesHigh * 8)
	tileRow := mapY / 8
	pixRow := mapY % 8

	for x := 0; x < Width; x++ {
		mapX := (x + scrollX) % (tilesWide * 8)
		tileCol := mapX / 8
		pixCol := mapX % 8

		screenBlock := 0
		localTileCol, localTileRow := tileCol, tileRow
		if tilesWide == 64 && tileCol >= 32 {
			screenBlock += 1
			localTileCol -= 32
		}
		if tilesHigh == 64 && tileRow >= 32 {
			screenBlock += tilesWide / 32
			localTileRow -= 32
		}
		entryAddr := screenBase + uint32(screenBlock)*0x800 + uint32(localTileRow*32+localTileCol)*2
		entry := p.vramRead16(entryAddr)

		tileIndex := entry & 0x3FF
		hFlip := entry&(1<<10) != 0
		vFlip := entry&(1<<11) != 0
		palBank := uint8((entry >> 12) & 0xF)

		sx, sy := pixCol, pixRow
		if hFlip {
			sx = 7 - sx
		}
		if vFlip {
			sy = 7 - sy
		}

		var colorIndex uint8
		if is8bpp {
			tileAddr := charBase + uint32(tileIndex)*64 + uint32(sy*8+sx)
			colorIndex = p.vramByte(tileAddr)
		} else {
			tileAddr := charBase + uint32(tileIndex)*32 + uint32(sy*4+sx/2)
			b := p.vramByte(tileAddr)
			if sx&1 == 0 {
				colorIndex = b & 0xF
			} else {
				colorIndex = b >> 4
			}
		}

		opaque := colorIndex != 0
		var color uint16
		if opaque {
			if is8bpp {
				color = p.bgPalette256(colorIndex)
			} else {
				color = p.bgPalette16(palBank, colorIndex)
			}
		}
		dst[x] = bgLayer{enabled: true, priority: priority, color: color, opaque: opaque}
	}
}

// renderBGAffine renders an affine BG (BG2/3 in modes 1-2) one scanline,
// sampling via the 2x2 matrix and per-frame-latched reference point
// (spec.md §4.4).
func (p *PPU) renderBGAffine(n int, affineIdx int, y int, dst []bgLayer) {
	cnt := p.bgcnt[n]
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	priority := uint8(cnt & 0x3)
	screenSize := (cnt >> 14) & 0x3
	sizePixels := [4]int{128, 256, 512, 1024}[screenSize]
	wrap := cnt&(1<<13) != 0

	a := p.affine[affineIdx]
	refX := a.latchedX + int32(y)*int32(a.PB)
	refY := a.latchedY + int32(y)*int32(a.PD)

	for x := 0; x < Width; x++ {
		px := (refX + int32(x)*int32(a.PA)) >> 8
		py := (refY + int32(x)*int32(a.PC)) >> 8

		if wrap {
			px = ((px % int32(sizePixels)) + int32(sizePixels)) % int32(sizePixels)
			py = ((py % int32(sizePixels)) + int32(sizePixels)) % int32(sizePixels)
		} else if px < 0 || py < 0 || int(px) >= sizePixels || int(py) >= sizePixels {
			dst[x] = bgLayer{enabled: true, priority: priority, opaque: false}
			continue
		}

		tileCol, tileRow := int(px)/8, int(py)/8
		sx, sy := int(px)%8, int(py)%8
		tilesPerRow := sizePixels / 8
		entryAddr := screenBase + uint32(tileRow*tilesPerRow+tileCol)
		tileIndex := p.vramByte(entryAddr)

		tileAddr := charBase + uint32(tileIndex)*64 + uint32(sy*8+sx)
		colorIndex := p.vramByte(tileAddr)
		opaque := colorIndex != 0
		var color uint16
		if opaque {
			color = p.bgPalette256(colorIndex)
		}
		dst[x] = bgLayer{enabled: true, priority: priority, color: color, opaque: opaque}
	}
}

func (p *PPU) vramByte(off uint32) uint8 {
	if int(off) >= len(p.vram) {
		return 0
	}
	return p.vram[off]
}

func (p *PPU) vramRead16(off uint32) uint16 {
	if int(off)+1 >= len(p.vram) {
		return 0
	}
	return uint16(p.vram[off]) | uint16(p.vram[off+1])<<8
}
