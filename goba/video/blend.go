package video

// renderScanline composites one visible line into the framebuffer:
// background layers (tiled or bitmap per mode), sprites, window
// masking, and alpha/brightness blending (spec.md §4.4 Compositing).
func (p *PPU) renderScanline(y int) {
	mode := p.dispcnt & 0x7
	if mode >= 3 {
		p.renderBitmapLine(y)
		p.compositeOBJOnly(y)
		return
	}

	var bg [4][Width]bgLayer
	bgActive := [4]bool{}
	for n := 0; n < 4; n++ {
		if p.dispcnt&(1<<(8+n)) == 0 {
			continue
		}
		bgActive[n] = true
		switch {
		case mode == 0:
			p.renderBGText(n, y, bg[n][:])
		case mode == 1:
			if n < 2 {
				p.renderBGText(n, y, bg[n][:])
			} else if n == 2 {
				p.renderBGAffine(n, 0, y, bg[n][:])
			}
		case mode == 2:
			if n == 2 {
				p.renderBGAffine(n, 0, y, bg[n][:])
			} else if n == 3 {
				p.renderBGAffine(n, 1, y, bg[n][:])
			}
		}
	}

	var obj [Width]objLayer
	if p.dispcnt&(1<<12) != 0 {
		p.renderOBJLine(y, obj[:])
	}

	windowsActive := p.dispcnt&(0x7<<13) != 0

	for x := 0; x < Width; x++ {
		winEnable := p.windowEnableMask(x, y)
		backdrop := p.bgPalette256(0)

		best, bestLayer, bestPriority := backdrop, -1, uint8(4)
		second, secondLayer := backdrop, -1

		consider := func(layerID int, priority uint8, color uint16, opaque bool) {
			if !opaque {
				return
			}
			if priority < bestPriority {
				second, secondLayer = best, bestLayer
				best, bestLayer, bestPriority = color, layerID, priority
			} else {
				second, secondLayer = color, layerID
			}
		}

		for n := 0; n < 4; n++ {
			if !bgActive[n] || (windowsActive && !winEnable[n]) {
				continue
			}
			l := bg[n][x]
			consider(n, l.priority, l.color, l.opaque)
		}
		if obj[x].present && obj[x].opaque && (!windowsActive || winEnable[4]) {
			consider(4, obj[x].priority, obj[x].color, true)
		}

		final := best
		if p.shouldBlend(bestLayer, secondLayer, obj[x]) {
			final = p.blend(best, second, obj[x].semiTransparent)
		}
		p.fb.Set(x, y, final)
	}
}

// compositeOBJOnly overlays sprites onto an already-rendered bitmap-mode
// line (bitmap modes only support BG2, so sprites are the only other
// layer to composite).
func (p *PPU) compositeOBJOnly(y int) {
	if p.dispcnt&(1<<12) == 0 {
		return
	}
	var obj [Width]objLayer
	p.renderOBJLine(y, obj[:])
	for x := 0; x < Width; x++ {
		if obj[x].present && obj[x].opaque {
			p.fb.Set(x, y, obj[x].color)
		}
	}
}

// windowEnableMask returns, for pixel (x,y), whether each of layers
// BG0..3 (indices 0-3) and OBJ (index 4) may contribute, per WIN0/WIN1/
// WINOUT (spec.md §4.4 Compositing).
func (p *PPU) windowEnableMask(x, y int) [5]bool {
	win0On := p.dispcnt&(1<<13) != 0
	win1On := p.dispcnt&(1<<14) != 0

	if win0On && p.insideWindow(p.win0h, p.win0v, x, y) {
		return unpackWinFlags(p.winin)
	}
	if win1On && p.insideWindow(p.win1h, p.win1v, x, y) {
		return unpackWinFlags(p.winin >> 8)
	}
	if win0On || win1On || p.dispcnt&(1<<15) != 0 {
		return unpackWinFlags(p.winout)
	}
	return [5]bool{true, true, true, true, true}
}

func unpackWinFlags(v uint16) [5]bool {
	var out [5]bool
	for i := 0; i < 5; i++ {
		out[i] = v&(1<<i) != 0
	}
	return out
}

func (p *PPU) insideWindow(h, v uint16, x, y int) bool {
	x1, x2 := int(h>>8), int(h&0xFF)
	y1, y2 := int(v>>8), int(v&0xFF)
	if x2 > Width || x2 < x1 {
		x2 = Width
	}
	if y2 > Height || y2 < y1 {
		y2 = Height
	}
	return x >= x1 && x < x2 && y >= y1 && y < y2
}

func (p *PPU) shouldBlend(topLayer, bottomLayer int, obj objLayer) bool {
	if obj.semiTransparent && topLayer == 4 {
		return true
	}
	mode := (p.bldcnt >> 6) & 0x3
	if mode == 0 {
		return false
	}
	if topLayer < 0 {
		return false
	}
	targetA := p.bldcnt&(1<<topLayer) != 0
	targetB := bottomLayer >= 0 && p.bldcnt&(1<<(8+bottomLayer)) != 0
	return targetA && (targetB || mode != 1)
}

func (p *PPU) blend(top, bottom uint16, forcedAlpha bool) uint16 {
	mode := (p.bldcnt >> 6) & 0x3
	switch {
	case forcedAlpha || mode == 1:
		eva := float64(p.bldalpha&0x1F) / 16
		evb := float64((p.bldalpha>>8)&0x1F) / 16
		return blendChannels(top, bottom, eva, evb)
	case mode == 2:
		evy := float64(p.bldy&0x1F) / 16
		return blendToward(top, 0x7FFF, evy)
	case mode == 3:
		evy := float64(p.bldy&0x1F) / 16
		return blendToward(top, 0, evy)
	default:
		return top
	}
}

func blendChannels(a, b uint16, wa, wb float64) uint16 {
	r := clamp5(int(float64(a&0x1F)*wa + float64(b&0x1F)*wb))
	g := clamp5(int(float64((a>>5)&0x1F)*wa + float64((b>>5)&0x1F)*wb))
	bl := clamp5(int(float64((a>>10)&0x1F)*wa + float64((b>>10)&0x1F)*wb))
	return uint16(r) | uint16(g)<<5 | uint16(bl)<<10
}

func blendToward(c uint16, target uint16, w float64) uint16 {
	return blendChannels(c, target, 1-w, w)
}

func clamp5(v int) int {
	if v < 0 {
		return 0
	}
	if v > 31 {
		return 31
	}
	return v
}
