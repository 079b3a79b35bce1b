package swi

import "math"

// arctan implements SWI 0x09: arctangent of a fixed-point input with 14
// fractional bits (0x4000 = 1.0), returning a 16-bit angle in the 0x0000-0xFFFF
// full-circle convention used by the real BIOS call.
func arctan(x int32) uint32 {
	rad := math.Atan(float64(x) / 0x4000)
	return angleFromRadians(rad)
}

// arctan2 implements SWI 0x0A: angle of (x,y) in the same convention.
func arctan2(x, y int32) uint32 {
	rad := math.Atan2(float64(y), float64(x))
	return angleFromRadians(rad)
}

func angleFromRadians(rad float64) uint32 {
	turns := rad / (2 * math.Pi)
	v := int32(turns * 0x10000)
	return uint32(uint16(v))
}
