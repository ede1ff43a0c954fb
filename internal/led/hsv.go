package led

// ColorHSV converts a hue on the 16-bit colour wheel (0 = red, wrapping at
// 65536) plus saturation and value into RGB. The wheel is split into six
// sectors of 255 steps each, the layout used by common addressable-strip
// libraries, so animations match pixel-for-pixel.
func ColorHSV(hue uint16, sat, val uint8) Color {
	h := (uint32(hue)*1530 + 32768) / 65536

	var r, g, b uint32
	switch {
	case h < 510: // red to green
		b = 0
		if h < 255 {
			r, g = 255, h
		} else {
			r, g = 510-h, 255
		}
	case h < 1020: // green to blue
		r = 0
		if h < 765 {
			g, b = 255, h-510
		} else {
			g, b = 1020-h, 255
		}
	case h < 1530: // blue to red
		g = 0
		if h < 1275 {
			r, b = h-1020, 255
		} else {
			r, b = 255, 1530-h
		}
	default: // last 0.5 step rounds back to red
		r, g, b = 255, 0, 0
	}

	v1 := 1 + uint32(val)
	s1 := 1 + uint32(sat)
	s2 := 255 - uint32(sat)
	return Color{
		R: uint8((((r*s1)>>8 + s2) * v1) >> 8),
		G: uint8((((g*s1)>>8 + s2) * v1) >> 8),
		B: uint8((((b*s1)>>8 + s2) * v1) >> 8),
	}
}

// Hue returns the fully saturated, full value colour for hue.
func Hue(hue uint16) Color {
	return ColorHSV(hue, 255, 255)
}
