// Package led drives the addressable RGB strip.
//
// Pixels are written into a buffer, a global brightness scales the frame and
// Show commits it to the strip. The real implementation encodes frames for
// WS2812-class pixels over SPI; the fake records every committed frame.
package led

// Color is a 24-bit RGB colour.
type Color struct {
	R, G, B uint8
}

// Off is the colour of an unlit pixel.
var Off = Color{}

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Defaults for the strip.
const (
	DefaultPixels     = 16
	DefaultBrightness = 100
)

// Strip is an addressable LED strip.
type Strip interface {
	Len() int
	SetPixel(i int, c Color)
	Fill(c Color)
	Clear()
	SetBrightness(b uint8)
	Brightness() uint8
	// Show commits the current buffer to the strip.
	Show() error
}

// Buffer holds a frame and its brightness. Real and fake strips embed it.
type Buffer struct {
	pixels     []Color
	brightness uint8
}

// NewBuffer returns a cleared buffer of n pixels.
func NewBuffer(n int, brightness uint8) *Buffer {
	return &Buffer{pixels: make([]Color, n), brightness: brightness}
}

// Len returns the pixel count.
func (b *Buffer) Len() int { return len(b.pixels) }

// SetPixel sets pixel i. Out-of-range indexes are ignored.
func (b *Buffer) SetPixel(i int, c Color) {
	if i < 0 || i >= len(b.pixels) {
		return
	}
	b.pixels[i] = c
}

// Pixel returns pixel i before brightness scaling.
func (b *Buffer) Pixel(i int) Color {
	if i < 0 || i >= len(b.pixels) {
		return Off
	}
	return b.pixels[i]
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Color) {
	for i := range b.pixels {
		b.pixels[i] = c
	}
}

// Clear turns every pixel off.
func (b *Buffer) Clear() { b.Fill(Off) }

// SetBrightness sets the global brightness, 0 (off) to 255 (full).
func (b *Buffer) SetBrightness(v uint8) { b.brightness = v }

// Brightness returns the global brightness.
func (b *Buffer) Brightness() uint8 { return b.brightness }

// Frame returns the pixels scaled by brightness.
func (b *Buffer) Frame() []Color {
	out := make([]Color, len(b.pixels))
	scale := uint16(b.brightness) + 1
	for i, c := range b.pixels {
		out[i] = Color{
			R: uint8(uint16(c.R) * scale >> 8),
			G: uint8(uint16(c.G) * scale >> 8),
			B: uint8(uint16(c.B) * scale >> 8),
		}
	}
	return out
}

// RGBBytes returns the scaled frame as packed R,G,B bytes.
func (b *Buffer) RGBBytes() []byte {
	frame := b.Frame()
	out := make([]byte, 0, 3*len(frame))
	for _, c := range frame {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}
