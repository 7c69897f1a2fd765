// Package bitmap provides the float RGBA pixel buffer shared by the
// rasterizer, the image loader and the image sinks.
package bitmap

import "math"

// Eps keeps the compositing denominator away from zero.
const Eps = 1e-9

// Color is a linear, non-premultiplied RGBA colour.
type Color struct {
	R, G, B, A float32
}

var (
	Transparent = Color{}
	Black       = Color{A: 1}
	White       = Color{R: 1, G: 1, B: 1, A: 1}
	// Magenta marks figures that failed to load.
	Magenta = Color{R: 1, B: 1, A: 1}
)

// RGBA builds a colour from four components.
func RGBA(r, g, b, a float64) Color {
	return Color{R: float32(r), G: float32(g), B: float32(b), A: float32(a)}
}

// WithAlpha returns c with its alpha multiplied by a.
func (c Color) WithAlpha(a float32) Color {
	c.A *= a
	return c
}

// Over composites a on top of b.
func Over(a, b Color) Color {
	ba := b.A * (1 - a.A)
	w := float64(a.A) + float64(ba) + Eps
	return Color{
		R: float32((float64(a.R*a.A) + float64(b.R*ba)) / w),
		G: float32((float64(a.G*a.A) + float64(b.G*ba)) / w),
		B: float32((float64(a.B*a.A) + float64(b.B*ba)) / w),
		A: float32(w - Eps),
	}
}

// Lerp interpolates component-wise.
func Lerp(a, b Color, t float32) Color {
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// Gamma raises RGB to the power g and keeps alpha.
func (c Color) Gamma(g float64) Color {
	if g == 1 {
		return c
	}
	return Color{
		R: float32(math.Pow(math.Max(float64(c.R), 0), g)),
		G: float32(math.Pow(math.Max(float64(c.G), 0), g)),
		B: float32(math.Pow(math.Max(float64(c.B), 0), g)),
		A: c.A,
	}
}
