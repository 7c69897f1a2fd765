package bitmap

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Bitmap is a row-major buffer of linear colours.
type Bitmap struct {
	Width, Height int
	Pix           []Color
}

// New allocates a transparent bitmap.
func New(w, h int) *Bitmap {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Bitmap{Width: w, Height: h, Pix: make([]Color, w*h)}
}

// Size returns the bitmap extent.
func (b *Bitmap) Size() image.Point {
	return image.Point{X: b.Width, Y: b.Height}
}

// In reports whether (x, y) lies inside the bitmap.
func (b *Bitmap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns the pixel at (x, y); out-of-range reads are transparent.
func (b *Bitmap) At(x, y int) Color {
	if !b.In(x, y) {
		return Transparent
	}
	return b.Pix[y*b.Width+x]
}

// Set overwrites a pixel, ignoring out-of-range writes.
func (b *Bitmap) Set(x, y int, c Color) {
	if !b.In(x, y) {
		return
	}
	b.Pix[y*b.Width+x] = c
}

// Blend composites c over the pixel at (x, y). Writes outside the bitmap are clipped.
func (b *Bitmap) Blend(x, y int, c Color) {
	if !b.In(x, y) {
		return
	}
	i := y*b.Width + x
	b.Pix[i] = Over(c, b.Pix[i])
}

// Fill overwrites every pixel.
func (b *Bitmap) Fill(c Color) {
	for i := range b.Pix {
		b.Pix[i] = c
	}
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	out := &Bitmap{Width: b.Width, Height: b.Height, Pix: make([]Color, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// ToImage 将线性颜色按 1/gamma 编码为 8 位 NRGBA。
func (b *Bitmap) ToImage(gamma float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	inv := 1.0
	if gamma > 0 {
		inv = 1 / gamma
	}
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.Pix[y*b.Width+x].Gamma(inv)
			img.SetNRGBA(x, y, color.NRGBA{
				R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A),
			})
		}
	}
	return img
}

// FromImage 将任意 image.Image 解码为线性颜色（按 gamma 还原）。
func FromImage(img image.Image, gamma float64) *Bitmap {
	r := img.Bounds()
	out := New(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c := Color{
				R: float32(n.R) / 255,
				G: float32(n.G) / 255,
				B: float32(n.B) / 255,
				A: float32(n.A) / 255,
			}
			out.Pix[(y-r.Min.Y)*out.Width+(x-r.Min.X)] = c.Gamma(gamma)
		}
	}
	return out
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(max(0, min(1, v))) * 255))
}

// PSNR 计算两张图的峰值信噪比（dB），像素值按 [0,1] 处理；完全一致时返回 +Inf。
func PSNR(a, b *Bitmap) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, fmt.Errorf("尺寸不一致: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	if len(a.Pix) == 0 {
		return math.Inf(1), nil
	}
	var sum float64
	for i := range a.Pix {
		p, q := a.Pix[i], b.Pix[i]
		for _, d := range [4]float32{p.R - q.R, p.G - q.G, p.B - q.B, p.A - q.A} {
			sum += float64(d) * float64(d)
		}
	}
	mse := sum / float64(len(a.Pix)*4)
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(1/mse), nil
}
