// Package raster paints flattened figure instances into a linear-colour
// bitmap. Every painter works in the instance's own pixel grid and
// composites with bitmap.Over.
package raster

import (
	"image"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/layout"
	"github.com/ByLCY/figura/logx"
)

// Renderer draws instances. The zero value is ready to use.
type Renderer struct {
	// Background is the colour a full render starts from.
	Background bitmap.Color
}

// New returns a renderer with a transparent background.
func New() *Renderer { return &Renderer{} }

// Render paints a whole layout result onto a fresh bitmap of its size.
func (r *Renderer) Render(res *layout.Result) *bitmap.Bitmap {
	out := bitmap.New(res.Size.X, res.Size.Y)
	if r.Background != bitmap.Transparent {
		out.Fill(r.Background)
	}
	for _, inst := range res.Instances {
		r.RenderInstance(inst, out)
	}
	return out
}

// RenderInstance paints one instance into out.
func (r *Renderer) RenderInstance(inst figure.Instance, out *bitmap.Bitmap) {
	if !geom.ValidSize(inst.Data.Size) {
		return
	}
	switch p := inst.Prim.(type) {
	case *figure.Fill:
		renderFill(p, inst.Data, out)
	case *figure.Rectangle:
		renderRectangle(p, inst.Data, out)
	case *figure.Image:
		renderImage(p, inst.Data, out)
	case *figure.Line:
		renderLine(p, inst.Data, out)
	case *figure.Circle:
		renderCircle(p, inst.Data, out)
	case *figure.Polygon:
		renderPolygon(p, inst.Data, out)
	case *figure.Glyph:
		renderGlyph(p, inst.Data, out)
	default:
		logx.Logger().Warn("未知图元，跳过", "kind", inst.Prim.Kind())
	}
}

// span is the part of the instance box that lands inside out, in local pixels.
func span(d figure.InstanceData, out *bitmap.Bitmap) image.Rectangle {
	local := image.Rectangle{Max: d.Size}
	dst := image.Rectangle{Max: out.Size()}.Sub(d.Pos)
	return local.Intersect(dst)
}

// forEach calls paint for every visible local pixel of the instance; paint
// returns the colour to composite, or ok=false to leave the pixel alone.
func forEach(d figure.InstanceData, out *bitmap.Bitmap, r image.Rectangle, paint func(x, y int) (bitmap.Color, bool)) {
	r = r.Intersect(span(d, out))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c, ok := paint(x, y); ok {
				out.Blend(d.Pos.X+x, d.Pos.Y+y, c)
			}
		}
	}
}

// coverage is a per-instance alpha mask, used where overlapping pieces of one
// primitive must composite only once.
type coverage struct {
	w, h int
	a    []float32
}

func newCoverage(size image.Point) *coverage {
	return &coverage{w: size.X, h: size.Y, a: make([]float32, size.X*size.Y)}
}

func (c *coverage) add(x, y int, a float32) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := y*c.w + x
	c.a[i] = max(c.a[i], a)
}

func (c *coverage) blend(col bitmap.Color, d figure.InstanceData, out *bitmap.Bitmap) {
	forEach(d, out, image.Rect(0, 0, c.w, c.h), func(x, y int) (bitmap.Color, bool) {
		a := c.a[y*c.w+x]
		return col.WithAlpha(a), a > 0
	})
}

func renderFill(p *figure.Fill, d figure.InstanceData, out *bitmap.Bitmap) {
	forEach(d, out, image.Rectangle{Max: d.Size}, func(int, int) (bitmap.Color, bool) {
		return p.Color, true
	})
}

func renderRectangle(p *figure.Rectangle, d figure.InstanceData, out *bitmap.Bitmap) {
	w, h := float64(d.Size.X), float64(d.Size.Y)
	region := image.Rect(int(p.Region[0]*w), int(p.Region[1]*h), int(p.Region[2]*w), int(p.Region[3]*h))
	if region.Empty() {
		return
	}
	t := p.PixelThickness(d.Size)
	t = min(t, (region.Dx()+1)/2, (region.Dy()+1)/2)
	inner := region.Inset(t)
	forEach(d, out, region, func(x, y int) (bitmap.Color, bool) {
		return p.Color, !image.Pt(x, y).In(inner)
	})
}

func renderImage(p *figure.Image, d figure.InstanceData, out *bitmap.Bitmap) {
	if p.Bitmap == nil {
		return
	}
	w, h := float64(d.Size.X), float64(d.Size.Y)
	forEach(d, out, image.Rectangle{Max: d.Size}, func(x, y int) (bitmap.Color, bool) {
		uv := d.UV.Apply(pixelUV(x, y, w, h))
		return p.Sampler.Sample(p.Bitmap, uv.X, uv.Y), true
	})
}
