package raster

import (
	"image"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/logx"
)

// pixelUV is the centre of local pixel (x, y) in normalized coordinates.
func pixelUV(x, y int, w, h float64) vec.Vec2 {
	return vec.Vec2{X: (float64(x) + 0.5) / w, Y: (float64(y) + 0.5) / h}
}

// stroke describes how a segment is drawn, in pixels.
type stroke struct {
	width     float64
	aa        bool
	style     figure.LineStyle
	dash, gap float64
}

// alpha is the coverage of a pixel centre at distance dist from the stroke
// axis, or 0 outside the band.
func (s stroke) alpha(dist float64) float32 {
	half := s.width / 2
	if dist >= half {
		return 0
	}
	if !s.aa {
		return 1
	}
	return float32(min(1, half-dist))
}

// segment rasterizes a..b into cov.
func (s stroke) segment(a, b vec.Vec2, cov *coverage) {
	d := b.Sub(a)
	length := d.Length()
	if length < 1e-9 || s.width <= 0 {
		logx.Logger().Debug("跳过退化线段", "a", a, "b", b, "width", s.width)
		return
	}
	dir := d.Mul(1 / length)
	period := s.dash + s.gap
	pad := s.width/2 + 1
	box := image.Rect(
		int(math.Floor(min(a.X, b.X)-pad)), int(math.Floor(min(a.Y, b.Y)-pad)),
		int(math.Ceil(max(a.X, b.X)+pad)), int(math.Ceil(max(a.Y, b.Y)+pad)),
	).Intersect(image.Rect(0, 0, cov.w, cov.h))

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			p := vec.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			dist, t := geom.SegmentDistance(p, a, b)
			along := t * length
			switch {
			case s.style == figure.LineDashed && period > 0:
				if math.Mod(along, period) >= s.dash {
					continue
				}
			case s.style == figure.LineDotted && period > 0:
				// 每个周期中心放一个圆点
				k := math.Round((along - s.dash/2) / period)
				c := k*period + s.dash/2
				dist = p.Sub(a.Add(dir.Mul(c))).Length()
			}
			if al := s.alpha(dist); al > 0 {
				cov.add(x, y, al)
			}
		}
	}
}

func renderLine(p *figure.Line, d figure.InstanceData, out *bitmap.Bitmap) {
	w, h := float64(d.Size.X), float64(d.Size.Y)
	long := max(w, h)
	toPixels := func(v vec.Vec2) vec.Vec2 {
		v = geom.Clamp01(d.UV.Apply(v))
		return vec.Vec2{X: v.X * w, Y: v.Y * h}
	}
	s := stroke{
		width: p.PixelThickness(d.Size),
		aa:    p.Antialiased,
		style: p.Style,
		dash:  p.Pattern[0] * long,
		gap:   p.Pattern[1] * long,
	}
	cov := newCoverage(d.Size)
	s.segment(toPixels(p.Start), toPixels(p.End), cov)
	cov.blend(p.Color, d, out)
}

func renderCircle(p *figure.Circle, d figure.InstanceData, out *bitmap.Bitmap) {
	w, h := float64(d.Size.X), float64(d.Size.Y)
	long := max(w, h)
	sx, sy := w/long, h/long
	forEach(d, out, image.Rectangle{Max: d.Size}, func(x, y int) (bitmap.Color, bool) {
		uv := pixelUV(x, y, w, h)
		dist := math.Hypot(sx*(uv.X-p.Center.X), sy*(uv.Y-p.Center.Y))
		if dist > p.Radius {
			return bitmap.Color{}, false
		}
		if !p.Antialiased {
			return p.Color, true
		}
		a := float32(min(1, long*(p.Radius-dist)))
		return p.Color.WithAlpha(a), a > 0
	})
}
