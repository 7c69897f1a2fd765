package raster

import (
	"image"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/fonts"
)

// sdfMaxUpscale is how far a distance field may be magnified before the exact
// outline is used instead.
const sdfMaxUpscale = 3

// UseSDF reports whether a glyph of the given pixel height is drawn from sdf.
func UseSDF(sdf *fonts.SDF, size image.Point) bool {
	return sdf != nil && size.Y <= sdfMaxUpscale*sdf.Height
}

func renderGlyph(p *figure.Glyph, d figure.InstanceData, out *bitmap.Bitmap) {
	if p.Outline.Empty() {
		return
	}
	var sdf *fonts.SDF
	if p.Font != nil {
		sdf = p.Font.SDF(p.Index)
	}
	useSDF := UseSDF(sdf, d.Size)
	w, h := float64(d.Size.X), float64(d.Size.Y)
	forEach(d, out, image.Rectangle{Max: d.Size}, func(x, y int) (bitmap.Color, bool) {
		uv := d.UV.Apply(pixelUV(x, y, w, h))
		if useSDF {
			return p.Color, sdf.Sample(uv.X, uv.Y) > 0
		}
		return p.Color, p.Outline.Inside(uv.X, uv.Y)
	})
}
