// Package geom holds the small amount of linear algebra the figure tree needs:
// integer pixel sizes, float UV points and 3×3 affine matrices.
package geom

import (
	"image"
	"math"

	"seehuhn.de/go/geom/vec"
)

// Unset is the sentinel size meaning "not specified".
var Unset = image.Point{X: -1, Y: -1}

// ValidSize reports whether both components are strictly positive.
func ValidSize(p image.Point) bool {
	return p.X > 0 && p.Y > 0
}

// PartialSize reports whether at least one component is positive.
func PartialSize(p image.Point) bool {
	return p.X > 0 || p.Y > 0
}

// MaxPoint returns the component-wise maximum.
func MaxPoint(a, b image.Point) image.Point {
	return image.Point{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
}

// MinPoint returns the component-wise minimum.
func MinPoint(a, b image.Point) image.Point {
	return image.Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
}

// ScalePoint multiplies each component and truncates toward zero.
func ScalePoint(p image.Point, sx, sy float64) image.Point {
	return image.Point{X: int(float64(p.X) * sx), Y: int(float64(p.Y) * sy)}
}

// Clamp01 clamps both coordinates into [0,1].
func Clamp01(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: clamp(v.X, 0, 1), Y: clamp(v.Y, 0, 1)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Cross returns the z component of (b-a)×(c-a).
func Cross(a, b, c vec.Vec2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// SegmentDistance returns the distance from p to segment ab together with the
// projection parameter t ∈ [0,1].
func SegmentDistance(p, a, b vec.Vec2) (float64, float64) {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return p.Sub(a).Length(), 0
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = clamp(t, 0, 1)
	return p.Sub(a.Add(d.Mul(t))).Length(), t
}
