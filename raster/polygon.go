package raster

import (
	"image"
	"math"
	"slices"

	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/logx"
)

// Triangle is one output triangle of Triangulate.
type Triangle [3]vec.Vec2

// Area is the unsigned area.
func (t Triangle) Area() float64 {
	return math.Abs(geom.Cross(t[0], t[1], t[2])) / 2
}

// SignedArea is the shoelace area of a closed contour.
func SignedArea(c []vec.Vec2) float64 {
	var s float64
	for i := range c {
		a, b := c[i], c[(i+1)%len(c)]
		s += a.X*b.Y - b.X*a.Y
	}
	return s / 2
}

// Triangulate splits a polygon given as an outer contour followed by holes
// into triangles. Holes are bridged into the outer contour, then the single
// resulting contour is ear-clipped.
func Triangulate(contours [][]vec.Vec2) []Triangle {
	if len(contours) == 0 || len(contours[0]) < 3 {
		return nil
	}
	poly := slices.Clone(contours[0])
	if SignedArea(poly) < 0 {
		slices.Reverse(poly)
	}

	var holes [][]vec.Vec2
	for _, h := range contours[1:] {
		if len(h) < 3 {
			continue
		}
		h = slices.Clone(h)
		if SignedArea(h) > 0 {
			slices.Reverse(h)
		}
		holes = append(holes, h)
	}
	// 从最靠右的孔开始桥接，避免桥与后续的孔相交
	slices.SortFunc(holes, func(a, b []vec.Vec2) int {
		return -cmpFloat(a[rightmost(a)].X, b[rightmost(b)].X)
	})
	for i, h := range holes {
		poly = bridge(poly, h, holes[i+1:])
	}
	return earClip(poly)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func rightmost(c []vec.Vec2) int {
	best := 0
	for i, p := range c {
		if p.X > c[best].X {
			best = i
		}
	}
	return best
}

// bridge splices hole into poly through a zero-width channel between the
// hole's rightmost vertex and the nearest vertex of poly it can see.
// pending are the holes not bridged yet; the channel must not touch them.
func bridge(poly, hole []vec.Vec2, pending [][]vec.Vec2) []vec.Vec2 {
	hi := rightmost(hole)
	hp := hole[hi]
	order := make([]int, len(poly))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmpFloat(poly[a].Sub(hp).Length(), poly[b].Sub(hp).Length())
	})
	oi := order[0]
	found := false
	for _, i := range order {
		if visible(poly, i, hole, hi, pending) {
			oi, found = i, true
			break
		}
	}
	if !found {
		logx.Logger().Debug("孔没有可见的桥接点，退回最近顶点", "hole", len(hole))
	}
	out := make([]vec.Vec2, 0, len(poly)+len(hole)+2)
	out = append(out, poly[:oi+1]...)
	for k := 0; k <= len(hole); k++ {
		out = append(out, hole[(hi+k)%len(hole)])
	}
	out = append(out, poly[oi:]...)
	return out
}

// visible reports whether the segment poly[i]–hole[hi] runs through the
// polygon interior: it leaves both endpoints into the interior and touches
// no edge other than those at its endpoints.
func visible(poly []vec.Vec2, i int, hole []vec.Vec2, hi int, pending [][]vec.Vec2) bool {
	p, hp := poly[i], hole[hi]
	if !locallyInside(poly[(i+len(poly)-1)%len(poly)], p, poly[(i+1)%len(poly)], hp) {
		return false
	}
	if !locallyInside(hole[(hi+len(hole)-1)%len(hole)], hp, hole[(hi+1)%len(hole)], p) {
		return false
	}
	edges := append([][]vec.Vec2{poly, hole}, pending...)
	for _, c := range edges {
		for k := range c {
			u, v := c[k], c[(k+1)%len(c)]
			if u == p || u == hp || v == p || v == hp {
				continue
			}
			if segmentsTouch(hp, p, u, v) {
				return false
			}
		}
	}
	return true
}

// locallyInside reports whether the direction a→b starts inside the interior
// wedge at vertex a of a counter-clockwise contour prev, a, next.
func locallyInside(prev, a, next, b vec.Vec2) bool {
	if geom.Cross(prev, a, next) > 0 {
		return geom.Cross(a, b, next) <= 0 && geom.Cross(a, prev, b) <= 0
	}
	return geom.Cross(a, b, prev) > 0 || geom.Cross(a, next, b) > 0
}

// segmentsTouch reports whether segments p1p2 and q1q2 cross or touch.
func segmentsTouch(p1, p2, q1, q2 vec.Vec2) bool {
	d1 := geom.Cross(q1, q2, p1)
	d2 := geom.Cross(q1, q2, p2)
	d3 := geom.Cross(p1, p2, q1)
	d4 := geom.Cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(q1, q2, p1, d1) || onSegment(q1, q2, p2, d2) ||
		onSegment(p1, p2, q1, d3) || onSegment(p1, p2, q2, d4)
}

// onSegment reports whether p, collinear with ab (cross ≈ 0), lies within ab.
func onSegment(a, b, p vec.Vec2, cross float64) bool {
	const eps = 1e-12
	return math.Abs(cross) < eps &&
		p.X >= min(a.X, b.X)-eps && p.X <= max(a.X, b.X)+eps &&
		p.Y >= min(a.Y, b.Y)-eps && p.Y <= max(a.Y, b.Y)+eps
}

func earClip(poly []vec.Vec2) []Triangle {
	idx := make([]int, len(poly))
	for i := range idx {
		idx[i] = i
	}
	var out []Triangle
	for len(idx) > 3 {
		n := len(idx)
		clipped := false
		for i := 0; i < n; i++ {
			a, b, c := poly[idx[(i+n-1)%n]], poly[idx[i]], poly[idx[(i+1)%n]]
			cross := geom.Cross(a, b, c)
			if math.Abs(cross) < 1e-12 {
				// 共线或重复顶点，直接丢弃
				idx = slices.Delete(idx, i, i+1)
				clipped = true
				break
			}
			if cross < 0 || !emptyEar(poly, idx, i) {
				continue
			}
			out = append(out, Triangle{a, b, c})
			idx = slices.Delete(idx, i, i+1)
			clipped = true
			break
		}
		if !clipped {
			logx.Logger().Debug("耳切失败，多边形可能自交", "remaining", len(idx))
			return out
		}
	}
	if len(idx) == 3 {
		t := Triangle{poly[idx[0]], poly[idx[1]], poly[idx[2]]}
		// 最后一个三角形同样必须是逆时针的耳
		if geom.Cross(t[0], t[1], t[2]) > 1e-12 {
			out = append(out, t)
		}
	}
	return out
}

// emptyEar reports whether the ear at idx[i] contains no reflex vertex of
// the remaining contour, edges included. Vertices coinciding with a corner
// (bridge duplicates) do not count.
func emptyEar(poly []vec.Vec2, idx []int, i int) bool {
	n := len(idx)
	a, b, c := poly[idx[(i+n-1)%n]], poly[idx[i]], poly[idx[(i+1)%n]]
	for k := range idx {
		if k == i || k == (i+n-1)%n || k == (i+1)%n {
			continue
		}
		p := poly[idx[k]]
		if p == a || p == b || p == c {
			continue
		}
		// 只有反射或共线顶点会挡住耳
		if geom.Cross(poly[idx[(k+n-1)%n]], p, poly[idx[(k+1)%n]]) > 0 {
			continue
		}
		if inTriangle(p, a, b, c, -1e-12) {
			return false
		}
	}
	return true
}

func renderPolygon(p *figure.Polygon, d figure.InstanceData, out *bitmap.Bitmap) {
	w, h := float64(d.Size.X), float64(d.Size.Y)
	tris := Triangulate(p.Contours)
	cov := newCoverage(d.Size)
	for _, t := range tris {
		for i := range t {
			t[i] = vec.Vec2{X: t[i].X * w, Y: t[i].Y * h}
		}
		if t.Area() < 1e-9 {
			continue
		}
		if p.Outline {
			s := stroke{width: p.OutlineThickness * max(w, h), aa: p.OutlineAntialiased}
			s.segment(t[0], t[1], cov)
			s.segment(t[1], t[2], cov)
			s.segment(t[2], t[0], cov)
			continue
		}
		fillTriangle(t, cov)
	}
	cov.blend(p.Color, d, out)
}

func fillTriangle(t Triangle, cov *coverage) {
	box := image.Rect(
		int(math.Floor(min(t[0].X, t[1].X, t[2].X))), int(math.Floor(min(t[0].Y, t[1].Y, t[2].Y))),
		int(math.Ceil(max(t[0].X, t[1].X, t[2].X))), int(math.Ceil(max(t[0].Y, t[1].Y, t[2].Y))),
	).Intersect(image.Rect(0, 0, cov.w, cov.h))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			p := vec.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if inTriangle(p, t[0], t[1], t[2], -1e-6) {
				cov.add(x, y, 1)
			}
		}
	}
}
