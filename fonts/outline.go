package fonts

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Line is a straight outline segment in font units (y up).
type Line struct {
	A, B vec.Vec2
}

// Quad is a quadratic Bézier outline segment in font units (y up).
type Quad struct {
	A, B, C vec.Vec2
}

// Bounds is a glyph bounding box in font units.
type Bounds struct {
	XMin, YMin, XMax, YMax float64
}

// Width returns XMax-XMin.
func (b Bounds) Width() float64 { return b.XMax - b.XMin }

// Height returns YMax-YMin.
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

// Glyph is the outline and metrics of one glyph.
type Glyph struct {
	Index   int
	Advance float64
	Bounds  Bounds
	Lines   []Line
	Quads   []Quad
}

// Empty reports whether the glyph has no visible outline (spaces, missing glyphs).
func (g *Glyph) Empty() bool {
	return g == nil || (len(g.Lines) == 0 && len(g.Quads) == 0) ||
		g.Bounds.Width() <= 0 || g.Bounds.Height() <= 0
}

// Inside reports whether the normalized point (u, v) lies inside the glyph.
// u runs left to right across the bounding box, v runs top to bottom.
// The test is a horizontal even-odd ray count against every segment.
func (g *Glyph) Inside(u, v float64) bool {
	if g.Empty() {
		return false
	}
	px := g.Bounds.XMin + u*g.Bounds.Width()
	py := g.Bounds.YMax - v*g.Bounds.Height()
	n := 0
	for _, l := range g.Lines {
		if crossLine(l.A, l.B, px, py) {
			n++
		}
	}
	for _, q := range g.Quads {
		n += crossQuad(q, px, py)
	}
	return n%2 == 1
}

// crossLine uses a half-open y interval so shared vertices count once.
func crossLine(a, b vec.Vec2, px, py float64) bool {
	if a.Y == b.Y {
		return false
	}
	if (py < a.Y) == (py < b.Y) {
		return false
	}
	t := (py - a.Y) / (b.Y - a.Y)
	return a.X+t*(b.X-a.X) > px
}

func quadAt(q Quad, t float64) vec.Vec2 {
	s := 1 - t
	return vec.Vec2{
		X: s*s*q.A.X + 2*s*t*q.B.X + t*t*q.C.X,
		Y: s*s*q.A.Y + 2*s*t*q.B.Y + t*t*q.C.Y,
	}
}

// crossQuad splits the curve at its y extremum and counts crossings of each
// y-monotonic piece with the same half-open rule as crossLine.
func crossQuad(q Quad, px, py float64) int {
	ay := q.A.Y - 2*q.B.Y + q.C.Y
	by := 2 * (q.B.Y - q.A.Y)
	splits := []float64{0, 1}
	if ay != 0 {
		if te := -by / (2 * ay); te > 0 && te < 1 {
			splits = []float64{0, te, 1}
		}
	}
	n := 0
	for i := 0; i+1 < len(splits); i++ {
		t0, t1 := splits[i], splits[i+1]
		y0, y1 := quadAt(q, t0).Y, quadAt(q, t1).Y
		if y0 == y1 || (py < y0) == (py < y1) {
			continue
		}
		t, ok := solveMonotonic(ay, by, q.A.Y-py, t0, t1)
		if !ok {
			continue
		}
		if quadAt(q, t).X > px {
			n++
		}
	}
	return n
}

// solveMonotonic finds the root of a·t²+b·t+c inside [t0, t1].
func solveMonotonic(a, b, c, t0, t1 float64) (float64, bool) {
	const slack = 1e-9
	in := func(t float64) bool { return t >= t0-slack && t <= t1+slack }
	if math.Abs(a) < 1e-12 {
		if b == 0 {
			return 0, false
		}
		t := -c / b
		return clampT(t, t0, t1), in(t)
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		disc = 0
	}
	sq := math.Sqrt(disc)
	// 数值稳定的求根公式
	var qv float64
	if b >= 0 {
		qv = -0.5 * (b + sq)
	} else {
		qv = -0.5 * (b - sq)
	}
	roots := [2]float64{qv / a, math.Inf(1)}
	if qv != 0 {
		roots[1] = c / qv
	}
	for _, t := range roots {
		if in(t) {
			return clampT(t, t0, t1), true
		}
	}
	return 0, false
}

func clampT(t, t0, t1 float64) float64 {
	return math.Max(t0, math.Min(t1, t))
}

// RectGlyph builds a glyph whose outline is the rectangle b.
func RectGlyph(advance float64, b Bounds) *Glyph {
	p0 := vec.Vec2{X: b.XMin, Y: b.YMin}
	p1 := vec.Vec2{X: b.XMax, Y: b.YMin}
	p2 := vec.Vec2{X: b.XMax, Y: b.YMax}
	p3 := vec.Vec2{X: b.XMin, Y: b.YMax}
	return &Glyph{
		Advance: advance,
		Bounds:  b,
		Lines:   []Line{{p0, p1}, {p1, p2}, {p2, p3}, {p3, p0}},
	}
}
