package figure

import (
	"image"

	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/config"
)

// Fill paints its whole box with one colour.
type Fill struct {
	shape
}

func NewFill() *Fill { return &Fill{shape: newShape()} }

func (f *Fill) Kind() Kind { return KindFill }

func (f *Fill) Load(blk *config.Block, _ *Env) error {
	if err := f.loadShape(blk); err != nil {
		return err
	}
	return f.requireSize(KindFill)
}

func (f *Fill) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(f, pos, out)
}

// LineStyle selects solid, dashed or dotted strokes.
type LineStyle int

const (
	LineSolid LineStyle = iota
	LineDashed
	LineDotted
)

var lineStyles = map[string]LineStyle{
	"solid":  LineSolid,
	"dashed": LineDashed,
	"dotted": LineDotted,
}

// Line is a segment between two points in local [0,1]² coordinates.
// Thickness and the dash pattern are fractions of the longer side of the box.
type Line struct {
	shape
	Start, End     vec.Vec2
	Thickness      float64
	ThicknessPixel int
	Antialiased    bool
	Style          LineStyle
	// Pattern is (dash length, gap length).
	Pattern [2]float64
}

func NewLine() *Line {
	return &Line{
		shape:       newShape(),
		End:         vec.Vec2{X: 1, Y: 1},
		Thickness:   0.01,
		Antialiased: true,
		Pattern:     [2]float64{0.05, 0.05},
	}
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Load(blk *config.Block, _ *Env) error {
	if err := l.loadStyle(blk); err != nil {
		return err
	}
	return l.requireSize(KindLine)
}

// loadStyle reads everything but the size requirement, so composites can
// apply a partial block on top of their own defaults.
func (l *Line) loadStyle(blk *config.Block) error {
	if err := l.loadShape(blk); err != nil {
		return err
	}
	l.Start = vec2Of(blk, "start", l.Start)
	l.End = vec2Of(blk, "end", l.End)
	l.Thickness = blk.Float("thickness", l.Thickness)
	l.ThicknessPixel = blk.Int("thickness_pixel", l.ThicknessPixel)
	l.Antialiased = blk.Bool("antialiased", l.Antialiased)
	l.Pattern = blk.Vec2("style_pattern", l.Pattern)
	style, err := config.Enum(blk, "style", lineStyles, l.Style)
	if err != nil {
		return invalidf("%v", err)
	}
	l.Style = style
	if l.Thickness < 0 || l.ThicknessPixel < 0 {
		return invalidf("Line: 线宽不能为负")
	}
	if l.Style != LineSolid && (l.Pattern[0] <= 0 || l.Pattern[1] < 0) {
		return invalidf("Line: style_pattern 必须为正")
	}
	return nil
}

// clone copies the line's style and geometry.
func (l *Line) clone() *Line {
	c := *l
	return &c
}

func (l *Line) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(l, pos, out)
}

// PixelThickness resolves the stroke width for a box of the given size.
func (l *Line) PixelThickness(size image.Point) float64 {
	if l.ThicknessPixel > 0 {
		return float64(l.ThicknessPixel)
	}
	return l.Thickness * float64(max(size.X, size.Y))
}

// Circle is a filled disc. Center and Radius are in local coordinates; the
// radius is measured against the longer side so non-square boxes draw circles.
type Circle struct {
	shape
	Center      vec.Vec2
	Radius      float64
	Antialiased bool
}

func NewCircle() *Circle {
	return &Circle{shape: newShape(), Center: vec.Vec2{X: 0.5, Y: 0.5}, Radius: 0.5, Antialiased: true}
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) Load(blk *config.Block, _ *Env) error {
	if err := c.loadShape(blk); err != nil {
		return err
	}
	c.Center = vec2Of(blk, "center", c.Center)
	c.Radius = blk.Float("radius", c.Radius)
	c.Antialiased = blk.Bool("antialiased", c.Antialiased)
	if c.Radius < 0 {
		return invalidf("Circle: radius 不能为负")
	}
	return c.requireSize(KindCircle)
}

func (c *Circle) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(c, pos, out)
}

// Rectangle strokes the border of Region (x0, y0, x1, y1 in local coordinates).
type Rectangle struct {
	shape
	Region [4]float64
	// Thickness is a fraction of the shorter side, in [0, 0.5].
	Thickness      float64
	ThicknessPixel int
}

func NewRectangle() *Rectangle {
	return &Rectangle{shape: newShape(), Region: [4]float64{0, 0, 1, 1}, Thickness: 0.05}
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) Load(blk *config.Block, _ *Env) error {
	if err := r.loadStyle(blk); err != nil {
		return err
	}
	return r.requireSize(KindRectangle)
}

func (r *Rectangle) loadStyle(blk *config.Block) error {
	if err := r.loadShape(blk); err != nil {
		return err
	}
	r.Region = blk.Vec4("region", r.Region)
	r.Thickness = blk.Float("thickness", r.Thickness)
	r.ThicknessPixel = blk.Int("thickness_pixel", r.ThicknessPixel)
	if r.Thickness < 0 || r.Thickness > 0.5 {
		return invalidf("Rectangle: thickness 必须位于 [0, 0.5]")
	}
	return nil
}

func (r *Rectangle) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(r, pos, out)
}

// PixelThickness resolves the border width for a box of the given size.
func (r *Rectangle) PixelThickness(size image.Point) int {
	if r.ThicknessPixel > 0 {
		return r.ThicknessPixel
	}
	return max(1, int(r.Thickness*float64(min(size.X, size.Y))))
}

// Polygon is filled (or outlined) from one outer contour plus optional holes,
// all in local [0,1]² coordinates.
type Polygon struct {
	shape
	Contours           [][]vec.Vec2
	Outline            bool
	OutlineThickness   float64
	OutlineAntialiased bool
}

func NewPolygon() *Polygon {
	return &Polygon{shape: newShape(), OutlineThickness: 0.01, OutlineAntialiased: true}
}

func (p *Polygon) Kind() Kind { return KindPolygon }

func (p *Polygon) Load(blk *config.Block, _ *Env) error {
	if err := p.loadShape(blk); err != nil {
		return err
	}
	p.Outline = blk.Bool("outline", p.Outline)
	p.OutlineThickness = blk.Float("outline_thickness", p.OutlineThickness)
	p.OutlineAntialiased = blk.Bool("outline_antialiased", p.OutlineAntialiased)

	points, hasPoints := blk.Lookup("points")
	contours, hasContours := blk.Lookup("contours")
	switch {
	case hasPoints && hasContours:
		return invalidf("Polygon: points 与 contours 只能出现一个")
	case hasPoints:
		c, err := pointsOf(points)
		if err != nil {
			return err
		}
		p.Contours = [][]vec.Vec2{c}
	case hasContours:
		cs, err := contoursOf(contours)
		if err != nil {
			return err
		}
		p.Contours = cs
	default:
		return invalidf("Polygon: 缺少 points 或 contours")
	}
	for i, c := range p.Contours {
		if len(c) < 3 {
			return invalidf("Polygon: 轮廓 %d 至少需要 3 个点", i)
		}
	}
	return p.requireSize(KindPolygon)
}

func (p *Polygon) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(p, pos, out)
}

func vec2Of(blk *config.Block, key string, def vec.Vec2) vec.Vec2 {
	v := blk.Vec2(key, [2]float64{def.X, def.Y})
	return vec.Vec2{X: v[0], Y: v[1]}
}

// pointsOf accepts [[x, y], ...] or a block of [x, y] entries.
func pointsOf(v config.Value) ([]vec.Vec2, error) {
	var items []config.Value
	switch v.Kind() {
	case config.KindArray:
		items = v.Items()
	case config.KindBlock:
		blk := v.Block()
		for i := 0; i < blk.Len(); i++ {
			items = append(items, blk.ValueAt(i))
		}
	default:
		return nil, invalidf("Polygon: 点列表格式无效")
	}
	out := make([]vec.Vec2, 0, len(items))
	for _, it := range items {
		fs, ok := it.AsFloats()
		if !ok || len(fs) != 2 {
			return nil, invalidf("Polygon: 点必须是二维向量，实际为 %s", it)
		}
		out = append(out, vec.Vec2{X: fs[0], Y: fs[1]})
	}
	return out, nil
}

func contoursOf(v config.Value) ([][]vec.Vec2, error) {
	var items []config.Value
	switch v.Kind() {
	case config.KindArray:
		items = v.Items()
	case config.KindBlock:
		blk := v.Block()
		for i := 0; i < blk.Len(); i++ {
			items = append(items, blk.ValueAt(i))
		}
	default:
		return nil, invalidf("Polygon: 轮廓列表格式无效")
	}
	out := make([][]vec.Vec2, 0, len(items))
	for _, it := range items {
		c, err := pointsOf(it)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
