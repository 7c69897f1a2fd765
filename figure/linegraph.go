package figure

import (
	"image"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
)

// Palette names a fixed list of colours for plot lines.
type Palette int

const (
	PaletteNone Palette = iota
	PaletteGray10
	PaletteSet1
	PaletteSet2
)

var paletteNames = map[string]Palette{
	"gray10": PaletteGray10,
	"set1":   PaletteSet1,
	"set2":   PaletteSet2,
}

var paletteHex = map[Palette][]string{
	PaletteGray10: {"#000000", "#1a1a1a", "#333333", "#4d4d4d", "#666666", "#808080", "#999999", "#b3b3b3", "#cccccc", "#e6e6e6"},
	PaletteSet1:   {"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00", "#ffff33", "#a65628", "#f781bf", "#999999"},
	PaletteSet2:   {"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854", "#ffd92f", "#e5c494", "#b3b3b3"},
}

// Colors returns the palette in linear RGB.
func (p Palette) Colors() []bitmap.Color {
	hex := paletteHex[p]
	if len(hex) == 0 {
		return []bitmap.Color{{R: 1, A: 1}}
	}
	out := make([]bitmap.Color, len(hex))
	for i, h := range hex {
		c, _ := colorful.Hex(h)
		r, g, b := c.LinearRgb()
		out[i] = bitmap.RGBA(r, g, b, 1)
	}
	return out
}

// LineGraph draws a polyline through normalized points, optionally with dots
// and text labels. It is built out of an internal Collage which is rebuilt
// when the configuration changes.
type LineGraph struct {
	base
	// Name is shown in a LinePlot legend.
	Name   string
	Values []vec.Vec2
	Labels []string
	// LabelsFromY asks for one label per point showing its y value.
	LabelsFromY bool
	Color       bitmap.Color
	Thickness   float64
	UsePoints   bool
	PointSize   float64

	labelStyle *Text
	collage    *Collage
	dirty      bool
}

func NewLineGraph() *LineGraph {
	return &LineGraph{
		base:       newBase(),
		Color:      bitmap.Color{R: 1, A: 1},
		Thickness:  0.01,
		PointSize:  0.01,
		labelStyle: NewText(),
		dirty:      true,
	}
}

func (g *LineGraph) Kind() Kind { return KindLineGraph }

// SetValues replaces the points and marks the graph for rebuild.
func (g *LineGraph) SetValues(values []vec.Vec2, labels []string) {
	g.Values = values
	g.Labels = labels
	g.dirty = true
}

// SetSize sets the configured size.
func (g *LineGraph) SetSize(size image.Point) {
	g.declared = size
	g.dirty = true
}

// Collage returns the internal collage, rebuilding it if needed.
func (g *LineGraph) Collage() *Collage {
	if g.dirty || g.collage == nil {
		g.rebuild()
	}
	return g.collage
}

func (g *LineGraph) Load(blk *config.Block, env *Env) error {
	g.declared = blk.IVec2("size", g.declared)
	if err := g.loadSeries(blk, env); err != nil {
		return err
	}
	if !geom.ValidSize(g.declared) {
		return invalidf("LineGraph: 必须显式声明 size")
	}
	return nil
}

// loadSeries reads the points, labels and styling of one graph. A size found
// in the line block is taken, but not required: LinePlot sizes its graphs.
func (g *LineGraph) loadSeries(blk *config.Block, env *Env) error {
	g.Name = blk.String("name", g.Name)
	palette, err := config.Enum(blk, "palette", paletteNames, PaletteNone)
	if err != nil {
		return invalidf("LineGraph: %v", err)
	}
	if palette != PaletteNone {
		colors := palette.Colors()
		g.Color = colors[blk.Int("palette_index", 0)%len(colors)]
	}
	if lb := blk.Block("line"); lb != nil {
		g.declared = lb.IVec2("size", g.declared)
		if g.Color, err = colorOf(lb, "color", g.Color); err != nil {
			return err
		}
		g.Thickness = lb.Float("thickness", g.Thickness)
		g.UsePoints = lb.Bool("use_points", g.UsePoints)
		g.PointSize = lb.Float("point_size", g.PointSize)
	}

	xs, ys := blk.Floats("x_values"), blk.Floats("y_values")
	if len(xs) != len(ys) {
		return invalidf("LineGraph: x_values 与 y_values 长度不同")
	}
	if len(xs) == 0 {
		return invalidf("LineGraph: 没有数据点")
	}
	normalize := func(v, lo, hi float64) float64 { return (v - lo) / (hi - lo) }
	xr, hasXR := blk.Vec2("x_range", [2]float64{}), blk.Has("x_range")
	yr, hasYR := blk.Vec2("y_range", [2]float64{}), blk.Has("y_range")
	if (hasXR && xr[1] == xr[0]) || (hasYR && yr[1] == yr[0]) {
		return invalidf("LineGraph: 范围上下界不能相同")
	}
	values := make([]vec.Vec2, len(xs))
	for i := range xs {
		x, y := xs[i], ys[i]
		if hasXR {
			x = normalize(x, xr[0], xr[1])
		}
		if hasYR {
			// 图表 y 轴向上
			y = 1 - normalize(y, yr[0], yr[1])
		}
		values[i] = vec.Vec2{X: x, Y: y}
	}

	labels := blk.Strings("labels")
	if len(labels) != 0 && len(labels) != len(values) {
		return invalidf("LineGraph: labels 数量必须与数据点一致")
	}
	g.LabelsFromY = len(labels) == 0 && blk.Bool("labels_from_y_values", false)
	if g.LabelsFromY {
		labels = make([]string, len(ys))
		for i, y := range ys {
			labels[i] = strconv.FormatFloat(y, 'g', 4, 64)
		}
	}
	g.SetValues(values, labels)

	if len(labels) != 0 {
		tb := blk.Block("text")
		if tb == nil {
			tb = config.NewBlock()
		}
		if err := g.labelStyle.Load(tb, env); err != nil {
			return err
		}
	}
	return nil
}

func (g *LineGraph) rebuild() {
	c := NewCollage()
	size := g.declared
	for i := 0; i+1 < len(g.Values); i++ {
		l := NewLine()
		l.Start, l.End = g.Values[i], g.Values[i+1]
		l.Color = g.Color
		l.Thickness = g.Thickness
		l.declared = size
		c.Add(image.Point{}, size, l)
	}
	if g.UsePoints {
		for _, v := range g.Values {
			p := NewCircle()
			p.Center = v
			p.Radius = g.PointSize
			p.Color = g.Color
			p.declared = size
			c.Add(image.Point{}, size, p)
		}
	}
	for i, s := range g.Labels {
		if s == "" || g.labelStyle.font == nil {
			continue
		}
		t := g.labelStyle.withContent(s)
		box := t.CalculateSize(geom.Unset)
		off := int(0.1 * float64(box.Y))
		if g.UsePoints {
			off += int(float64(max(size.X, size.Y)) * g.PointSize)
		}
		pos := image.Point{
			X: int(float64(size.X)*g.Values[i].X) - box.X/2,
			Y: int(float64(size.Y)*g.Values[i].Y) - box.Y - off,
		}
		hi := size.Sub(box).Sub(image.Pt(off, off))
		pos.X = max(0, min(pos.X, hi.X))
		pos.Y = max(0, min(pos.Y, hi.Y))
		c.Add(pos, box, t)
	}
	g.collage = c
	g.dirty = false
}

func (g *LineGraph) CalculateSize(force image.Point) image.Point {
	g.size = g.Collage().CalculateSize(force)
	return g.size
}

func (g *LineGraph) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return g.Collage().PrepareInstances(pos, out)
}
