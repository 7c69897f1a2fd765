package figure

import (
	"fmt"
	"image"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/logx"
)

// LegendPosition places the legend of a LinePlot.
type LegendPosition int

const (
	LegendNone LegendPosition = iota
	LegendTopLeft
	LegendTopRight
	LegendBottomLeft
	LegendBottomRight
	LegendInsideGraph
)

var legendPositions = map[string]LegendPosition{
	"none":        LegendNone,
	"topleft":     LegendTopLeft,
	"topright":    LegendTopRight,
	"bottomleft":  LegendBottomLeft,
	"bottomright": LegendBottomRight,
	"insidegraph": LegendInsideGraph,
}

const (
	maxTickText      = 15
	defaultTickCount = 5
	// plotPadding is the margin around the whole plot, relative to its extent.
	plotPadding = 0.025
	// rangeMargin widens the data range on each side.
	rangeMargin = 0.05
)

// LinePlot is a chart: one or more LineGraphs over a background with axes,
// tick lines and tick labels, axis labels, a header and an optional legend.
// Everything is assembled once at load time into an internal Collage; size
// negotiation and flattening go through it.
type LinePlot struct {
	base
	Graphs []*LineGraph
	// XRange and YRange are the data ranges mapped onto the plot body.
	XRange, YRange [2]float64
	XTicks, YTicks []float64
	Legend         LegendPosition

	plot *Collage
}

func NewLinePlot() *LinePlot { return &LinePlot{base: newBase()} }

func (p *LinePlot) Kind() Kind { return KindLinePlot }

// Plot returns the assembled collage.
func (p *LinePlot) Plot() *Collage { return p.plot }

// plotStyle is the shared defaults every part of the plot starts from.
type plotStyle struct {
	size       image.Point
	background bitmap.Color
	text       *Text
	line       *Line
	env        *Env
}

// textFrom returns a copy of the default text with blk applied on top.
func (s *plotStyle) textFrom(blk *config.Block) (*Text, error) {
	t := s.text.clone()
	if blk != nil {
		if err := t.Load(blk, s.env); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *plotStyle) lineFrom(blk *config.Block, start, end vec.Vec2) (*Line, error) {
	l := s.line.clone()
	if blk != nil {
		if err := l.loadStyle(blk); err != nil {
			return nil, err
		}
	}
	l.declared = s.size
	l.Start, l.End = start, end
	return l, nil
}

func (s *plotStyle) fill(size image.Point) *Fill {
	f := NewFill()
	f.Color = s.background
	f.declared = size
	return f
}

func (p *LinePlot) Load(blk *config.Block, env *Env) error {
	p.declared = blk.IVec2("size", p.declared)
	if !geom.ValidSize(p.declared) {
		return invalidf("LinePlot: 必须显式声明 size")
	}
	size := p.declared

	st := &plotStyle{size: size, env: env}
	var err error
	if st.background, err = colorOf(blk, "background_color", bitmap.White); err != nil {
		return err
	}
	st.text = NewText()
	st.text.AlignX, st.text.AlignY = AlignCenterX, AlignCenterY
	st.text.FontName = blk.String("font_name", "")
	st.text.FontSize = blk.Float("font_size", 64)
	if st.text.Color, err = colorOf(blk, "text_color", bitmap.Black); err != nil {
		return err
	}
	// 空块只解析字体
	if err := st.text.Load(config.NewBlock(), env); err != nil {
		return err
	}
	st.line = NewLine()
	st.line.Color = bitmap.RGBA(0.25, 0.25, 0.25, 1)
	st.line.Thickness = 0.0033

	legendAt := vec.Vec2{X: 1, Y: 1}
	if lb := blk.Block("legend"); lb != nil {
		if p.Legend, err = config.Enum(lb, "position", legendPositions, LegendInsideGraph); err != nil {
			return invalidf("LinePlot: %v", err)
		}
		legendAt = vec2Of(lb, "pos", legendAt)
	}

	if err := p.loadGraphs(blk, st); err != nil {
		return err
	}
	if err := p.fitRanges(blk); err != nil {
		return err
	}

	header := st.text.clone()
	header.RetainWidth = true
	header.AlignY = AlignTop
	if hb := blk.Block("header"); hb != nil {
		if err := header.Load(hb, env); err != nil {
			return err
		}
	}
	// 只固定宽度，给定完整 size 会让文字被缩放
	header.declared = image.Pt(size.X, -1)

	var yFormat string
	p.YTicks, yFormat = ticks(blk.Block("y_ticks"), p.YRange)
	var xFormat string
	p.XTicks, xFormat = ticks(blk.Block("x_ticks"), p.XRange)
	for _, g := range p.Graphs {
		if !g.LabelsFromY {
			continue
		}
		labels := make([]string, len(g.Values))
		for i, v := range g.Values {
			labels[i] = formatTick(yFormat, (1-v.Y)*(p.YRange[1]-p.YRange[0])+p.YRange[0])
		}
		g.SetValues(g.Values, labels)
	}

	body, err := p.body(blk, st, legendAt)
	if err != nil {
		return err
	}
	yAxis, err := p.yAxis(blk, st, yFormat)
	if err != nil {
		return err
	}
	xTicks, err := p.xTickRow(blk, st, xFormat, yAxis.CalculateSize(geom.Unset).X)
	if err != nil {
		return err
	}
	xLabel, err := st.textFrom(blk.Block("x_label"))
	if err != nil {
		return err
	}
	xLabel.RetainWidth = true
	xLabel.declared = image.Pt(size.X, -1)

	graph := NewGrid()
	graph.AddRow(yAxis, body.plot)
	graph.AddRow(xTicks)
	graph.AddRow(xLabel)

	full := NewGrid()
	full.AddRow(header)
	var row []Figure
	switch p.Legend {
	case LegendTopLeft:
		row = append(row, body.legend)
	case LegendBottomLeft:
		row = append(row, bottomAligned(body.legend, size.Y))
	}
	row = append(row, graph)
	switch p.Legend {
	case LegendTopRight:
		row = append(row, body.legend)
	case LegendBottomRight:
		row = append(row, bottomAligned(body.legend, size.Y))
	}
	full.AddRow(row...)

	grid := full.CalculateSize(geom.Unset)
	outer := geom.ScalePoint(grid, 1+2*plotPadding, 1+2*plotPadding)
	p.plot = NewCollage()
	p.plot.Add(image.Point{}, outer, st.fill(outer))
	p.plot.Add(geom.ScalePoint(grid, plotPadding, plotPadding), grid, full)
	return nil
}

// loadGraphs reads every inline `graph` block. Graphs that fail to load are
// skipped; a plot without any graph is an error.
func (p *LinePlot) loadGraphs(blk *config.Block, st *plotStyle) error {
	palette, err := config.Enum(blk, "palette", paletteNames, PaletteSet1)
	if err != nil {
		return invalidf("LinePlot: %v", err)
	}
	colors := palette.Colors()
	for i := 0; i < blk.Len(); i++ {
		gb := blk.BlockAt(i)
		if gb == nil {
			continue
		}
		switch blk.Name(i) {
		case "graph":
		case "graphs":
			logx.Logger().Warn("LinePlot: 不支持外部数据源的 graphs 块，已忽略")
			continue
		default:
			continue
		}
		g := NewLineGraph()
		g.Name = fmt.Sprintf("Graph %d", len(p.Graphs))
		g.Color = colors[len(p.Graphs)%len(colors)]
		g.labelStyle = st.text.withContent("")
		if err := g.loadSeries(gb, st.env); err != nil {
			logx.Logger().Warn("LinePlot: 跳过无法加载的曲线", "index", len(p.Graphs), "err", err)
			continue
		}
		p.Graphs = append(p.Graphs, g)
	}
	if len(p.Graphs) == 0 {
		return invalidf("LinePlot: 没有可用的 graph")
	}
	return nil
}

// fitRanges derives the data ranges from all points, widened by a margin on
// each side unless given explicitly, and maps every graph into them.
func (p *LinePlot) fitRanges(blk *config.Block) error {
	lo := vec.Vec2{X: math.Inf(1), Y: math.Inf(1)}
	hi := vec.Vec2{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, g := range p.Graphs {
		for _, v := range g.Values {
			lo = vec.Vec2{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y)}
			hi = vec.Vec2{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y)}
		}
	}
	widen := func(lo, hi float64) [2]float64 {
		if hi-lo == 0 {
			return [2]float64{lo - 0.5, hi + 0.5}
		}
		lo -= (hi - lo) * rangeMargin
		hi += (hi - lo) * rangeMargin
		return [2]float64{lo, hi}
	}
	p.XRange = blk.Vec2("x_range", widen(lo.X, hi.X))
	p.YRange = blk.Vec2("y_range", widen(lo.Y, hi.Y))
	if p.XRange[1] == p.XRange[0] || p.YRange[1] == p.YRange[0] {
		return invalidf("LinePlot: 范围上下界不能相同")
	}
	for _, g := range p.Graphs {
		values := make([]vec.Vec2, len(g.Values))
		for i, v := range g.Values {
			values[i] = vec.Vec2{
				X: (v.X - p.XRange[0]) / (p.XRange[1] - p.XRange[0]),
				Y: 1 - (v.Y-p.YRange[0])/(p.YRange[1]-p.YRange[0]),
			}
		}
		g.SetValues(values, g.Labels)
		g.SetSize(p.declared)
	}
	return nil
}

// norm maps a data value into [0,1] along r.
func norm(v float64, r [2]float64) float64 { return (v - r[0]) / (r[1] - r[0]) }

type plotBody struct {
	plot   *Collage
	legend *Collage
}

// body assembles the plotting area: background, tick lines, graphs, axes and
// an inside legend, all sharing the plot size.
func (p *LinePlot) body(blk *config.Block, st *plotStyle, legendAt vec.Vec2) (plotBody, error) {
	size := st.size
	b := plotBody{plot: NewCollage()}
	b.plot.SetSize(size)
	b.plot.Add(image.Point{}, size, st.fill(size))
	for _, v := range p.XTicks {
		x := norm(v, p.XRange)
		l, err := st.lineFrom(blk.Block("x_tick_lines"), vec.Vec2{X: x, Y: 1}, vec.Vec2{X: x, Y: 0})
		if err != nil {
			return b, err
		}
		b.plot.Add(image.Point{}, size, l)
	}
	for _, v := range p.YTicks {
		y := 1 - norm(v, p.YRange)
		l, err := st.lineFrom(blk.Block("y_tick_lines"), vec.Vec2{X: 0, Y: y}, vec.Vec2{X: 1, Y: y})
		if err != nil {
			return b, err
		}
		b.plot.Add(image.Point{}, size, l)
	}
	for _, g := range p.Graphs {
		b.plot.Add(image.Point{}, size, g)
	}

	xAxis, err := st.lineFrom(blk.Block("x_axis"), vec.Vec2{X: 0, Y: 1}, vec.Vec2{X: 1, Y: 1})
	if err != nil {
		return b, err
	}
	off := int(0.5 * float64(max(size.X, size.Y)) * xAxis.Thickness)
	b.plot.Add(image.Pt(0, off), image.Pt(size.X, size.Y-off), xAxis)
	yAxis, err := st.lineFrom(blk.Block("y_axis"), vec.Vec2{X: 0, Y: 1}, vec.Vec2{X: 0, Y: 0})
	if err != nil {
		return b, err
	}
	off = int(0.5 * float64(max(size.X, size.Y)) * yAxis.Thickness)
	b.plot.Add(image.Pt(off, 0), image.Pt(size.X-off, size.Y), yAxis)

	if p.Legend == LegendNone {
		return b, nil
	}
	if b.legend, err = p.buildLegend(blk.Block("legend"), st); err != nil {
		return b, err
	}
	if p.Legend == LegendInsideGraph {
		ls := b.legend.CalculateSize(geom.Unset)
		at := image.Point{
			X: min(int(legendAt.X*float64(size.X)), size.X-ls.X-1),
			Y: min(int(legendAt.Y*float64(size.Y)), size.Y-ls.Y-1),
		}
		b.plot.Add(at, ls, b.legend)
	}
	return b, nil
}

// buildLegend lays out one row per graph: a line sample in the graph's
// colour followed by its name, inside a bordered box.
func (p *LinePlot) buildLegend(lb *config.Block, st *plotStyle) (*Collage, error) {
	if lb == nil {
		lb = config.NewBlock()
	}
	lineLength := lb.Float("line_length", 0.25)
	hGap := lb.Float("horizontal_gap", 0.05)
	vGap := lb.Float("vertical_gap", 0.05)
	lineTextGap := lb.Float("line_text_gap", 0.05)

	grid := NewGrid()
	type legendRow struct {
		line *Line
		text *Text
	}
	rows := make([]legendRow, len(p.Graphs))
	for i, g := range p.Graphs {
		l := st.line.clone()
		l.Color, l.Thickness = g.Color, g.Thickness
		l.declared = image.Pt(1, 1)
		l.Start = vec.Vec2{X: 0, Y: 0.5}
		l.End = vec.Vec2{X: lineLength / (lineLength + lineTextGap), Y: 0.5}

		t := st.text.withContent(g.Name)
		if tb := lb.Block("text"); tb != nil {
			if err := t.Load(tb, st.env); err != nil {
				return nil, err
			}
		}
		rows[i] = legendRow{l, t}
		grid.AddRow(l, t)
	}

	base := grid.CalculateSize(geom.Unset)
	for _, r := range rows {
		r.line.declared = image.Point{
			X: max(1, int((lineLength+lineTextGap)*float64(base.X))),
			Y: max(1, r.text.Size().Y),
		}
		// 图例中的线宽与图中曲线的像素线宽一致
		r.line.Thickness *= float64(max(st.size.X, st.size.Y)) / float64(max(r.line.declared.X, r.line.declared.Y))
	}
	base = grid.CalculateSize(geom.Unset)
	box := geom.ScalePoint(base, 1+2*hGap, 1+2*vGap)

	border := NewRectangle()
	border.Thickness = lb.Float("border_thickness", 0.01)
	var err error
	if border.Color, err = colorOf(lb, "border_color", bitmap.Black); err != nil {
		return nil, err
	}
	if bb := lb.Block("border"); bb != nil {
		if err := border.loadStyle(bb); err != nil {
			return nil, err
		}
	}
	border.declared = box

	background := NewFill()
	background.Color = bitmap.White
	if bb := lb.Block("background"); bb != nil {
		if err := background.loadShape(bb); err != nil {
			return nil, err
		}
	}
	background.declared = box

	c := NewCollage()
	c.Add(image.Point{}, box, background)
	c.Add(geom.ScalePoint(base, hGap, vGap), base, grid)
	c.Add(image.Point{}, box, border)
	return c, nil
}

// yAxis is the row left of the body: label, gap, tick labels, gap.
func (p *LinePlot) yAxis(blk *config.Block, st *plotStyle, format string) (*Grid, error) {
	size := st.size
	label, err := st.textFrom(blk.Block("y_label"))
	if err != nil {
		return nil, err
	}
	label.RetainHeight = true
	label.declared = image.Pt(-1, size.Y)

	tickLabels := NewCollage()
	for _, v := range p.YTicks {
		t, err := st.textFrom(blk.Block("y_ticks"))
		if err != nil {
			return nil, err
		}
		t.declared = image.Pt(1000, -1)
		t.Content = formatTick(format, v)
		ts := t.CalculateSize(geom.Unset)
		center := int(float64(size.Y) * norm(v, p.YRange))
		tickLabels.Add(image.Pt(0, max(0, size.Y-center-ts.Y/2)), ts, t)
	}

	gap := image.Pt(max(1, int(label.FontSize/2)), size.Y)
	g := NewGrid()
	g.AddRow(label, st.fill(gap), tickLabels, st.fill(gap))
	return g, nil
}

// xTickRow places the x tick labels under the body, shifted by the width of
// the y axis column.
func (p *LinePlot) xTickRow(blk *config.Block, st *plotStyle, format string, yAxisWidth int) (*Collage, error) {
	size := st.size
	c := NewCollage()
	box := size.X / max(1, len(p.XTicks))
	var fontSize float64
	var labels []*Text
	for _, v := range p.XTicks {
		t, err := st.textFrom(blk.Block("x_ticks"))
		if err != nil {
			return nil, err
		}
		t.declared = image.Pt(max(1, box), -1)
		t.RetainWidth = true
		t.Content = formatTick(format, v)
		t.CalculateSize(geom.Unset)
		fontSize = t.FontSize
		labels = append(labels, t)
	}
	// 占位条保证刻度行至少有半个字高
	c.Add(image.Pt(0, int(0.5*fontSize)), image.Pt(yAxisWidth+size.X, 1), st.fill(image.Pt(yAxisWidth+size.X, 1)))
	for i, t := range labels {
		ts := t.Size()
		center := int(float64(size.X) * norm(p.XTicks[i], p.XRange))
		c.Add(image.Pt(yAxisWidth+center-ts.X/2, 0), ts, t)
	}
	return c, nil
}

// bottomAligned wraps the legend so its bottom lines up with the plot body.
func bottomAligned(legend *Collage, height int) *Collage {
	ls := legend.CalculateSize(geom.Unset)
	c := NewCollage()
	c.Add(image.Pt(0, max(0, height-ls.Y)), ls, legend)
	return c
}

// ticks returns the tick values and their printf format for range r. The
// block may list explicit values, a format and a count.
func ticks(blk *config.Block, r [2]float64) ([]float64, string) {
	format := tickFormat(r)
	count := defaultTickCount
	var values []float64
	if blk != nil {
		values = blk.Floats("values")
		format = blk.String("format", format)
		count = blk.Int("count", count)
	}
	if len(values) == 0 {
		count = max(1, count)
		step := (r[1] - r[0]) / float64(count)
		for i := 0; i < count; i++ {
			values = append(values, roundTick(r[0]+step*(float64(i)+0.5), r))
		}
	}
	return values, format
}

// tickFormat picks the number of decimals from the extent of r.
func tickFormat(r [2]float64) string {
	switch d := r[1] - r[0]; {
	case d < 1e-4:
		return "%.7f"
	case d < 1e-3:
		return "%.6f"
	case d < 1e-2:
		return "%.5f"
	case d < 1e-1:
		return "%.4f"
	case d < 1:
		return "%.3f"
	case d < 10:
		return "%.2f"
	case d < 100:
		return "%.1f"
	default:
		return "%.0f"
	}
}

// roundTick snaps an automatic tick to a step that depends on the extent of r.
func roundTick(v float64, r [2]float64) float64 {
	var step float64
	switch d := r[1] - r[0]; {
	case d < 1e-4:
		step = 1e-7
	case d < 1e-3:
		step = 1e-6
	case d < 1e-2:
		step = 1e-5
	case d < 1e-1:
		step = 1e-4
	case d < 1:
		step = 1e-3
	case d < 100:
		step = 1
	case d < 1000:
		step = 10
	case d < 10000:
		step = 100
	default:
		step = 1000
	}
	return step * math.Round(v/step)
}

func formatTick(format string, v float64) string {
	s := fmt.Sprintf(format, v)
	if len(s) > maxTickText {
		s = s[:maxTickText]
	}
	return s
}

func (p *LinePlot) CalculateSize(force image.Point) image.Point {
	if !geom.ValidSize(force) && geom.ValidSize(p.declared) {
		force = p.declared
	}
	p.size = p.plot.CalculateSize(force)
	return p.size
}

// PrepareInstances emits every glyph after all other primitives, so text
// stays on top of lines and fills.
func (p *LinePlot) PrepareInstances(pos image.Point, out []Instance) []Instance {
	local := p.plot.PrepareInstances(pos, nil)
	for _, inst := range local {
		if inst.Prim.Kind() != KindGlyph {
			out = append(out, inst)
		}
	}
	for _, inst := range local {
		if inst.Prim.Kind() == KindGlyph {
			out = append(out, inst)
		}
	}
	return out
}
