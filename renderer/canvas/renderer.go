package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/layout"
	"github.com/ByLCY/figura/logx"
	"github.com/ByLCY/figura/raster"
	"github.com/ByLCY/figura/renderer"
)

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	pointsPerPixel float64
	pageWidth      *layout.Length
	gamma          float64
	background     bitmap.Color
	raster         *raster.Renderer

	fontMu       sync.Mutex
	fontFamilies map[*fonts.Font]*canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	// PointsPerPixel 为每个图形像素对应的 pt 数，默认 layout.DefaultPointsPerPixel。
	PointsPerPixel float64
	// PageWidth 非空时按页面宽度推算缩放，覆盖 PointsPerPixel。
	PageWidth *layout.Length
	// Gamma 用于把线性颜色编码为 PDF 颜色，默认 2.2。
	Gamma float64
	// Background 为页面底色；nil 时为黑色。
	Background *bitmap.Color
}

// NewRenderer creates a canvas-based renderer with the default page scale.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer from opts.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		pointsPerPixel: opts.PointsPerPixel,
		pageWidth:      opts.PageWidth,
		gamma:          opts.Gamma,
		background:     bitmap.Black,
		raster:         raster.New(),
		fontFamilies:   map[*fonts.Font]*canvas.FontFamily{},
	}
	if r.pointsPerPixel <= 0 {
		r.pointsPerPixel = layout.DefaultPointsPerPixel
	}
	if r.gamma <= 0 {
		r.gamma = 2.2
	}
	if opts.Background != nil {
		r.background = *opts.Background
	}
	return r
}

// Scale returns the page scale used for a figure of the given pixel size.
func (r *Renderer) Scale(size image.Point) layout.PageScale {
	if r.pageWidth != nil && size.X > 0 {
		s := layout.FitWidth(size.X, *r.pageWidth)
		logx.Logger().Debug("按页面宽度缩放", "page_width", r.pageWidth.String(), "points_per_pixel", s.PointsPerPixel)
		return s
	}
	return layout.PageScale{PointsPerPixel: r.pointsPerPixel}
}

// Render renders the result into a single-page PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if !geom.ValidSize(result.Size) {
		return nil, fmt.Errorf("无效的画布尺寸 %v", result.Size)
	}
	s := r.Scale(result.Size)
	width, height := s.MM(float64(result.Size.X)), s.MM(float64(result.Size.Y))

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	r.applyMeta(writer, result.Meta)

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	if r.background.A > 0 {
		r.fillPath(ctx, 0, 0, canvas.Rectangle(width, height), r.background)
	}
	for _, inst := range result.Instances {
		if err := r.drawInstance(ctx, s, inst); err != nil {
			return nil, err
		}
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	writer.SetInfo(meta.Title, meta.Subject, meta.Keywords, meta.Author, "figura")
}

// box 为实例在页面上的毫米坐标。
type box struct {
	x, y, w, h float64
	// mm 为一个图形像素对应的毫米数
	mm float64
}

func boxOf(s layout.PageScale, d figure.InstanceData) box {
	return box{
		x:  s.MM(float64(d.Pos.X)),
		y:  s.MM(float64(d.Pos.Y)),
		w:  s.MM(float64(d.Size.X)),
		h:  s.MM(float64(d.Size.Y)),
		mm: s.MM(1),
	}
}

// local 将实例内 [0,1]² 坐标转换为相对实例左上角的毫米坐标。
func (b box) local(uv vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: uv.X * b.w, Y: uv.Y * b.h}
}

func (r *Renderer) drawInstance(ctx *canvas.Context, s layout.PageScale, inst figure.Instance) error {
	d := inst.Data
	if !geom.ValidSize(d.Size) {
		return nil
	}
	b := boxOf(s, d)
	switch p := inst.Prim.(type) {
	case *figure.Fill:
		r.fillPath(ctx, b.x, b.y, canvas.Rectangle(b.w, b.h), p.Color)
	case *figure.Rectangle:
		r.drawRectangle(ctx, b, p, d)
	case *figure.Line:
		r.drawLine(ctx, b, p, d)
	case *figure.Circle:
		r.drawCircle(ctx, b, p, d)
	case *figure.Polygon:
		r.drawPolygon(ctx, b, p, d)
	case *figure.Image:
		return r.drawImage(ctx, b, s, inst)
	case *figure.Glyph:
		r.drawGlyph(ctx, b, p, d)
	default:
		logx.Logger().Warn("PDF 输出不支持的图元，跳过", "kind", inst.Prim.Kind())
	}
	return nil
}

// colorOf 将线性颜色按 1/gamma 编码为 PDF 使用的 sRGB 颜色。
func (r *Renderer) colorOf(c bitmap.Color) color.RGBA {
	g := c.Gamma(1 / r.gamma)
	clamp := func(v float32) float64 { return math.Max(0, math.Min(1, float64(v))) }
	return canvas.RGBA(clamp(g.R), clamp(g.G), clamp(g.B), clamp(g.A))
}

func (r *Renderer) fillPath(ctx *canvas.Context, x, y float64, p *canvas.Path, c bitmap.Color) {
	ctx.SetFillColor(r.colorOf(c))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(x, y, p)
}

func (r *Renderer) strokePath(ctx *canvas.Context, x, y float64, p *canvas.Path, c bitmap.Color, width float64, capper canvas.Capper) {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(r.colorOf(c))
	ctx.SetStrokeWidth(width)
	ctx.SetStrokeCapper(capper)
	ctx.DrawPath(x, y, p)
}

// drawRectangle 以外框减内框的路径绘制边框，边宽与光栅化一致按整像素截断。
func (r *Renderer) drawRectangle(ctx *canvas.Context, b box, p *figure.Rectangle, d figure.InstanceData) {
	w, h := float64(d.Size.X), float64(d.Size.Y)
	region := image.Rect(int(p.Region[0]*w), int(p.Region[1]*h), int(p.Region[2]*w), int(p.Region[3]*h))
	if region.Empty() {
		return
	}
	t := p.PixelThickness(d.Size)
	t = min(t, (region.Dx()+1)/2, (region.Dy()+1)/2)
	inner := region.Inset(t)

	mm := func(v int) float64 { return float64(v) * b.mm }
	path := &canvas.Path{}
	path.MoveTo(mm(region.Min.X), mm(region.Min.Y))
	path.LineTo(mm(region.Max.X), mm(region.Min.Y))
	path.LineTo(mm(region.Max.X), mm(region.Max.Y))
	path.LineTo(mm(region.Min.X), mm(region.Max.Y))
	path.Close()
	if !inner.Empty() {
		// 反向的内框在非零规则下成为洞
		path.MoveTo(mm(inner.Min.X), mm(inner.Min.Y))
		path.LineTo(mm(inner.Min.X), mm(inner.Max.Y))
		path.LineTo(mm(inner.Max.X), mm(inner.Max.Y))
		path.LineTo(mm(inner.Max.X), mm(inner.Min.Y))
		path.Close()
	}
	r.fillPath(ctx, b.x, b.y, path, p.Color)
}

func (r *Renderer) drawLine(ctx *canvas.Context, b box, p *figure.Line, d figure.InstanceData) {
	a := b.local(geom.Clamp01(d.UV.Apply(p.Start)))
	e := b.local(geom.Clamp01(d.UV.Apply(p.End)))
	width := p.PixelThickness(d.Size) * b.mm
	dir := e.Sub(a)
	length := dir.Length()
	if length == 0 || width <= 0 {
		return
	}
	dir = dir.Mul(1 / length)
	long := math.Max(b.w, b.h)
	dash, gap := p.Pattern[0]*long, p.Pattern[1]*long
	along := func(t float64) vec.Vec2 { return a.Add(dir.Mul(t)) }

	switch p.Style {
	case figure.LineDashed:
		for _, iv := range Dashes(length, dash, gap) {
			s, t := along(iv[0]), along(iv[1])
			r.strokePath(ctx, b.x, b.y, segmentPath(s, t), p.Color, width, canvas.ButtCap)
		}
	case figure.LineDotted:
		for _, c := range Dots(length, dash, gap) {
			at := along(c)
			r.fillPath(ctx, b.x+at.X, b.y+at.Y, canvas.Circle(width/2), p.Color)
		}
	default:
		r.strokePath(ctx, b.x, b.y, segmentPath(a, e), p.Color, width, canvas.RoundCap)
	}
}

func segmentPath(a, b vec.Vec2) *canvas.Path {
	path := &canvas.Path{}
	path.MoveTo(a.X, a.Y)
	path.LineTo(b.X, b.Y)
	return path
}

// Dashes returns the [start, end] arc-length intervals painted by a dashed
// line of the given length.
func Dashes(length, dash, gap float64) [][2]float64 {
	period := dash + gap
	if period <= 0 || dash <= 0 {
		return [][2]float64{{0, length}}
	}
	var out [][2]float64
	for s := 0.0; s < length; s += period {
		out = append(out, [2]float64{s, math.Min(s+dash, length)})
	}
	return out
}

// Dots returns the arc-length positions of the dot centres of a dotted line.
func Dots(length, dash, gap float64) []float64 {
	period := dash + gap
	if period <= 0 {
		return []float64{length / 2}
	}
	first := math.Round(-dash / 2 / period)
	last := math.Round((length - dash/2) / period)
	var out []float64
	for k := first; k <= last; k++ {
		out = append(out, k*period+dash/2)
	}
	return out
}

// drawCircle 圆半径按长边度量，并裁剪到实例框内。
func (r *Renderer) drawCircle(ctx *canvas.Context, b box, p *figure.Circle, d figure.InstanceData) {
	long := math.Max(b.w, b.h)
	radius := p.Radius * long
	if radius <= 0 {
		return
	}
	c := b.local(p.Center)
	path := canvas.Circle(radius).Translate(c.X, c.Y)
	if c.X-radius < 0 || c.Y-radius < 0 || c.X+radius > b.w || c.Y+radius > b.h {
		path = path.And(canvas.Rectangle(b.w, b.h))
	}
	r.fillPath(ctx, b.x, b.y, path, p.Color)
}

func (r *Renderer) drawPolygon(ctx *canvas.Context, b box, p *figure.Polygon, d figure.InstanceData) {
	tris := raster.Triangulate(p.Contours)
	if len(tris) == 0 {
		return
	}
	fill := &canvas.Path{}
	for _, t := range tris {
		for i := range t {
			t[i] = b.local(t[i])
		}
		if p.Outline {
			width := p.OutlineThickness * math.Max(float64(d.Size.X), float64(d.Size.Y)) * b.mm
			outline := &canvas.Path{}
			outline.MoveTo(t[0].X, t[0].Y)
			outline.LineTo(t[1].X, t[1].Y)
			outline.LineTo(t[2].X, t[2].Y)
			outline.Close()
			r.strokePath(ctx, b.x, b.y, outline, p.Color, width, canvas.RoundCap)
			continue
		}
		// 三角形统一为同一方向，非零规则下取并集
		a, c := t[1], t[2]
		if raster.SignedArea(t[:]) < 0 {
			a, c = c, a
		}
		fill.MoveTo(t[0].X, t[0].Y)
		fill.LineTo(a.X, a.Y)
		fill.LineTo(c.X, c.Y)
		fill.Close()
	}
	if !p.Outline {
		r.fillPath(ctx, b.x, b.y, fill, p.Color)
	}
}

// drawImage 先用光栅化器在实例自身网格上采样，再以一图形像素一图像像素的分辨率嵌入。
func (r *Renderer) drawImage(ctx *canvas.Context, b box, s layout.PageScale, inst figure.Instance) error {
	local := inst
	local.Data.Pos = image.Point{}
	bm := bitmap.New(inst.Data.Size.X, inst.Data.Size.Y)
	r.raster.RenderInstance(local, bm)
	img := bm.ToImage(r.gamma)
	if img.Bounds().Empty() {
		return fmt.Errorf("图片实例尺寸无效 %v", inst.Data.Size)
	}
	ctx.DrawImage(b.x, b.y, img, canvas.DPMM(s.DotsPerMM()))
	return nil
}
