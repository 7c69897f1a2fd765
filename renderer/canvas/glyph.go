package canvasrenderer

import (
	"math"

	"github.com/tdewolff/canvas"
	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/layout"
	"github.com/ByLCY/figura/logx"
)

// aspectTolerance 为字形框与字形边界宽高比允许的相对误差，超出时按轮廓路径绘制。
const aspectTolerance = 0.1

// drawGlyph 未变形且字体可嵌入时写为单字符文本，否则写为轮廓路径。
func (r *Renderer) drawGlyph(ctx *canvas.Context, b box, p *figure.Glyph, d figure.InstanceData) {
	if p.Outline.Empty() {
		return
	}
	if TextRun(p, d) {
		if family := r.fontFamily(p.Font); family != nil {
			r.drawGlyphText(ctx, b, p, family)
			return
		}
	}
	inv, ok := d.UV.Inverse()
	if !ok {
		return
	}
	bounds := p.Outline.Bounds
	toLocal := func(v vec.Vec2) vec.Vec2 {
		uv := vec.Vec2{
			X: (v.X - bounds.XMin) / bounds.Width(),
			Y: (bounds.YMax - v.Y) / bounds.Height(),
		}
		return b.local(inv.Apply(uv))
	}
	path := OutlinePath(p.Outline, toLocal)
	if !d.UV.IsIdentity(1e-9) {
		path = path.And(canvas.Rectangle(b.w, b.h))
	}
	r.fillPath(ctx, b.x, b.y, path, p.Color)
}

// TextRun reports whether a glyph instance can be written as a text run: the
// box is not warped and keeps the glyph's aspect ratio.
func TextRun(p *figure.Glyph, d figure.InstanceData) bool {
	if p.Font == nil || len(p.Font.Data()) == 0 || !d.UV.IsIdentity(1e-9) {
		return false
	}
	bw, bh := p.Outline.Bounds.Width(), p.Outline.Bounds.Height()
	sx, sy := float64(d.Size.X)/bw, float64(d.Size.Y)/bh
	return math.Abs(sx-sy) <= aspectTolerance*math.Max(sx, sy)
}

func (r *Renderer) drawGlyphText(ctx *canvas.Context, b box, p *figure.Glyph, family *canvas.FontFamily) {
	bounds := p.Outline.Bounds
	perUnit := b.h / bounds.Height()
	sizePt := perUnit * float64(p.Font.UnitsPerEm) * layout.MmToPt
	face := family.Face(sizePt, r.colorOf(p.Color), canvas.FontRegular, canvas.FontNormal)
	line := canvas.NewTextLine(face, string(p.Rune), canvas.Left)
	// 字形框左上角对应 (XMin, YMax)，由此推出笔位置与基线
	ctx.DrawText(b.x-bounds.XMin*perUnit, b.y+bounds.YMax*perUnit, line)
}

// fontFamily 以字体对象为键缓存 canvas 字体族；无法嵌入时返回 nil。
func (r *Renderer) fontFamily(f *fonts.Font) *canvas.FontFamily {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if family, ok := r.fontFamilies[f]; ok {
		return family
	}
	family := canvas.NewFontFamily(f.Name)
	if err := family.LoadFont(f.Data(), 0, canvas.FontRegular); err != nil {
		logx.Logger().Warn("字体无法嵌入 PDF，改用轮廓", "font", f.Name, "err", err)
		family = nil
	}
	r.fontFamilies[f] = family
	return family
}

type outlineSeg struct {
	a, ctrl, b vec.Vec2
	quad       bool
}

// OutlinePath joins a glyph's line and quadratic segments back into closed
// contours, mapping every point through toLocal.
func OutlinePath(g *fonts.Glyph, toLocal func(vec.Vec2) vec.Vec2) *canvas.Path {
	segs := make([]outlineSeg, 0, len(g.Lines)+len(g.Quads))
	for _, l := range g.Lines {
		segs = append(segs, outlineSeg{a: l.A, b: l.B})
	}
	for _, q := range g.Quads {
		segs = append(segs, outlineSeg{a: q.A, ctrl: q.B, b: q.C, quad: true})
	}
	byStart := map[vec.Vec2][]int{}
	for i, s := range segs {
		byStart[s.a] = append(byStart[s.a], i)
	}
	used := make([]bool, len(segs))
	next := func(at vec.Vec2) int {
		for _, i := range byStart[at] {
			if !used[i] {
				return i
			}
		}
		return -1
	}

	path := &canvas.Path{}
	for i := range segs {
		if used[i] {
			continue
		}
		start := segs[i].a
		p := toLocal(start)
		path.MoveTo(p.X, p.Y)
		for j := i; j >= 0; {
			used[j] = true
			s := segs[j]
			end := toLocal(s.b)
			if s.quad {
				c := toLocal(s.ctrl)
				path.QuadTo(c.X, c.Y, end.X, end.Y)
			} else {
				path.LineTo(end.X, end.Y)
			}
			if s.b == start {
				break
			}
			j = next(s.b)
		}
		path.Close()
	}
	return path
}
