package figure

import (
	"image"
	"math"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/logx"
)

type (
	AlignX int
	AlignY int
)

const (
	AlignLeft AlignX = iota
	AlignRight
	AlignCenterX
)

const (
	AlignTop AlignY = iota
	AlignBottom
	AlignCenterY
)

var (
	alignXNames = map[string]AlignX{"left": AlignLeft, "right": AlignRight, "center": AlignCenterX}
	alignYNames = map[string]AlignY{"top": AlignTop, "bottom": AlignBottom, "center": AlignCenterY}
)

// PlacedGlyph is a glyph primitive with its offset inside the Text box.
type PlacedGlyph struct {
	Glyph *Glyph
	Pos   image.Point
	Line  int
}

// textItem is one non-space rune during layout. Empty glyphs keep their slot
// so word moves stay index-stable, but never produce an instance.
type textItem struct {
	r       rune
	outline *fonts.Glyph
	advance float64
	pos     image.Point
	size    image.Point
	line    int
}

// Text lays a string out in glyphs: greedy word wrap at the configured width,
// per-line horizontal and block vertical alignment, uniform rescale to a
// forced size. The layout is rebuilt on every CalculateSize call.
type Text struct {
	base
	Content         string
	FontName        string
	FontSize        float64
	Color           bitmap.Color
	BackgroundColor bitmap.Color
	RetainWidth     bool
	RetainHeight    bool
	AlignX          AlignX
	AlignY          AlignY

	font          *fonts.Font
	background    *Fill
	placed        []PlacedGlyph
	effectiveSize float64
}

func NewText() *Text {
	return &Text{
		base:       newBase(),
		FontSize:   32,
		Color:      bitmap.Black,
		background: NewFill(),
	}
}

func (t *Text) Kind() Kind { return KindText }

// SetFont sets the font used for layout.
func (t *Text) SetFont(f *fonts.Font) { t.font = f }

// SetSize sets the configured size. Its width is also the wrap width.
func (t *Text) SetSize(size image.Point) { t.declared = size }

// Glyphs returns the visible glyphs of the last layout.
func (t *Text) Glyphs() []PlacedGlyph { return t.placed }

// EffectiveFontSize is the font size after the last forced rescale.
func (t *Text) EffectiveFontSize() float64 { return t.effectiveSize }

func (t *Text) Load(blk *config.Block, env *Env) error {
	t.Content = blk.String("text", t.Content)
	t.FontName = blk.String("font_name", t.FontName)
	t.FontSize = blk.Float("font_size", t.FontSize)
	t.declared = blk.IVec2("size", t.declared)
	t.RetainWidth = blk.Bool("retain_width", t.RetainWidth)
	t.RetainHeight = blk.Bool("retain_height", t.RetainHeight)
	var err error
	if t.Color, err = colorOf(blk, "color", t.Color); err != nil {
		return err
	}
	if t.BackgroundColor, err = colorOf(blk, "background_color", t.BackgroundColor); err != nil {
		return err
	}
	if t.AlignX, err = config.Enum(blk, "alignment_x", alignXNames, t.AlignX); err != nil {
		return invalidf("Text: %v", err)
	}
	if t.AlignY, err = config.Enum(blk, "alignment_y", alignYNames, t.AlignY); err != nil {
		return invalidf("Text: %v", err)
	}
	if t.FontSize <= 0 {
		return invalidf("Text: font_size 必须为正")
	}
	if env == nil || env.Fonts == nil {
		return invalidf("Text: 未配置字体缓存")
	}
	f, err := env.Fonts.Font(t.FontName)
	if err != nil {
		return err
	}
	t.font = f
	return nil
}

func (t *Text) CalculateSize(force image.Point) image.Point {
	force = t.forceOrDeclared(force)
	t.placed = t.placed[:0]
	t.effectiveSize = t.FontSize
	if t.font == nil {
		t.size = geom.Unset
		return t.size
	}

	items := t.wrap()
	proper := glyphBounds(items)
	if t.RetainWidth {
		proper.X = max(proper.X, t.declared.X)
	}
	if t.RetainHeight {
		proper.Y = max(proper.Y, t.declared.Y)
	}
	t.align(items, proper)

	size := proper
	if geom.PartialSize(force) {
		s := math.Inf(1)
		if force.X > 0 {
			s = float64(force.X) / float64(proper.X)
		}
		if force.Y > 0 {
			s = min(s, float64(force.Y)/float64(proper.Y))
		}
		size = geom.ScalePoint(proper, s, s)
		if t.RetainWidth {
			size.X = max(size.X, force.X)
		}
		if t.RetainHeight {
			size.Y = max(size.Y, force.Y)
		}
		for i := range items {
			it := &items[i]
			it.pos = geom.ScalePoint(it.pos, s, s)
			it.size = geom.MaxPoint(image.Pt(1, 1), geom.ScalePoint(it.size, s, s))
			if !it.outline.Empty() {
				size = geom.MaxPoint(size, it.pos.Add(it.size))
			}
		}
		t.effectiveSize = t.FontSize * s
	}

	for _, it := range items {
		if it.outline.Empty() {
			continue
		}
		g := newGlyphFor(t.font, it.r, it.outline)
		g.Color = t.Color
		g.setBox(it.size)
		t.placed = append(t.placed, PlacedGlyph{Glyph: g, Pos: it.pos, Line: it.line})
	}
	t.size = size
	return t.size
}

// wrap places every rune with greedy word wrapping.
func (t *Text) wrap() []textItem {
	f := t.font
	gs := t.FontSize * f.Scale()
	lineHeight := f.LineHeight() * gs
	width := math.Inf(1)
	if t.declared.X > 0 {
		width = float64(t.declared.X)
	}

	place := func(it *textItem, penX float64) {
		b := it.outline.Bounds
		it.pos = image.Point{
			X: max(0, int(penX+gs*b.XMin)),
			Y: int(float64(it.line)*lineHeight + (f.Ascent-b.YMax)*gs),
		}
	}
	advance := func(r rune) float64 {
		g, err := f.GlyphFor(r)
		if err != nil {
			return 0
		}
		return g.Advance * gs
	}

	var (
		items     []textItem
		penX      float64
		line      int
		lineStart int
		wordStart int
	)
	newLine := func() {
		line++
		penX = 0
	}
	for _, r := range t.Content {
		switch r {
		case '\n':
			newLine()
			lineStart, wordStart = len(items), len(items)
			continue
		case ' ', '\t':
			if r == '\t' {
				penX += 4 * advance(' ')
			} else {
				penX += advance(r)
			}
			wordStart = len(items)
			if penX > width {
				newLine()
				lineStart = len(items)
			}
			continue
		}

		g, err := f.GlyphFor(r)
		if err != nil {
			logx.Logger().Warn("字形加载失败，跳过", "rune", string(r), "err", err)
			continue
		}
		adv := g.Advance * gs
		if penX+adv > width && len(items) > lineStart {
			newLine()
			if wordStart > lineStart {
				// 整个单词移到下一行
				for i := wordStart; i < len(items); i++ {
					items[i].line = line
					place(&items[i], penX)
					penX += items[i].advance
				}
				lineStart = wordStart
			} else {
				// 单词比行还长，只能在单词内部断开
				lineStart, wordStart = len(items), len(items)
			}
		}
		it := textItem{
			r:       r,
			outline: g,
			advance: adv,
			line:    line,
			size: image.Point{
				X: int(gs*g.Bounds.Width()) + 1,
				Y: int(gs*g.Bounds.Height()) + 1,
			},
		}
		place(&it, penX)
		penX += adv
		items = append(items, it)
	}
	return items
}

// glyphBounds is the extent of all visible glyph boxes, at least 1×1.
func glyphBounds(items []textItem) image.Point {
	size := image.Pt(1, 1)
	for _, it := range items {
		if !it.outline.Empty() {
			size = geom.MaxPoint(size, it.pos.Add(it.size))
		}
	}
	return size
}

func (t *Text) align(items []textItem, box image.Point) {
	if len(items) == 0 {
		return
	}
	if t.AlignX != AlignLeft {
		lastLine := items[len(items)-1].line
		extent := make([]int, lastLine+1)
		for _, it := range items {
			if !it.outline.Empty() {
				extent[it.line] = max(extent[it.line], it.pos.X+it.size.X)
			}
		}
		for i := range items {
			items[i].pos.X += shift(box.X-extent[items[i].line], t.AlignX == AlignCenterX)
		}
	}
	if t.AlignY != AlignTop {
		gap := box.Y - glyphBounds(items).Y
		dy := shift(gap, t.AlignY == AlignCenterY)
		for i := range items {
			items[i].pos.Y += dy
		}
	}
}

func shift(gap int, center bool) int {
	if gap <= 0 {
		return 0
	}
	if center {
		return gap / 2
	}
	return gap
}

func (t *Text) PrepareInstances(pos image.Point, out []Instance) []Instance {
	if !geom.ValidSize(t.size) {
		return out
	}
	if t.BackgroundColor.A > 0 {
		t.background.Color = t.BackgroundColor
		t.background.declared = t.size
		t.background.size = t.size
		out = appendPrimitive(t.background, pos, out)
	}
	for _, p := range t.placed {
		out = appendPrimitive(p.Glyph, pos.Add(p.Pos), out)
	}
	return out
}

// clone copies the configuration of t, including its configured box, but
// none of its layout.
func (t *Text) clone() *Text {
	c := NewText()
	c.declared = t.declared
	c.Content = t.Content
	c.FontName = t.FontName
	c.FontSize = t.FontSize
	c.Color = t.Color
	c.BackgroundColor = t.BackgroundColor
	c.RetainWidth, c.RetainHeight = t.RetainWidth, t.RetainHeight
	c.AlignX, c.AlignY = t.AlignX, t.AlignY
	c.font = t.font
	return c
}

// withContent returns an unsized copy of t's style showing s. Labels never
// keep the style's configured box.
func (t *Text) withContent(s string) *Text {
	c := t.clone()
	c.Content = s
	c.declared = geom.Unset
	c.RetainWidth, c.RetainHeight = false, false
	return c
}
