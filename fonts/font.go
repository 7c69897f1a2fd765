// Package fonts resolves font names to parsed fonts and serves glyph
// outlines, metrics and signed distance fields to the text layout and the
// rasterizer.
package fonts

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"seehuhn.de/go/geom/vec"
)

// ErrUnknownFont is returned when a font name resolves to nothing.
var ErrUnknownFont = errors.New("fonts: unknown font")

// Font is a parsed font plus lazily built per-glyph data. A Font is safe for
// concurrent use.
type Font struct {
	Name       string
	UnitsPerEm int
	// Ascent and Descent are positive distances from the baseline in font units.
	Ascent, Descent float64
	lineHeight      float64

	data []byte
	sf   *sfnt.Font
	sdf  sdfConfig

	mu     sync.Mutex
	buf    sfnt.Buffer
	runes  map[rune]int
	glyphs map[int]*Glyph
	sdfs   map[int]*SDF
}

// Parse builds a Font from TrueType/OpenType data.
func Parse(name string, data []byte) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	f := &Font{
		Name:       name,
		UnitsPerEm: int(sf.UnitsPerEm()),
		data:       data,
		sf:         sf,
		runes:      map[rune]int{},
		glyphs:     map[int]*Glyph{},
		sdfs:       map[int]*SDF{},
	}
	m, err := sf.Metrics(&f.buf, f.ppem(), font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 度量失败: %w", name, err)
	}
	f.Ascent = fromFixed(m.Ascent)
	f.Descent = fromFixed(m.Descent)
	f.lineHeight = fromFixed(m.Height)
	return f, nil
}

// NewSynthetic builds a font from hand-made glyphs, keyed by rune. It backs
// tests and callers that draw symbols without a font file.
func NewSynthetic(name string, unitsPerEm int, ascent, descent float64, glyphs map[rune]*Glyph) *Font {
	f := &Font{
		Name:       name,
		UnitsPerEm: unitsPerEm,
		Ascent:     ascent,
		Descent:    descent,
		lineHeight: ascent + descent,
		runes:      map[rune]int{},
		glyphs:     map[int]*Glyph{},
		sdfs:       map[int]*SDF{},
	}
	idx := 1
	for r, g := range glyphs {
		g.Index = idx
		f.runes[r] = idx
		f.glyphs[idx] = g
		idx++
	}
	return f
}

// Data returns the raw font file, or nil for synthetic fonts.
func (f *Font) Data() []byte { return f.data }

// Scale converts font units to ems.
func (f *Font) Scale() float64 { return 1 / float64(f.UnitsPerEm) }

// LineHeight is the baseline-to-baseline distance in font units.
func (f *Font) LineHeight() float64 { return f.lineHeight }

func (f *Font) ppem() fixed.Int26_6 { return fixed.I(f.UnitsPerEm) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

// GlyphIndex maps a rune to a glyph index; 0 means "missing glyph".
func (f *Font) GlyphIndex(r rune) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.glyphIndexLocked(r)
}

func (f *Font) glyphIndexLocked(r rune) int {
	if idx, ok := f.runes[r]; ok {
		return idx
	}
	if f.sf == nil {
		return 0
	}
	idx, err := f.sf.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	f.runes[r] = int(idx)
	return int(idx)
}

// GlyphFor returns the glyph for a rune.
func (f *Font) GlyphFor(r rune) (*Glyph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.glyphLocked(f.glyphIndexLocked(r))
}

// Glyph returns the glyph with index idx, loading it on first use.
func (f *Font) Glyph(idx int) (*Glyph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.glyphLocked(idx)
}

func (f *Font) glyphLocked(idx int) (*Glyph, error) {
	if g, ok := f.glyphs[idx]; ok {
		return g, nil
	}
	if f.sf == nil {
		g := &Glyph{Index: idx}
		f.glyphs[idx] = g
		return g, nil
	}
	g, err := f.loadGlyph(sfnt.GlyphIndex(idx))
	if err != nil {
		return nil, err
	}
	f.glyphs[idx] = g
	return g, nil
}

func (f *Font) loadGlyph(idx sfnt.GlyphIndex) (*Glyph, error) {
	bounds, advance, err := f.sf.GlyphBounds(&f.buf, idx, f.ppem(), font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("读取字形 %d 边界失败: %w", idx, err)
	}
	g := &Glyph{
		Index:   int(idx),
		Advance: fromFixed(advance),
		Bounds: Bounds{
			XMin: fromFixed(bounds.Min.X),
			XMax: fromFixed(bounds.Max.X),
			YMin: -fromFixed(bounds.Max.Y),
			YMax: -fromFixed(bounds.Min.Y),
		},
	}
	segs, err := f.sf.LoadGlyph(&f.buf, idx, f.ppem(), nil)
	if err != nil {
		if errors.Is(err, sfnt.ErrColoredGlyph) {
			return g, nil
		}
		return nil, fmt.Errorf("读取字形 %d 轮廓失败: %w", idx, err)
	}
	appendOutline(g, segs)
	return g, nil
}

func point(p fixed.Point26_6) vec.Vec2 {
	return vec.Vec2{X: fromFixed(p.X), Y: -fromFixed(p.Y)}
}

// cubicSteps is the number of lines a cubic (CFF) segment is flattened into.
const cubicSteps = 8

// appendOutline converts sfnt segments (y down) into closed y-up contours.
func appendOutline(g *Glyph, segs sfnt.Segments) {
	var start, cur vec.Vec2
	open := false
	closeContour := func() {
		if open && cur != start {
			g.Lines = append(g.Lines, Line{A: cur, B: start})
		}
	}
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			start = point(s.Args[0])
			cur = start
			open = true
		case sfnt.SegmentOpLineTo:
			p := point(s.Args[0])
			g.Lines = append(g.Lines, Line{A: cur, B: p})
			cur = p
		case sfnt.SegmentOpQuadTo:
			c, p := point(s.Args[0]), point(s.Args[1])
			g.Quads = append(g.Quads, Quad{A: cur, B: c, C: p})
			cur = p
		case sfnt.SegmentOpCubeTo:
			c1, c2, p := point(s.Args[0]), point(s.Args[1]), point(s.Args[2])
			prev := cur
			for i := 1; i <= cubicSteps; i++ {
				t := float64(i) / cubicSteps
				q := cubicAt(cur, c1, c2, p, t)
				g.Lines = append(g.Lines, Line{A: prev, B: q})
				prev = q
			}
			cur = p
		}
	}
	closeContour()
}

func cubicAt(a, b, c, d vec.Vec2, t float64) vec.Vec2 {
	s := 1 - t
	w0, w1, w2, w3 := s*s*s, 3*s*s*t, 3*s*t*t, t*t*t
	return vec.Vec2{
		X: w0*a.X + w1*b.X + w2*c.X + w3*d.X,
		Y: w0*a.Y + w1*b.Y + w2*c.Y + w3*d.Y,
	}
}
