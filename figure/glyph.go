package figure

import (
	"image"

	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/fonts"
)

// Glyph draws one glyph outline stretched over its box. Text builds these;
// a standalone Glyph can also be configured with `font_name` and `char`.
type Glyph struct {
	shape
	Font  *fonts.Font
	Index int
	Rune  rune
	// Outline is borrowed from Font and shared by every Glyph of that index.
	Outline *fonts.Glyph
}

func NewGlyph() *Glyph { return &Glyph{shape: newShape()} }

func newGlyphFor(f *fonts.Font, r rune, g *fonts.Glyph) *Glyph {
	gl := NewGlyph()
	gl.Font = f
	gl.Rune = r
	gl.Index = g.Index
	gl.Outline = g
	return gl
}

func (g *Glyph) Kind() Kind { return KindGlyph }

func (g *Glyph) Load(blk *config.Block, env *Env) error {
	if err := g.loadShape(blk); err != nil {
		return err
	}
	if err := blk.Require("char"); err != nil {
		return invalidf("Glyph: %v", err)
	}
	if env == nil || env.Fonts == nil {
		return invalidf("Glyph: 未配置字体缓存")
	}
	s := []rune(blk.String("char", ""))
	if len(s) != 1 {
		return invalidf("Glyph: char 必须是单个字符")
	}
	f, err := env.Fonts.Font(blk.String("font_name", ""))
	if err != nil {
		return err
	}
	outline, err := f.GlyphFor(s[0])
	if err != nil {
		return err
	}
	g.Font = f
	g.Rune = s[0]
	g.Index = outline.Index
	g.Outline = outline
	return g.requireSize(KindGlyph)
}

func (g *Glyph) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(g, pos, out)
}

// setBox places the glyph inside its parent Text.
func (g *Glyph) setBox(size image.Point) {
	g.declared = size
	g.size = size
}
