package figure

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/geom"
)

// boxFont 是测试用的合成字体：每个字形都是 8×8 的方块，步进 10，行高 10。
// font_size = 10 时缩放系数正好为 1。
func boxFont() *fonts.Font {
	glyph := func() *fonts.Glyph {
		return fonts.RectGlyph(10, fonts.Bounds{XMin: 0, YMin: 0, XMax: 8, YMax: 8})
	}
	return fonts.NewSynthetic("box", 10, 8, 2, map[rune]*fonts.Glyph{
		'a': glyph(),
		'b': glyph(),
		' ': {Advance: 10},
	})
}

func testEnv() *Env {
	cache := fonts.NewCache(fonts.Options{})
	cache.Register("box", boxFont())
	return &Env{Fonts: cache}
}

func boxText(content string, width int) *Text {
	t := NewText()
	t.SetFont(boxFont())
	t.FontSize = 10
	t.Content = content
	t.SetSize(image.Pt(width, -1))
	return t
}

func positions(t *Text) []image.Point {
	var out []image.Point
	for _, g := range t.Glyphs() {
		out = append(out, g.Pos)
	}
	return out
}

func TestTextSingleLine(t *testing.T) {
	txt := boxText("ab", -1)
	assert.Equal(t, image.Pt(19, 9), txt.CalculateSize(geom.Unset))
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}}, positions(txt))
	assert.Equal(t, image.Pt(9, 9), txt.Glyphs()[0].Glyph.Size())
}

func TestTextBreaksAtSpace(t *testing.T) {
	txt := boxText("aa aa", 35)
	txt.CalculateSize(geom.Unset)
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}}, positions(txt))
}

func TestTextMovesWordToNextLine(t *testing.T) {
	txt := boxText("aa aaa", 45)
	size := txt.CalculateSize(geom.Unset)
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {20, 10}}, positions(txt))
	assert.Equal(t, image.Pt(29, 19), size)
}

func TestTextSplitsUnbreakableWord(t *testing.T) {
	txt := boxText("aaaaa", 25)
	txt.RetainWidth = true
	size := txt.CalculateSize(geom.Unset)
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}, {0, 20}}, positions(txt))
	assert.Equal(t, 25, size.X)
	for _, g := range txt.Glyphs() {
		assert.LessOrEqual(t, g.Pos.X+g.Glyph.Size().X, 25)
	}
}

func TestTextNewline(t *testing.T) {
	txt := boxText("a\nb", -1)
	txt.CalculateSize(geom.Unset)
	assert.Equal(t, []image.Point{{0, 0}, {0, 10}}, positions(txt))
	assert.Equal(t, 1, txt.Glyphs()[1].Line)
}

func TestTextAlignment(t *testing.T) {
	txt := boxText("a", 40)
	txt.RetainWidth = true
	txt.AlignX = AlignRight
	assert.Equal(t, image.Pt(40, 9), txt.CalculateSize(geom.Unset))
	assert.Equal(t, 31, txt.Glyphs()[0].Pos.X)

	txt.AlignX = AlignCenterX
	txt.CalculateSize(geom.Unset)
	assert.Equal(t, 15, txt.Glyphs()[0].Pos.X)

	// 每行独立对齐
	txt = boxText("aa\na", -1)
	txt.AlignX = AlignRight
	txt.CalculateSize(geom.Unset)
	assert.Equal(t, []image.Point{{0, 0}, {10, 0}, {10, 10}}, positions(txt))

	txt = boxText("a", -1)
	txt.SetSize(image.Pt(-1, 30))
	txt.RetainHeight = true
	txt.AlignY = AlignBottom
	txt.CalculateSize(image.Pt(9, -1))
	assert.Equal(t, 21, txt.Glyphs()[0].Pos.Y)
}

func TestTextForcedRescale(t *testing.T) {
	txt := boxText("a", -1)
	assert.Equal(t, image.Pt(18, 18), txt.CalculateSize(image.Pt(18, 18)))
	assert.InDelta(t, 20.0, txt.EffectiveFontSize(), 1e-9)
	assert.Equal(t, image.Pt(18, 18), txt.Glyphs()[0].Glyph.Size())

	// 每次调用都重新排版
	assert.Equal(t, image.Pt(9, 9), txt.CalculateSize(geom.Unset))
	assert.InDelta(t, 10.0, txt.EffectiveFontSize(), 1e-9)
}

func TestTextRetainIsAFloor(t *testing.T) {
	txt := boxText("a", -1)
	txt.RetainWidth = true
	size := txt.CalculateSize(image.Pt(50, 18))
	assert.Equal(t, 50, size.X)
	assert.Equal(t, 18, size.Y)
}

func TestTextInstancesBackgroundFirst(t *testing.T) {
	txt := boxText("a b", -1)
	txt.BackgroundColor = bitmap.White
	size := txt.CalculateSize(geom.Unset)
	inst := txt.PrepareInstances(image.Pt(5, 5), nil)
	require.Len(t, inst, 3)
	assert.Equal(t, KindFill, inst[0].Prim.Kind())
	assert.Equal(t, size, inst[0].Data.Size)
	assert.Equal(t, KindGlyph, inst[1].Prim.Kind())
	assert.Equal(t, image.Pt(25, 5), inst[2].Data.Pos)
}

func TestTextLoad(t *testing.T) {
	blk, err := config.ParseFig([]byte(`
type = Text
text = "ab"
font_name = "box"
font_size = 20
alignment_x = Center
color = [0, 0, 1, 1]
`))
	require.NoError(t, err)
	fig, err := Load(blk, testEnv())
	require.NoError(t, err)
	txt := fig.(*Text)
	assert.Equal(t, AlignCenterX, txt.AlignX)
	assert.Equal(t, image.Pt(37, 17), txt.CalculateSize(geom.Unset))
	assert.Equal(t, bitmap.Color{B: 1, A: 1}, txt.Glyphs()[0].Glyph.Color)
}

func TestGlyphLoad(t *testing.T) {
	blk, err := config.ParseFig([]byte(`type = Glyph  char = "a"  font_name = "box"  size = [16, 16]`))
	require.NoError(t, err)
	fig, err := Load(blk, testEnv())
	require.NoError(t, err)
	g := fig.(*Glyph)
	assert.Equal(t, 'a', g.Rune)
	assert.False(t, g.Outline.Empty())
	assert.Len(t, g.PrepareInstances(image.Point{}, nil), 1)
}

func TestLineGraphBuildsCollage(t *testing.T) {
	blk, err := config.ParseFig([]byte(`
type = LineGraph
x_values = [0, 1, 2]
y_values = [0, 10, 5]
x_range = [0, 2]
y_range = [0, 10]
palette = Set1
palette_index = 1
line { size = [100, 50]  use_points = true  point_size = 0.02 }
labels = ["a", "", "b"]
text { font_name = "box"  font_size = 10 }
`))
	require.NoError(t, err)
	fig, err := Load(blk, testEnv())
	require.NoError(t, err)
	g := fig.(*LineGraph)
	require.Len(t, g.Values, 3)
	assert.Equal(t, vec.Vec2{X: 0.5, Y: 0}, g.Values[1])
	assert.Equal(t, vec.Vec2{X: 0, Y: 1}, g.Values[0])

	assert.Equal(t, image.Pt(100, 50), g.CalculateSize(geom.Unset))
	elems := g.Collage().Elements()
	// 2 条线段 + 3 个点 + 2 个标签
	require.Len(t, elems, 7)
	assert.Equal(t, KindLine, elems[0].Figure.Kind())
	assert.Equal(t, KindCircle, elems[2].Figure.Kind())
	assert.Equal(t, KindText, elems[6].Figure.Kind())
	assert.Equal(t, g.Color, elems[0].Figure.(*Line).Color)
	for _, e := range elems[5:] {
		p, s := e.Placed()
		assert.GreaterOrEqual(t, p.X, 0)
		assert.GreaterOrEqual(t, p.Y, 0)
		assert.LessOrEqual(t, p.X+s.X, 100)
	}

	inst := g.PrepareInstances(image.Point{}, nil)
	assert.Equal(t, KindGlyph, inst[len(inst)-1].Prim.Kind())
}

func TestLineGraphRejectsMismatchedArrays(t *testing.T) {
	blk, err := config.ParseFig([]byte(`type = LineGraph  size = [10, 10]  x_values = [0, 1]  y_values = [0]`))
	require.NoError(t, err)
	_, err = Load(blk, testEnv())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPaletteColors(t *testing.T) {
	assert.Len(t, PaletteSet1.Colors(), 9)
	assert.Len(t, PaletteSet2.Colors(), 8)
	gray := PaletteGray10.Colors()
	require.Len(t, gray, 10)
	assert.Equal(t, bitmap.RGBA(0, 0, 0, 1), gray[0])
}
