package figure

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
)

func fill(w, h int) *Fill {
	f := NewFill()
	f.declared = image.Pt(w, h)
	f.size = f.declared
	return f
}

func TestGridTwoRows(t *testing.T) {
	g := NewGrid()
	g.AddRow(fill(10, 10))
	g.AddRow(fill(20, 5))
	assert.Equal(t, image.Pt(20, 15), g.CalculateSize(geom.Unset))
}

func TestGridFlowInvariant(t *testing.T) {
	g := NewGrid()
	g.AddRow(fill(10, 4), fill(7, 9), fill(3, 3))
	g.AddRow(fill(30, 2))
	g.AddRow(fill(1, 6), fill(1, 1))
	size := g.CalculateSize(geom.Unset)
	assert.Equal(t, 30, size.X)
	assert.Equal(t, 9+2+6, size.Y)
}

func TestGridForcedScalesChildren(t *testing.T) {
	g := NewGrid()
	g.AddRow(fill(10, 10))
	g.AddRow(fill(20, 5))
	assert.Equal(t, image.Pt(40, 30), g.CalculateSize(image.Pt(40, 30)))
	assert.Equal(t, image.Pt(20, 20), g.Rows()[0][0].Size())
	assert.Equal(t, image.Pt(40, 10), g.Rows()[1][0].Size())
}

func TestGridPrepareInstancesFlowsPositions(t *testing.T) {
	g := NewGrid()
	g.AddRow(fill(10, 10), fill(5, 20))
	g.AddRow(fill(20, 5))
	g.CalculateSize(geom.Unset)
	inst := g.PrepareInstances(image.Pt(100, 100), nil)
	require.Len(t, inst, 3)
	assert.Equal(t, image.Pt(100, 100), inst[0].Data.Pos)
	assert.Equal(t, image.Pt(110, 100), inst[1].Data.Pos)
	assert.Equal(t, image.Pt(100, 120), inst[2].Data.Pos)
}

func TestCollageForcedSingleElement(t *testing.T) {
	c := NewCollage()
	e := c.Add(image.Pt(0, 0), image.Pt(10, 10), fill(10, 10))
	assert.Equal(t, image.Pt(20, 20), c.CalculateSize(image.Pt(20, 20)))
	_, size := e.Placed()
	assert.Equal(t, image.Pt(20, 20), size)
	assert.Equal(t, image.Pt(20, 20), e.Figure.Size())
}

func TestCollageBoundsAllElements(t *testing.T) {
	c := NewCollage()
	c.Add(image.Pt(5, 5), image.Pt(10, 10), fill(10, 10))
	c.Add(image.Pt(20, 0), geom.Unset, fill(5, 5))
	size := c.CalculateSize(geom.Unset)
	assert.Equal(t, image.Pt(25, 15), size)

	size = c.CalculateSize(image.Pt(50, 45))
	var hi image.Point
	for _, e := range c.Elements() {
		p, s := e.Placed()
		hi = geom.MaxPoint(hi, p.Add(s))
	}
	assert.Equal(t, hi, size)
}

func TestCollageEmpty(t *testing.T) {
	c := NewCollage()
	assert.Equal(t, image.Pt(1, 1), c.CalculateSize(geom.Unset))
	assert.Equal(t, image.Pt(7, 3), c.CalculateSize(image.Pt(7, 3)))
}

func TestCollagePartialForceScalesOneAxis(t *testing.T) {
	c := NewCollage()
	c.Add(image.Pt(0, 0), image.Pt(10, 10), fill(10, 10))
	assert.Equal(t, image.Pt(30, 10), c.CalculateSize(image.Pt(30, -1)))
}

func TestCalculateSizeIsIdempotent(t *testing.T) {
	c := NewCollage()
	c.Add(image.Pt(0, 0), image.Pt(10, 10), fill(10, 10))
	c.Add(image.Pt(13, 7), image.Pt(9, 11), fill(9, 11))
	g := NewGrid()
	g.AddRow(c, fill(5, 5))
	g.AddRow(fill(3, 30))

	first := g.CalculateSize(geom.Unset)
	assert.Equal(t, first, g.CalculateSize(first))
	assert.Equal(t, first, g.CalculateSize(geom.Unset))
}

func TestDeclaredSizeIsForcedOntoChildren(t *testing.T) {
	c := NewCollage()
	c.SetSize(image.Pt(40, 40))
	c.Add(image.Pt(0, 0), image.Pt(10, 10), fill(10, 10))
	assert.Equal(t, image.Pt(40, 40), c.CalculateSize(geom.Unset))
	// 外部强制尺寸优先
	assert.Equal(t, image.Pt(20, 20), c.CalculateSize(image.Pt(20, 20)))
}

func TestCollagePainterOrder(t *testing.T) {
	c := NewCollage()
	a, b, d := fill(5, 5), fill(5, 5), fill(5, 5)
	c.Add(image.Pt(0, 0), geom.Unset, a)
	c.Add(image.Pt(10, 0), geom.Unset, b)
	c.Add(image.Pt(0, 10), geom.Unset, d)
	c.CalculateSize(geom.Unset)
	inst := c.PrepareInstances(image.Point{}, []Instance{{Prim: fill(1, 1)}})
	require.Len(t, inst, 4)
	assert.Same(t, a, inst[1].Prim)
	assert.Same(t, b, inst[2].Prim)
	assert.Same(t, d, inst[3].Prim)
	assert.Equal(t, image.Pt(10, 0), inst[2].Data.Pos)
}

func TestPrimitiveWithoutSizeEmitsNothing(t *testing.T) {
	f := NewFill()
	assert.Empty(t, f.PrepareInstances(image.Point{}, nil))
}

func image100x50() *Image {
	m := NewImage()
	m.Bitmap = bitmap.New(100, 50)
	m.declared = image.Pt(100, 50)
	return m
}

func TestTransformCropAndFit(t *testing.T) {
	tr := NewTransform()
	tr.Child = image100x50()
	tr.Crop = [4]float64{0, 0, 0.5, 1}
	assert.Equal(t, image.Pt(50, 50), tr.CalculateSize(geom.Unset))
	assert.Equal(t, image.Pt(25, 25), tr.CalculateSize(image.Pt(25, 100)))

	inst := tr.PrepareInstances(image.Pt(3, 4), nil)
	require.Len(t, inst, 1)
	assert.Equal(t, image.Pt(25, 25), inst[0].Data.Size)
	assert.Equal(t, image.Pt(3, 4), inst[0].Data.Pos)
	p := inst[0].Data.UV.Apply(vec.Vec2{X: 1, Y: 1})
	assert.InDelta(t, 0.5, p.X, 1e-9)
	assert.InDelta(t, 1.0, p.Y, 1e-9)
}

func TestTransformMirrorAndRotation(t *testing.T) {
	tr := NewTransform()
	tr.Child = image100x50()
	tr.MirrorX = true
	tr.CalculateSize(geom.Unset)
	inst := tr.PrepareInstances(image.Point{}, nil)
	p := inst[0].Data.UV.Apply(vec.Vec2{X: 0, Y: 0})
	assert.InDelta(t, 1.0, p.X, 1e-9)
	assert.InDelta(t, 0.0, p.Y, 1e-9)

	tr.MirrorX = false
	tr.Rotation = 90
	m := tr.UVTransform()
	p = m.Apply(vec.Vec2{X: 1, Y: 0.5})
	assert.InDelta(t, 0.5, p.X, 1e-9)
	assert.InDelta(t, 1.0, p.Y, 1e-9)
	p = m.Apply(vec.Vec2{X: 0.5, Y: 0.5})
	assert.InDelta(t, 0.5, p.X, 1e-9)
	assert.InDelta(t, 0.5, p.Y, 1e-9)
}

func TestNestedTransformsComposeParentTimesChild(t *testing.T) {
	inner := NewTransform()
	inner.Child = image100x50()
	inner.Crop = [4]float64{0.5, 0, 1, 1}
	outer := NewTransform()
	outer.Child = inner
	outer.MirrorX = true
	outer.CalculateSize(geom.Unset)

	inst := outer.PrepareInstances(image.Point{}, nil)
	require.Len(t, inst, 1)
	want := outer.UVTransform().Mul(inner.UVTransform())
	for i := range want {
		assert.InDelta(t, want[i], inst[0].Data.UV[i], 1e-12)
	}
	// 内层裁剪先作用，外层镜像后作用
	p := inst[0].Data.UV.Apply(vec.Vec2{X: 0, Y: 0})
	assert.InDelta(t, 0.5, p.X, 1e-9)
}

func TestTransformPassesPlainChildrenThrough(t *testing.T) {
	tr := NewTransform()
	tr.Child = fill(10, 10)
	tr.Scale = [2]float64{2, 2}
	assert.Equal(t, image.Pt(20, 20), tr.CalculateSize(geom.Unset))
	inst := tr.PrepareInstances(image.Point{}, nil)
	require.Len(t, inst, 1)
	assert.True(t, inst[0].Data.UV.IsIdentity(0))
	assert.Equal(t, image.Pt(20, 20), inst[0].Data.Size)
}

func TestTransformFrameDrawnLast(t *testing.T) {
	blk, err := config.ParseFig([]byte(`
type = Transform
figure { type = Fill  size = [8, 6] }
frame { color = [0, 0, 1, 1]  thickness = 0.1 }
`))
	require.NoError(t, err)
	fig, err := Load(blk, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 6), fig.CalculateSize(geom.Unset))
	inst := fig.PrepareInstances(image.Point{}, nil)
	require.Len(t, inst, 2)
	assert.Equal(t, KindRectangle, inst[1].Prim.Kind())
	assert.Equal(t, image.Pt(8, 6), inst[1].Data.Size)
}

func TestTransformZeroTargetGuarded(t *testing.T) {
	tr := NewTransform()
	tr.Child = fill(10, 10)
	tr.Crop = [4]float64{0.5, 0, 0.5, 1}
	assert.Equal(t, geom.Unset, tr.CalculateSize(image.Pt(10, 10)))
	assert.Empty(t, tr.PrepareInstances(image.Point{}, nil))
}

func TestLoadGridFromConfig(t *testing.T) {
	blk, err := config.ParseFig([]byte(`
type = grid
row { a { type = Fill  size = [10, 10] } }
row { b { type = PrimitiveFill  size = [20, 5]  color = "#ff0000" } }
`))
	require.NoError(t, err)
	fig, err := Load(blk, nil)
	require.NoError(t, err)
	assert.Equal(t, KindGrid, fig.Kind())
	assert.Equal(t, image.Pt(20, 15), fig.CalculateSize(geom.Unset))

	b := fig.(*Grid).Rows()[1][0].(*Fill)
	assert.InDelta(t, 1.0, b.Color.R, 1e-6)
	assert.InDelta(t, 0.0, b.Color.G, 1e-6)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown type":      `type = Sphere`,
		"fill without size": `type = Fill`,
		"short polygon":     `type = Polygon  size = [4, 4]  points = [[0, 0], [1, 1]]`,
		"empty collage":     `type = Collage  size = [4, 4]`,
		"bad enum":          `type = Line  size = [4, 4]  style = wavy`,
		"thick rectangle":   `type = Rectangle  size = [4, 4]  thickness = 0.7`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			blk, err := config.ParseFig([]byte(src))
			require.NoError(t, err)
			_, err = Load(blk, nil)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
		})
	}
}

func TestNewSubstitutesPlaceholder(t *testing.T) {
	blk, err := config.ParseFig([]byte(`type = Collage
ok { type = Fill  size = [10, 10] }
bad { type = Image }
`))
	require.NoError(t, err)
	c := New(blk, nil).(*Collage)
	require.Len(t, c.Elements(), 2)
	ph, ok := c.Elements()[1].Figure.(*Fill)
	require.True(t, ok)
	assert.Equal(t, bitmap.Magenta, ph.Color)
	assert.Equal(t, image.Pt(64, 64), ph.Size())
}

func TestLoadPolygonContours(t *testing.T) {
	blk, err := config.ParseFig([]byte(`
type = Polygon
size = [10, 10]
contours = [[[0, 0], [1, 0], [1, 1], [0, 1]], [[0.25, 0.25], [0.75, 0.25], [0.5, 0.75]]]
outline = true
`))
	require.NoError(t, err)
	fig, err := Load(blk, nil)
	require.NoError(t, err)
	p := fig.(*Polygon)
	require.Len(t, p.Contours, 2)
	assert.Len(t, p.Contours[1], 3)
	assert.True(t, p.Outline)
}

func TestLoadLineDefaults(t *testing.T) {
	blk, err := config.ParseFig([]byte(`type = Line  size = [10, 10]  style = Dashed  thickness_pixel = 3`))
	require.NoError(t, err)
	fig, err := Load(blk, nil)
	require.NoError(t, err)
	l := fig.(*Line)
	assert.Equal(t, LineDashed, l.Style)
	assert.Equal(t, vec.Vec2{X: 1, Y: 1}, l.End)
	assert.InDelta(t, 3.0, l.PixelThickness(image.Pt(100, 10)), 1e-12)
	l.ThicknessPixel = 0
	assert.InDelta(t, 1.0, l.PixelThickness(image.Pt(100, 10)), 1e-12)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ffffff80")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-6)
	assert.InDelta(t, 128.0/255, c.A, 1e-6)

	c, err = ParseHexColor("#808080")
	require.NoError(t, err)
	// sRGB 0.5 约为线性 0.216
	assert.InDelta(t, 0.2158, c.G, 1e-3)

	_, err = ParseHexColor("red")
	assert.Error(t, err)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, KindFill, ParseKind("primitivefill"))
	assert.Equal(t, KindLineGraph, ParseKind("LineGraph"))
	assert.Equal(t, KindLinePlot, ParseKind("lineplot"))
	assert.Equal(t, KindUnknown, ParseKind("nope"))
	assert.Equal(t, "Transform", KindTransform.String())
}

func TestScaleForGuardsCollapsedAxis(t *testing.T) {
	sx, sy := scaleFor(image.Pt(10, 10), image.Pt(0, 5))
	assert.False(t, math.IsInf(sx, 0) || math.IsNaN(sx))
	assert.InDelta(t, 1.0, sx, 0)
	assert.InDelta(t, 2.0, sy, 1e-12)
}
