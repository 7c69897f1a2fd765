package canvasrenderer

import (
	"bytes"
	"image"
	"math"
	"testing"

	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/layout"
)

type stubImages struct{}

func (stubImages) LoadImage(string, float64) (*bitmap.Bitmap, error) {
	b := bitmap.New(2, 2)
	b.Fill(bitmap.White)
	b.Set(0, 0, bitmap.Color{R: 1, A: 1})
	return b, nil
}

func testEnv() *figure.Env {
	return &figure.Env{Fonts: fonts.NewCache(fonts.Options{}), Images: stubImages{}}
}

func buildFig(t *testing.T, src string) *layout.Result {
	t.Helper()
	blk, err := config.ParseFig([]byte(src))
	if err != nil {
		t.Fatalf("解析配置失败: %v", err)
	}
	res, err := layout.BuildConfig(blk, testEnv(), layout.BuildOptions{})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func renderPDF(t *testing.T, r *Renderer, res *layout.Result) []byte {
	t.Helper()
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染 PDF 失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF，前缀 %q", data[:min(8, len(data))])
	}
	return data
}

const shapesFig = `
title = "shapes"
figure {
	type = Collage
	bg     { type = Fill       size = [40, 30]  pos = [0, 0]   color = "#202020" }
	solid  { type = Line       size = [40, 30]  pos = [0, 0]   start = [0, 0]  end = [1, 1] }
	dashed { type = Line       size = [40, 30]  pos = [0, 0]   start = [0, 1]  end = [1, 0]  style = dashed }
	dotted { type = Line       size = [40, 10]  pos = [0, 20]  style = dotted }
	disc   { type = Circle     size = [10, 10]  pos = [30, 0]  radius = 0.7 }
	frame  { type = Rectangle  size = [20, 20]  pos = [10, 5]  thickness = 0.1 }
	tri    { type = Polygon    size = [10, 10]  pos = [0, 0]   points = [[0, 0], [1, 0], [0, 1]] }
	ring   {
		type = Polygon  size = [10, 10]  pos = [20, 20]  outline = true
		contours = [[[0, 0], [1, 0], [1, 1], [0, 1]], [[0.25, 0.25], [0.25, 0.75], [0.75, 0.75], [0.75, 0.25]]]
	}
}
`

func TestRenderShapesToPDF(t *testing.T) {
	res := buildFig(t, shapesFig)
	if len(res.Instances) != 8 {
		t.Fatalf("实例数期望 8，实际 %d", len(res.Instances))
	}
	renderPDF(t, NewRenderer(), res)
}

func TestRenderTextAndImage(t *testing.T) {
	res := buildFig(t, `
figure {
	type = Grid
	row {
		label { type = Text  text = "Hi there"  font_size = 24  background_color = [1, 1, 1, 1] }
	}
	row {
		photo { type = Image  path = "photo.png"  size = [8, 8] }
		warped {
			type = Transform  mirror_x = true
			figure {
				type = Transform
				figure { type = Text  text = "R" }
			}
		}
	}
}
`)
	counts := res.Counts()
	if counts["Glyph"] == 0 || counts["Image"] != 1 {
		t.Fatalf("实例统计不符合预期: %v", counts)
	}
	white := bitmap.White
	renderPDF(t, NewRendererWithOptions(Options{Background: &white}), res)
}

func TestRenderRejectsInvalidResult(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("空结果应报错")
	}
	if _, err := r.Render(&layout.Result{Size: image.Pt(0, 10)}); err == nil {
		t.Fatalf("无效尺寸应报错")
	}
}

func TestScaleFromPageWidth(t *testing.T) {
	r := NewRenderer()
	if got := r.Scale(image.Pt(100, 50)).PointsPerPixel; got != layout.DefaultPointsPerPixel {
		t.Fatalf("默认缩放期望 %g，实际 %g", layout.DefaultPointsPerPixel, got)
	}
	width := layout.Length{Value: 210, Unit: layout.UnitMM}
	r = NewRendererWithOptions(Options{PageWidth: &width})
	s := r.Scale(image.Pt(100, 50))
	if got := s.MM(100); math.Abs(got-210) > 1e-6 {
		t.Fatalf("页面宽度期望 210mm，实际 %g", got)
	}
}

func TestDashes(t *testing.T) {
	got := Dashes(10, 2, 2)
	want := [][2]float64{{0, 2}, {4, 6}, {8, 10}}
	if len(got) != len(want) {
		t.Fatalf("虚线段数期望 %d，实际 %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 段期望 %v，实际 %v", i, want[i], got[i])
		}
	}
	if solid := Dashes(5, 0, 0); len(solid) != 1 || solid[0] != [2]float64{0, 5} {
		t.Fatalf("无周期时应为整段: %v", solid)
	}
}

func TestDots(t *testing.T) {
	got := Dots(10, 2, 2)
	want := []float64{1, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("圆点数期望 %d，实际 %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("第 %d 个圆点期望 %g，实际 %g", i, want[i], got[i])
		}
	}
}

func TestTextRunNeedsUnwarpedEmbeddableGlyph(t *testing.T) {
	cache := fonts.NewCache(fonts.Options{})
	f, err := cache.Font("go")
	if err != nil {
		t.Fatalf("加载内置字体失败: %v", err)
	}
	outline, err := f.GlyphFor('H')
	if err != nil {
		t.Fatalf("读取字形失败: %v", err)
	}
	g := figure.NewGlyph()
	g.Font, g.Rune, g.Index, g.Outline = f, 'H', outline.Index, outline

	size := image.Pt(int(outline.Bounds.Width()/10), int(outline.Bounds.Height()/10))
	d := figure.InstanceData{Size: size, UV: geom.Identity()}
	if !TextRun(g, d) {
		t.Fatalf("未变形的字形应写为文本")
	}
	d.UV = geom.Scale(-1, 1).Mul(geom.Translate(-1, 0))
	if TextRun(g, d) {
		t.Fatalf("镜像的字形应写为轮廓")
	}
	d.UV = geom.Identity()
	d.Size = image.Pt(size.X*3, size.Y)
	if TextRun(g, d) {
		t.Fatalf("拉伸的字形应写为轮廓")
	}

	synthetic := fonts.NewSynthetic("box", 10, 8, 2, map[rune]*fonts.Glyph{
		'a': fonts.RectGlyph(10, fonts.Bounds{XMax: 8, YMax: 8}),
	})
	box, _ := synthetic.GlyphFor('a')
	g.Font, g.Outline = synthetic, box
	if TextRun(g, figure.InstanceData{Size: image.Pt(8, 8), UV: geom.Identity()}) {
		t.Fatalf("合成字体没有字体数据，不能写为文本")
	}
}

func TestOutlinePathJoinsContours(t *testing.T) {
	g := fonts.RectGlyph(10, fonts.Bounds{XMax: 8, YMax: 8})
	calls := 0
	path := OutlinePath(g, func(v vec.Vec2) vec.Vec2 {
		calls++
		return v
	})
	if path.Empty() {
		t.Fatalf("轮廓路径不应为空")
	}
	// 起点一次，加上四条边的终点
	if calls != 5 {
		t.Fatalf("坐标映射次数期望 5，实际 %d", calls)
	}
}
