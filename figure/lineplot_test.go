package figure

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
)

const twoGraphPlot = `
type = LinePlot
size = [400, 300]
font_name = "box"
font_size = 10
header { text = "ab" }
x_label { text = "a" }
y_label { text = "b" }
graph {
  name = "a"
  x_values = [0, 5, 10]
  y_values = [0, 10, 5]
}
graph {
  name = "b"
  x_values = [0, 10]
  y_values = [2, 8]
  line { thickness = 0.02 }
}
`

func loadPlot(t *testing.T, src string) *LinePlot {
	t.Helper()
	blk, err := config.ParseFig([]byte(src))
	require.NoError(t, err)
	fig, err := Load(blk, testEnv())
	require.NoError(t, err)
	return fig.(*LinePlot)
}

func TestLinePlotRangesAndTicks(t *testing.T) {
	p := loadPlot(t, twoGraphPlot)
	require.Len(t, p.Graphs, 2)

	// 数据范围两侧各扩 5%
	assert.InDelta(t, -0.5, p.XRange[0], 1e-9)
	assert.InDelta(t, 10.525, p.XRange[1], 1e-9)
	assert.InDelta(t, -0.5, p.YRange[0], 1e-9)
	assert.InDelta(t, 10.525, p.YRange[1], 1e-9)
	assert.Equal(t, []float64{1, 3, 5, 7, 9}, p.XTicks)
	assert.Equal(t, []float64{1, 3, 5, 7, 9}, p.YTicks)

	// 曲线坐标映射到 [0,1]，y 轴向上
	g := p.Graphs[0]
	assert.InDelta(t, 0.5/11.025, g.Values[0].X, 1e-9)
	assert.InDelta(t, 1-0.5/11.025, g.Values[0].Y, 1e-9)
	assert.InDelta(t, 1-10.5/11.025, g.Values[1].Y, 1e-9)

	colors := PaletteSet1.Colors()
	assert.Equal(t, colors[0], p.Graphs[0].Color)
	assert.Equal(t, colors[1], p.Graphs[1].Color)
	assert.Equal(t, 0.02, p.Graphs[1].Thickness)
	assert.Equal(t, "a", p.Graphs[0].Name)
}

func TestLinePlotDefaultGraphNames(t *testing.T) {
	p := loadPlot(t, `
type = LinePlot
size = [200, 100]
font_name = "box"
graph { x_values = [0, 1]  y_values = [0, 1] }
graph { x_values = [0, 1]  y_values = [1, 0] }
`)
	assert.Equal(t, "Graph 0", p.Graphs[0].Name)
	assert.Equal(t, "Graph 1", p.Graphs[1].Name)
}

func TestLinePlotSizeFollowsDeclared(t *testing.T) {
	p := loadPlot(t, twoGraphPlot)
	size := p.CalculateSize(geom.Unset)
	assert.InDelta(t, 400, size.X, 8)
	assert.InDelta(t, 300, size.Y, 8)
	assert.Equal(t, size, p.Size())
}

func TestLinePlotTextOnTop(t *testing.T) {
	p := loadPlot(t, twoGraphPlot)
	p.CalculateSize(geom.Unset)
	inst := p.PrepareInstances(image.Point{}, nil)
	require.NotEmpty(t, inst)

	first := -1
	var lines int
	for i, it := range inst {
		switch it.Prim.Kind() {
		case KindGlyph:
			if first < 0 {
				first = i
			}
		case KindLine:
			lines++
			assert.Less(t, first, 0, "图元 %d 出现在文字之后", i)
		default:
			assert.Less(t, first, 0, "图元 %d 出现在文字之后", i)
		}
	}
	require.GreaterOrEqual(t, first, 0)
	// 5 条 x 刻度线 + 5 条 y 刻度线 + 3 段曲线 + 2 条坐标轴
	assert.Equal(t, 15, lines)
	assert.Equal(t, KindFill, inst[0].Prim.Kind())
}

func TestLinePlotLegend(t *testing.T) {
	for _, pos := range []string{"InsideGraph", "TopRight", "BottomLeft"} {
		t.Run(pos, func(t *testing.T) {
			p := loadPlot(t, twoGraphPlot+`legend { position = `+pos+` }`)
			assert.NotEqual(t, LegendNone, p.Legend)
			p.CalculateSize(geom.Unset)
			var borders, lines int
			for _, it := range p.PrepareInstances(image.Point{}, nil) {
				switch it.Prim.Kind() {
				case KindRectangle:
					borders++
				case KindLine:
					lines++
				}
			}
			assert.Equal(t, 1, borders)
			// 图中 15 条线 + 图例中每条曲线一段
			assert.Equal(t, 17, lines)
		})
	}
}

func TestLinePlotLegendInsideStaysInBody(t *testing.T) {
	p := loadPlot(t, twoGraphPlot+`legend { pos = [1, 1] }`)
	assert.Equal(t, LegendInsideGraph, p.Legend)
	body := p.Plot()
	require.NotNil(t, body)
	p.CalculateSize(image.Pt(400, 300))
	for _, it := range p.PrepareInstances(image.Point{}, nil) {
		if it.Prim.Kind() != KindRectangle {
			continue
		}
		full := p.Size()
		assert.LessOrEqual(t, it.Data.Pos.X+it.Data.Size.X, full.X)
		assert.LessOrEqual(t, it.Data.Pos.Y+it.Data.Size.Y, full.Y)
	}
}

func TestLinePlotExplicitRangeAndTicks(t *testing.T) {
	p := loadPlot(t, `
type = LinePlot
size = [200, 100]
font_name = "box"
x_range = [0, 20]
y_range = [0, 0.5]
x_ticks { values = [0, 10, 20]  format = "%.0f" }
y_ticks { count = 2 }
graph { x_values = [0, 20]  y_values = [0, 1] }
`)
	assert.Equal(t, [2]float64{0, 20}, p.XRange)
	assert.Equal(t, []float64{0, 10, 20}, p.XTicks)
	// 范围小于 1 时按 0.001 取整
	assert.Equal(t, []float64{0.125, 0.375}, p.YTicks)
	assert.Equal(t, 0.0, p.Graphs[0].Values[0].X)
	assert.Equal(t, 1.0, p.Graphs[0].Values[1].X)
}

func TestLinePlotLabelsFromY(t *testing.T) {
	p := loadPlot(t, `
type = LinePlot
size = [200, 100]
font_name = "box"
graph {
  x_values = [0, 1, 2]
  y_values = [0, 10, 5]
  labels_from_y_values = true
}
`)
	g := p.Graphs[0]
	assert.True(t, g.LabelsFromY)
	assert.Equal(t, []string{"0.0", "10.0", "5.0"}, g.Labels)
}

func TestLinePlotSkipsBadAndExternalGraphs(t *testing.T) {
	p := loadPlot(t, `
type = LinePlot
size = [200, 100]
font_name = "box"
graphs { path = "data.csv" }
graph { x_values = [0, 1]  y_values = [0] }
graph { x_values = [0, 1]  y_values = [0, 1] }
`)
	require.Len(t, p.Graphs, 1)
}

func TestLinePlotErrors(t *testing.T) {
	for name, src := range map[string]string{
		"没有曲线":    "type = LinePlot\nfont_name = \"box\"\nsize = [10, 10]\n",
		"没有尺寸":    "type = LinePlot\nfont_name = \"box\"\ngraph { x_values = [0]  y_values = [0] }\n",
		"范围上下界相同": "type = LinePlot\nfont_name = \"box\"\nsize = [10, 10]\nx_range = [1, 1]\ngraph { x_values = [0]  y_values = [0] }\n",
		"未知图例位置":  "type = LinePlot\nfont_name = \"box\"\nsize = [10, 10]\nlegend { position = Middle }\ngraph { x_values = [0]  y_values = [0] }\n",
	} {
		t.Run(name, func(t *testing.T) {
			blk, err := config.ParseFig([]byte(src))
			require.NoError(t, err)
			_, err = Load(blk, testEnv())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestTickFormat(t *testing.T) {
	assert.Equal(t, "%.7f", tickFormat([2]float64{0, 5e-5}))
	assert.Equal(t, "%.3f", tickFormat([2]float64{0, 0.5}))
	assert.Equal(t, "%.1f", tickFormat([2]float64{-1, 50}))
	assert.Equal(t, "%.0f", tickFormat([2]float64{0, 1000}))
	assert.Equal(t, 1200.0, roundTick(1234, [2]float64{0, 5000}))
	assert.Equal(t, "123456789012345", formatTick("%.0f", 1234567890123456789))
}
