// Package imagerenderer rasterizes layout results and encodes them as
// PNG, BMP or JPEG.
package imagerenderer

import (
	"bytes"
	"fmt"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/imageio"
	"github.com/ByLCY/figura/layout"
	"github.com/ByLCY/figura/raster"
	"github.com/ByLCY/figura/renderer"
)

// Renderer draws layout results through the software rasterizer.
type Renderer struct {
	format imageio.Format
	gamma  float64
	raster *raster.Renderer
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the image renderer.
type Options struct {
	Format imageio.Format
	// Gamma 为输出编码使用的 gamma，默认 2.2。
	Gamma      float64
	Background bitmap.Color
}

// NewRenderer 创建指定格式的图像渲染器。
func NewRenderer(format imageio.Format) *Renderer {
	return NewRendererWithOptions(Options{Format: format})
}

// NewRendererWithOptions creates a renderer from opts.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = imageio.PNG
	}
	if opts.Gamma <= 0 {
		opts.Gamma = imageio.DefaultGamma
	}
	return &Renderer{
		format: opts.Format,
		gamma:  opts.Gamma,
		raster: &raster.Renderer{Background: opts.Background},
	}
}

// Bitmap 返回未编码的线性位图，回归测试直接比较它。
func (r *Renderer) Bitmap(result *layout.Result) (*bitmap.Bitmap, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if result.Size.X <= 0 || result.Size.Y <= 0 {
		return nil, fmt.Errorf("无效的画布尺寸 %v", result.Size)
	}
	return r.raster.Render(result), nil
}

// Render renders the result and encodes it in the configured format.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	b, err := r.Bitmap(result)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, b, r.format, r.gamma); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
