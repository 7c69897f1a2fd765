package imagerenderer

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/imageio"
	"github.com/ByLCY/figura/layout"
)

const twoRows = `
figure {
	type = Grid
	row { a { type = Fill  size = [10, 10]  color = [1, 0, 0, 1] } }
	row { b { type = Fill  size = [20, 5]   color = [0, 0, 1, 1] } }
}
`

func build(t *testing.T, src string) *layout.Result {
	t.Helper()
	blk, err := config.ParseFig([]byte(src))
	require.NoError(t, err)
	res, err := layout.BuildConfig(blk, &figure.Env{}, layout.BuildOptions{})
	require.NoError(t, err)
	return res
}

func TestRenderPNG(t *testing.T) {
	data, err := NewRenderer(imageio.PNG).Render(build(t, twoRows))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 15), img.Bounds())

	b := bitmap.FromImage(img, imageio.DefaultGamma)
	assert.InDelta(t, 1, b.At(2, 2).R, 0.01)
	assert.InDelta(t, 1, b.At(15, 12).B, 0.01)
	// 第一行右侧未被覆盖，保持透明
	assert.InDelta(t, 0, b.At(15, 2).A, 0.01)
}

func TestRenderWithBackground(t *testing.T) {
	r := NewRendererWithOptions(Options{Format: imageio.BMP, Background: bitmap.White})
	b, err := r.Bitmap(build(t, twoRows))
	require.NoError(t, err)
	assert.Equal(t, bitmap.White, b.At(15, 2))

	data, err := r.Render(build(t, twoRows))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("BM")))
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	_, err := NewRenderer(imageio.PNG).Render(nil)
	assert.Error(t, err)
	_, err = NewRenderer(imageio.PNG).Render(&layout.Result{})
	assert.Error(t, err)
}
