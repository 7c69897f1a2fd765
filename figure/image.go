package figure

import (
	"image"
	"path/filepath"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
)

// Image draws a bitmap stretched over its box, sampled through the instance's
// UV transform.
type Image struct {
	base
	Path    string
	Gamma   float64
	Bitmap  *bitmap.Bitmap
	Sampler bitmap.Sampler
}

func NewImage() *Image {
	return &Image{base: newBase(), Gamma: 2.2}
}

func (m *Image) Kind() Kind { return KindImage }

func (m *Image) primitive() {}

func (m *Image) CalculateSize(force image.Point) image.Point {
	if geom.ValidSize(force) {
		m.size = force
	} else {
		m.size = m.declared
	}
	return m.size
}

func (m *Image) PrepareInstances(pos image.Point, out []Instance) []Instance {
	return appendPrimitive(m, pos, out)
}

func (m *Image) Load(blk *config.Block, env *Env) error {
	if err := blk.Require("path"); err != nil {
		return invalidf("Image: %v", err)
	}
	if env == nil || env.Images == nil {
		return invalidf("Image: 未配置图像加载器")
	}
	m.Path = blk.String("path", "")
	if !filepath.IsAbs(m.Path) && env.BaseDir != "" {
		m.Path = filepath.Join(env.BaseDir, m.Path)
	}
	m.Gamma = blk.Float("gamma", m.Gamma)

	bmp, err := env.Images.LoadImage(m.Path, m.Gamma)
	if err != nil {
		return err
	}
	if blk.Bool("monochrome", false) {
		for i, c := range bmp.Pix {
			bmp.Pix[i] = bitmap.Color{R: c.R, G: c.R, B: c.R, A: 1}
		}
	}
	if blk.Has("tonemap_range") {
		r := blk.Vec2("tonemap_range", [2]float64{0, 1})
		if r[1] <= r[0] {
			return invalidf("Image: tonemap_range 上界必须大于下界")
		}
		tonemap(bmp, float32(r[0]), float32(r[1]))
	}
	m.Bitmap = bmp

	if err := m.loadSampler(blk); err != nil {
		return err
	}

	m.declared = blk.IVec2("size", bmp.Size())
	m.size = m.declared
	return nil
}

func (m *Image) loadSampler(blk *config.Block) error {
	if name := blk.String("filter", ""); name != "" {
		f, ok := bitmap.ParseFilter(name)
		if !ok {
			return invalidf("Image: 未知的 filter %q", name)
		}
		m.Sampler.Filter = f
	}
	address := func(key string, def bitmap.AddressMode) (bitmap.AddressMode, error) {
		name := blk.String(key, "")
		if name == "" {
			return def, nil
		}
		a, ok := bitmap.ParseAddressMode(name)
		if !ok {
			return def, invalidf("Image: 未知的 %s %q", key, name)
		}
		return a, nil
	}
	all, err := address("address_mode", bitmap.AddressClamp)
	if err != nil {
		return err
	}
	if m.Sampler.AddressU, err = address("addressU", all); err != nil {
		return err
	}
	if m.Sampler.AddressV, err = address("addressV", all); err != nil {
		return err
	}
	m.Sampler.Border, err = colorOf(blk, "border_color", bitmap.Transparent)
	return err
}

// tonemap maps [lo, hi] linearly onto [0, 1] and makes the image opaque.
func tonemap(b *bitmap.Bitmap, lo, hi float32) {
	scale := 1 / (hi - lo)
	m := func(v float32) float32 {
		return min(1, max(0, (v-lo)*scale))
	}
	for i, c := range b.Pix {
		b.Pix[i] = bitmap.Color{R: m(c.R), G: m(c.G), B: m(c.B), A: 1}
	}
}
