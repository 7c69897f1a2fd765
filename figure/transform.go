package figure

import (
	"image"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
)

// Transform crops, scales, rotates and mirrors its child. Only images and
// nested transforms are actually warped; other children are resized to the
// transform's extent and drawn as they are.
type Transform struct {
	base
	Child Figure
	// Crop is (x0, y0, x1, y1) in the child's normalized coordinates.
	Crop     [4]float64
	Scale    [2]float64
	Rotation float64 // degrees
	MirrorX  bool
	MirrorY  bool
	Frame    *Rectangle
}

func NewTransform() *Transform {
	return &Transform{base: newBase(), Crop: [4]float64{0, 0, 1, 1}, Scale: [2]float64{1, 1}}
}

func (t *Transform) Kind() Kind { return KindTransform }

func (t *Transform) Load(blk *config.Block, env *Env) error {
	t.declared = blk.IVec2("size", t.declared)
	t.Crop = blk.Vec4("crop", t.Crop)
	t.Scale = blk.Vec2("scale", t.Scale)
	t.Rotation = blk.Float("rotation", t.Rotation)
	t.MirrorX = blk.Bool("mirror_x", t.MirrorX)
	t.MirrorY = blk.Bool("mirror_y", t.MirrorY)

	fb := blk.Block("figure")
	if fb == nil {
		return invalidf("Transform: 缺少 figure 块")
	}
	t.Child = New(fb, env)

	if frb := blk.Block("frame"); frb != nil {
		frb = frb.Clone()
		// 实际尺寸稍后由 CalculateSize 决定
		frb.Set("size", config.Array(config.Number(1), config.Number(1)))
		frame := NewRectangle()
		if err := frame.Load(frb, env); err != nil {
			return invalidf("Transform: frame 加载失败: %v", err)
		}
		t.Frame = frame
	}
	return nil
}

func (t *Transform) warps() bool {
	k := t.Child.Kind()
	return k == KindImage || k == KindTransform
}

func (t *Transform) CalculateSize(force image.Point) image.Point {
	force = t.forceOrDeclared(force)
	natural := t.Child.CalculateSize(geom.Unset)
	target := image.Point{
		X: int(t.Scale[0] * (t.Crop[2] - t.Crop[0]) * float64(natural.X)),
		Y: int(t.Scale[1] * (t.Crop[3] - t.Crop[1]) * float64(natural.Y)),
	}
	size := target
	if geom.PartialSize(force) && geom.ValidSize(target) {
		s := math.Inf(1)
		if force.X > 0 {
			s = float64(force.X) / float64(target.X)
		}
		if force.Y > 0 {
			s = min(s, float64(force.Y)/float64(target.Y))
		}
		size = geom.ScalePoint(target, s, s)
	}
	if !geom.ValidSize(size) {
		t.size = geom.Unset
		return t.size
	}
	if !t.warps() {
		size = t.Child.CalculateSize(size)
	}
	if t.Frame != nil {
		size = t.Frame.CalculateSize(size)
	}
	t.size = size
	return t.size
}

// UVTransform is the matrix applied to the child's UVs: crop first, then
// rotation about the centre, then mirroring.
func (t *Transform) UVTransform() geom.Mat3 {
	x0, y0, x1, y1 := t.Crop[0], t.Crop[1], t.Crop[2], t.Crop[3]
	crop := geom.Mat3{x1 - x0, 0, x0, 0, y1 - y0, y0, 0, 0, 1}
	rot := geom.Identity()
	if t.Rotation != 0 {
		rot = geom.RotateAround(t.Rotation*math.Pi/180, vec.Vec2{X: 0.5, Y: 0.5})
	}
	mirror := geom.Identity()
	if t.MirrorX {
		mirror[0], mirror[2] = -1, 1
	}
	if t.MirrorY {
		mirror[4], mirror[5] = -1, 1
	}
	return mirror.Mul(rot).Mul(crop)
}

func (t *Transform) PrepareInstances(pos image.Point, out []Instance) []Instance {
	if !geom.ValidSize(t.size) {
		return out
	}
	if t.warps() {
		m := t.UVTransform()
		start := len(out)
		out = t.Child.PrepareInstances(pos, out)
		for i := start; i < len(out); i++ {
			out[i].Data.Size = t.size
			out[i].Data.UV = m.Mul(out[i].Data.UV)
		}
	} else {
		out = t.Child.PrepareInstances(pos, out)
	}
	if t.Frame != nil {
		out = t.Frame.PrepareInstances(pos, out)
	}
	return out
}
