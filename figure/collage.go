package figure

import (
	"image"

	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/logx"
)

// Element is one freely placed child of a Collage. Pos and Size are the
// configured values; the laid-out ones are returned by Placed.
type Element struct {
	Pos    image.Point
	Size   image.Point
	Figure Figure

	pos, size image.Point
}

// Placed returns the element's position and size after the last layout.
func (e *Element) Placed() (image.Point, image.Point) { return e.pos, e.size }

// Collage places children at absolute offsets; its extent is the bounding box
// of all elements, starting at the origin.
type Collage struct {
	base
	elements []*Element
}

func NewCollage() *Collage { return &Collage{base: newBase()} }

func (c *Collage) Kind() Kind { return KindCollage }

// Elements returns the children in painter order.
func (c *Collage) Elements() []*Element { return c.elements }

// Add appends a child at pos. A zero or negative size lets the child choose.
func (c *Collage) Add(pos, size image.Point, fig Figure) *Element {
	e := &Element{Pos: pos, Size: size, Figure: fig, pos: pos, size: size}
	c.elements = append(c.elements, e)
	return e
}

// SetSize sets the configured size.
func (c *Collage) SetSize(size image.Point) { c.declared = size }

func (c *Collage) Load(blk *config.Block, env *Env) error {
	c.declared = blk.IVec2("size", c.declared)
	for _, eb := range blk.Blocks() {
		fig := New(eb, env)
		c.Add(eb.IVec2("pos", image.Point{}), eb.IVec2("size", geom.Unset), fig)
	}
	if len(c.elements) == 0 {
		return invalidf("Collage: 没有任何元素")
	}
	return nil
}

func (c *Collage) CalculateSize(force image.Point) image.Point {
	force = c.forceOrDeclared(force)
	if len(c.elements) == 0 {
		if geom.ValidSize(force) {
			c.size = force
		} else {
			c.size = image.Pt(1, 1)
		}
		return c.size
	}

	for _, e := range c.elements {
		e.pos = e.Pos
		if geom.ValidSize(e.Size) {
			e.size = e.Size
		} else {
			e.size = e.Figure.CalculateSize(geom.Unset)
		}
	}
	proper := c.bounds()

	sx, sy := scaleFor(force, proper)
	if sx != 1 || sy != 1 {
		logx.Logger().Debug("Collage 缩放", "proper", proper, "force", force, "sx", sx, "sy", sy)
	}
	for _, e := range c.elements {
		e.pos = geom.ScalePoint(e.pos, sx, sy)
		target := geom.MaxPoint(image.Pt(1, 1), geom.ScalePoint(e.size, sx, sy))
		e.size = e.Figure.CalculateSize(target)
	}
	c.size = c.bounds()
	return c.size
}

// bounds is the extent of all elements measured from the origin.
func (c *Collage) bounds() image.Point {
	var lo, hi image.Point
	for _, e := range c.elements {
		lo = geom.MinPoint(lo, e.pos)
		hi = geom.MaxPoint(hi, e.pos.Add(e.size))
	}
	return hi.Sub(lo)
}

func (c *Collage) PrepareInstances(pos image.Point, out []Instance) []Instance {
	for _, e := range c.elements {
		out = e.Figure.PrepareInstances(pos.Add(e.pos), out)
	}
	return out
}

// scaleFor returns the per-axis factor that maps proper onto force. Axes that
// are not forced, or whose proper extent collapsed, keep a factor of 1.
func scaleFor(force, proper image.Point) (float64, float64) {
	sx, sy := 1.0, 1.0
	if force.X > 0 && proper.X > 0 {
		sx = float64(force.X) / float64(proper.X)
	}
	if force.Y > 0 && proper.Y > 0 {
		sy = float64(force.Y) / float64(proper.Y)
	}
	return sx, sy
}
