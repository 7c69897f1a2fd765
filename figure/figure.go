// Package figure implements the figure tree: composite nodes (Grid, Collage,
// Transform, Text, LineGraph, LinePlot) and drawable primitives, the two-phase size
// negotiation (CalculateSize) and the flattening into positioned instances
// (PrepareInstances).
package figure

import (
	"errors"
	"image"
	"strings"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/geom"
)

// ErrInvalidConfig marks configuration errors returned by Load.
var ErrInvalidConfig = errors.New("figure: invalid configuration")

// Kind identifies a node type.
type Kind int

const (
	KindUnknown Kind = iota
	KindGrid
	KindCollage
	KindTransform
	KindText
	KindLineGraph
	KindLinePlot
	KindFill
	KindImage
	KindLine
	KindCircle
	KindRectangle
	KindPolygon
	KindGlyph
)

var kindNames = map[Kind]string{
	KindUnknown:   "Unknown",
	KindGrid:      "Grid",
	KindCollage:   "Collage",
	KindTransform: "Transform",
	KindText:      "Text",
	KindLineGraph: "LineGraph",
	KindLinePlot:  "LinePlot",
	KindFill:      "Fill",
	KindImage:     "Image",
	KindLine:      "Line",
	KindCircle:    "Circle",
	KindRectangle: "Rectangle",
	KindPolygon:   "Polygon",
	KindGlyph:     "Glyph",
}

var kindByName = func() map[string]Kind {
	m := map[string]Kind{
		"primitivefill":  KindFill,
		"primitiveimage": KindImage,
	}
	for k, n := range kindNames {
		if k != KindUnknown {
			m[strings.ToLower(n)] = k
		}
	}
	return m
}()

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// ParseKind maps a configuration type name to a Kind.
func ParseKind(s string) Kind {
	return kindByName[strings.ToLower(s)]
}

// Figure is one node of the tree.
type Figure interface {
	Kind() Kind
	// Size is the size derived by the last CalculateSize call.
	Size() image.Point
	// CalculateSize negotiates the node's size. force is either geom.Unset or
	// the size the parent wants; a composite may still return something else
	// when its content cannot be scaled to exactly that size.
	CalculateSize(force image.Point) image.Point
	// PrepareInstances appends the primitives of the subtree, placed relative
	// to pos, in painter order.
	PrepareInstances(pos image.Point, out []Instance) []Instance
	// Load reads the node's own configuration.
	Load(blk *config.Block, env *Env) error
}

// Primitive is a leaf that the rasterizer can draw.
type Primitive interface {
	Figure
	primitive()
}

// InstanceData places one primitive on the canvas.
type InstanceData struct {
	Pos  image.Point
	Size image.Point
	// UV maps the primitive's local [0,1]² coordinates into its source space.
	UV geom.Mat3
}

// Instance is a primitive placed on the canvas. Prim is borrowed from the tree
// and must not outlive it.
type Instance struct {
	Prim Primitive
	Data InstanceData
}

// ImageLoader decodes an image file into linear colours.
type ImageLoader interface {
	LoadImage(path string, gamma float64) (*bitmap.Bitmap, error)
}

// Env carries the shared services a tree is loaded with.
type Env struct {
	Fonts   *fonts.Cache
	Images  ImageLoader
	BaseDir string
}

// base holds what every node has: a configured size and a derived one.
type base struct {
	declared image.Point
	size     image.Point
}

func newBase() base {
	return base{declared: geom.Unset, size: geom.Unset}
}

func (b *base) Size() image.Point { return b.size }

// forceOrDeclared applies the "explicit size is forced onto children" rule.
func (b *base) forceOrDeclared(force image.Point) image.Point {
	if !geom.PartialSize(force) && geom.ValidSize(b.declared) {
		return b.declared
	}
	return force
}

// shape is the common part of single-instance primitives.
type shape struct {
	base
	Color bitmap.Color
}

func newShape() shape {
	return shape{base: newBase(), Color: bitmap.Color{R: 1, A: 1}}
}

func (s *shape) primitive() {}

// CalculateSize adopts a valid forced size, otherwise keeps the configured one.
func (s *shape) CalculateSize(force image.Point) image.Point {
	if geom.ValidSize(force) {
		s.size = force
	} else {
		s.size = s.declared
	}
	return s.size
}

func (s *shape) loadShape(blk *config.Block) error {
	s.declared = blk.IVec2("size", s.declared)
	s.size = s.declared
	c, err := colorOf(blk, "color", s.Color)
	if err != nil {
		return err
	}
	s.Color = c
	return nil
}

func (s *shape) requireSize(kind Kind) error {
	if !geom.ValidSize(s.declared) {
		return invalidf("%s: 必须显式声明 size", kind)
	}
	return nil
}

func appendPrimitive(p Primitive, pos image.Point, out []Instance) []Instance {
	size := p.Size()
	if !geom.ValidSize(size) {
		return out
	}
	return append(out, Instance{
		Prim: p,
		Data: InstanceData{Pos: pos, Size: size, UV: geom.Identity()},
	})
}
