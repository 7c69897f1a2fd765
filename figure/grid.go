package figure

import (
	"image"

	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/geom"
)

// Grid flows children left to right in rows, rows top to bottom. A row is as
// tall as its tallest child.
type Grid struct {
	base
	rows [][]Figure
}

func NewGrid() *Grid { return &Grid{base: newBase()} }

func (g *Grid) Kind() Kind { return KindGrid }

// Rows returns the children row by row.
func (g *Grid) Rows() [][]Figure { return g.rows }

// AddRow appends a row of children.
func (g *Grid) AddRow(figs ...Figure) { g.rows = append(g.rows, figs) }

// SetSize sets the configured size.
func (g *Grid) SetSize(size image.Point) { g.declared = size }

func (g *Grid) Load(blk *config.Block, env *Env) error {
	g.declared = blk.IVec2("size", g.declared)
	for i, rb := range blk.Blocks() {
		var row []Figure
		for _, fb := range rb.Blocks() {
			row = append(row, New(fb, env))
		}
		if len(row) == 0 {
			return invalidf("Grid: 第 %d 行为空", i)
		}
		g.rows = append(g.rows, row)
	}
	if len(g.rows) == 0 {
		return invalidf("Grid: 没有任何行")
	}
	return nil
}

func (g *Grid) CalculateSize(force image.Point) image.Point {
	force = g.forceOrDeclared(force)
	proper := g.flow(func(f Figure) image.Point {
		return f.CalculateSize(geom.Unset)
	})
	if !geom.PartialSize(force) || force == proper {
		g.size = proper
		return g.size
	}
	sx, sy := scaleFor(force, proper)
	g.size = g.flow(func(f Figure) image.Point {
		target := geom.MaxPoint(image.Pt(1, 1), geom.ScalePoint(f.Size(), sx, sy))
		return f.CalculateSize(target)
	})
	return g.size
}

// flow sizes every child with size and returns the extent of the rows.
func (g *Grid) flow(size func(Figure) image.Point) image.Point {
	var cur, hi image.Point
	for _, row := range g.rows {
		cur.X = 0
		rowHeight := 0
		for _, f := range row {
			s := size(f)
			rowHeight = max(rowHeight, s.Y)
			hi = geom.MaxPoint(hi, cur.Add(s))
			cur.X += s.X
		}
		cur.Y += rowHeight
	}
	return hi
}

func (g *Grid) PrepareInstances(pos image.Point, out []Instance) []Instance {
	var cur image.Point
	for _, row := range g.rows {
		cur.X = 0
		rowHeight := 0
		for _, f := range row {
			s := f.Size()
			rowHeight = max(rowHeight, s.Y)
			out = f.PrepareInstances(pos.Add(cur), out)
			cur.X += s.X
		}
		cur.Y += rowHeight
	}
	return out
}
