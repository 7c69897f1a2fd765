package geom

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"seehuhn.de/go/geom/vec"
)

func TestValidSize(t *testing.T) {
	assert.True(t, ValidSize(image.Pt(1, 1)))
	assert.False(t, ValidSize(Unset))
	assert.False(t, ValidSize(image.Pt(10, 0)))
	assert.True(t, PartialSize(image.Pt(10, -1)))
	assert.False(t, PartialSize(Unset))
}

func TestMulAppliesRightOperandFirst(t *testing.T) {
	m := Translate(1, 0).Mul(Scale(2, 2))
	got := m.Apply(vec.Vec2{X: 1, Y: 1})
	assert.InDelta(t, 3, got.X, 1e-12)
	assert.InDelta(t, 2, got.Y, 1e-12)
}

func TestRotateAroundCenterKeepsCenter(t *testing.T) {
	c := vec.Vec2{X: 0.5, Y: 0.5}
	m := RotateAround(math.Pi/2, c)
	got := m.Apply(c)
	assert.InDelta(t, 0.5, got.X, 1e-12)
	assert.InDelta(t, 0.5, got.Y, 1e-12)

	corner := m.Apply(vec.Vec2{X: 1, Y: 0.5})
	assert.InDelta(t, 0.5, corner.X, 1e-12)
	assert.InDelta(t, 1, corner.Y, 1e-12)
}

func TestIdentity(t *testing.T) {
	assert.True(t, Identity().Mul(Identity()).IsIdentity(0))
	assert.False(t, Scale(2, 1).IsIdentity(1e-9))
}

func TestSegmentDistance(t *testing.T) {
	d, tt := SegmentDistance(vec.Vec2{X: 5, Y: 3}, vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 10, Y: 0})
	assert.InDelta(t, 3, d, 1e-12)
	assert.InDelta(t, 0.5, tt, 1e-12)

	d, tt = SegmentDistance(vec.Vec2{X: -4, Y: 3}, vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 10, Y: 0})
	assert.InDelta(t, 5, d, 1e-12)
	assert.Zero(t, tt)
}

func TestScalePointTruncates(t *testing.T) {
	assert.Equal(t, image.Pt(3, 7), ScalePoint(image.Pt(2, 5), 1.7, 1.5))
}

func TestInverseUndoesAffine(t *testing.T) {
	m := Translate(0.25, -1).Mul(RotateAround(0.7, vec.Vec2{X: 0.5, Y: 0.5})).Mul(Scale(2, 3))
	inv, ok := m.Inverse()
	assert.True(t, ok)
	assert.True(t, m.Mul(inv).IsIdentity(1e-9))

	_, ok = Scale(0, 1).Inverse()
	assert.False(t, ok)
}
