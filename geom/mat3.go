package geom

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Mat3 is a row-major 3×3 matrix acting on homogeneous column vectors (x, y, 1).
// Only affine matrices are produced here, so the last row stays (0, 0, 1).
type Mat3 [9]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Mat3 {
	return Mat3{1, 0, tx, 0, 1, ty, 0, 0, 1}
}

// Scale returns a non-uniform scale.
func Scale(sx, sy float64) Mat3 {
	return Mat3{sx, 0, 0, 0, sy, 0, 0, 0, 1}
}

// Rotate returns a counter-clockwise rotation by rad radians about the origin.
func Rotate(rad float64) Mat3 {
	s, c := math.Sincos(rad)
	return Mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

// RotateAround rotates about center.
func RotateAround(rad float64, center vec.Vec2) Mat3 {
	return Translate(center.X, center.Y).Mul(Rotate(rad)).Mul(Translate(-center.X, -center.Y))
}

// Mul returns m·o, i.e. o is applied first.
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i*3+j] = m[i*3]*o[j] + m[i*3+1]*o[3+j] + m[i*3+2]*o[6+j]
		}
	}
	return r
}

// Apply transforms the point v.
func (m Mat3) Apply(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*v.X + m[1]*v.Y + m[2],
		Y: m[3]*v.X + m[4]*v.Y + m[5],
	}
}

// IsIdentity reports whether m equals the identity within eps.
func (m Mat3) IsIdentity(eps float64) bool {
	id := Identity()
	for i := range m {
		if math.Abs(m[i]-id[i]) > eps {
			return false
		}
	}
	return true
}

// Inverse returns the inverse of the affine matrix m; ok is false when m is singular.
func (m Mat3) Inverse() (Mat3, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if math.Abs(det) < 1e-12 {
		return Mat3{}, false
	}
	a, b, c, d := m[4]/det, -m[1]/det, -m[3]/det, m[0]/det
	return Mat3{
		a, b, -(a*m[2] + b*m[5]),
		c, d, -(c*m[2] + d*m[5]),
		0, 0, 1,
	}, true
}
