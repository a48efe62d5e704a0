package geom

import "math"

// Matrix2D is an affine transform stored as [a b c d e f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
//
// which is the argument order of Canvas2D setTransform.
type Matrix2D [6]float64

func Identity() Matrix2D { return Matrix2D{1, 0, 0, 1, 0, 0} }

func Translate(tx, ty float64) Matrix2D { return Matrix2D{1, 0, 0, 1, tx, ty} }

func Scale(sx, sy float64) Matrix2D { return Matrix2D{sx, 0, 0, sy, 0, 0} }

// Rotate turns by radians; positive is clockwise on a y-down canvas.
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

func RotateDegrees(degrees float64) Matrix2D { return Rotate(Radians(degrees)) }

// RotateAbout turns by degrees around c.
func RotateAbout(degrees float64, c Point) Matrix2D {
	if degrees == 0 {
		return Identity()
	}
	return Translate(c.X, c.Y).Multiply(RotateDegrees(degrees)).Multiply(Translate(-c.X, -c.Y))
}

// Multiply composes m after n: the result maps p to m(n(p)).
func (m Matrix2D) Multiply(n Matrix2D) Matrix2D {
	a, b, c, d, e, f := m[0], m[1], m[2], m[3], m[4], m[5]
	return Matrix2D{
		a*n[0] + c*n[1],
		b*n[0] + d*n[1],
		a*n[2] + c*n[3],
		b*n[2] + d*n[3],
		a*n[4] + c*n[5] + e,
		b*n[4] + d*n[5] + f,
	}
}

func (m Matrix2D) TransformPoint(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// TransformRect returns the axis-aligned box around the transformed corners.
func (m Matrix2D) TransformRect(r Rect) Rect {
	corners := r.Corners()
	for i, p := range corners {
		corners[i] = m.TransformPoint(p)
	}
	return BoundsOfPoints(corners[:]...)
}

// Invert returns the inverse, or the identity for a singular matrix.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity()
	}
	k := 1 / det
	return Matrix2D{
		m[3] * k,
		-m[1] * k,
		-m[2] * k,
		m[0] * k,
		(m[2]*m[5] - m[3]*m[4]) * k,
		(m[1]*m[4] - m[0]*m[5]) * k,
	}
}

// ToSlice is the JSON form used by draw commands.
func (m Matrix2D) ToSlice() []float64 { return m[:] }

func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	id := Identity()
	for i := range m {
		if math.Abs(m[i]-id[i]) >= eps {
			return false
		}
	}
	return true
}
