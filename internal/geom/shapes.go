package geom

import "math"

const ellipseEpsilon = 1e-9

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// RotatePoint rotates p clockwise by degrees around center.
func RotatePoint(p, center Point, degrees float64) Point {
	if degrees == 0 {
		return p
	}
	rad := Radians(degrees)
	cos, sin := math.Cos(rad), math.Sin(rad)
	dx, dy := p.X-center.X, p.Y-center.Y
	return Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// PointInRect reports whether p lies inside r (edges included).
func PointInRect(p Point, r Rect) bool {
	return r.Contains(p)
}

// PointInRotatedRect reports whether p lies inside r rotated by rotation
// degrees around its center. The query point is rotated by -rotation instead
// of rotating the rect.
func PointInRotatedRect(p Point, r Rect, rotation float64) bool {
	if NormalizeDegrees(rotation) == 0 {
		return PointInRect(p, r)
	}
	local := RotatePoint(p, r.Center(), -rotation)
	return PointInRect(local, r)
}

// PointInEllipse reports whether p lies inside the ellipse inscribed in r,
// rotated by rotation degrees around its center.
func PointInEllipse(p Point, r Rect, rotation float64) bool {
	rx, ry := r.Width/2, r.Height/2
	if rx <= 0 || ry <= 0 {
		return false
	}
	c := r.Center()
	local := p
	if NormalizeDegrees(rotation) != 0 {
		local = RotatePoint(p, c, -rotation)
	}
	dx := (local.X - c.X) / rx
	dy := (local.Y - c.Y) / ry
	return dx*dx+dy*dy <= 1+ellipseEpsilon
}

// RotatedBounds returns the axis-aligned box of r's corners rotated by
// rotation degrees around r's center. It is never smaller than r.
func RotatedBounds(r Rect, rotation float64) Rect {
	if NormalizeDegrees(rotation) == 0 {
		return r
	}
	c := r.Center()
	corners := r.Corners()
	for i := range corners {
		corners[i] = RotatePoint(corners[i], c, rotation)
	}
	return BoundsOfPoints(corners[:]...)
}

// RectsIntersect reports whether a and b overlap with positive area.
func RectsIntersect(a, b Rect) bool {
	return a.X < b.X+b.Width && a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height && a.Y+a.Height > b.Y
}

// Intersection returns the overlap of a and b. The second result is false
// when they do not overlap; the returned rect is then the zero value.
func Intersection(a, b Rect) (Rect, bool) {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

// CubicBezier evaluates the cubic bezier p0..p3 at t in [0,1].
func CubicBezier(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// QuadraticBezier evaluates the quadratic bezier p0..p2 at t in [0,1].
func QuadraticBezier(p0, p1, p2 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt
	b := 2 * mt * t
	c := t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y,
	}
}

// DistanceToSegment returns the shortest distance from p to the segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}
