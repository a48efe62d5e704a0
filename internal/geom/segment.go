package geom

// SegmentIntersection returns the crossing point of segments a1a2 and b1b2
// using the parametric determinant form, accepting t,u in [0,1].
// Parallel and collinear segments report false.
func SegmentIntersection(a1, a2, b1, b2 Point) (Point, bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	denom := r.Cross(s)
	if denom == 0 {
		return Point{}, false
	}
	qp := b1.Sub(a1)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return a1.Add(r.Mul(t)), true
}

// SegmentIntersectsRect reports whether segment ab touches rect r.
func SegmentIntersectsRect(a, b Point, r Rect) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}
	c := r.Corners()
	for i := range c {
		if _, ok := SegmentIntersection(a, b, c[i], c[(i+1)%4]); ok {
			return true
		}
	}
	return false
}
