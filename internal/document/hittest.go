package document

import "github.com/inamate/design/internal/geom"

// MinLineHitTolerance keeps thin lines selectable.
const MinLineHitTolerance = 5.0

// ContainsPoint reports whether p hits o in document coordinates.
func ContainsPoint(o Object, p geom.Point) bool {
	rot := o.Common().rotation
	switch v := o.(type) {
	case *Ellipse:
		return geom.PointInEllipse(p, v.Bounds(), rot)
	case *Line:
		a, b := lineEnds(v)
		tol := max(v.StrokeWidth/2, MinLineHitTolerance)
		return geom.DistanceToSegment(p, a, b) <= tol
	case *Unknown:
		return false
	default:
		return geom.PointInRotatedRect(p, o.Bounds(), rot)
	}
}

// Intersects reports whether o overlaps r, used by marquee selection.
func Intersects(o Object, r geom.Rect) bool {
	switch v := o.(type) {
	case *Line:
		a, b := lineEnds(v)
		return geom.SegmentIntersectsRect(a, b, r)
	case *Unknown:
		return false
	default:
		vb := geom.RotatedBounds(o.Bounds(), o.Common().rotation)
		if vb.Width == 0 || vb.Height == 0 {
			return geom.SegmentIntersectsRect(geom.Pt(vb.X, vb.Y), geom.Pt(vb.Right(), vb.Bottom()), r)
		}
		return geom.RectsIntersect(vb, r)
	}
}

// lineEnds returns the endpoints with the line's rotation applied.
func lineEnds(l *Line) (geom.Point, geom.Point) {
	a, b := l.Start(), l.End()
	if rot := l.rotation; rot != 0 {
		c := l.Bounds().Center()
		a = geom.RotatePoint(a, c, rot)
		b = geom.RotatePoint(b, c, rot)
	}
	return a, b
}

// VisualBounds is the axis-aligned box of o after rotation.
func VisualBounds(o Object) geom.Rect {
	return geom.RotatedBounds(o.Bounds(), o.Common().rotation)
}
