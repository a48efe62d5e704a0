package boolean

import (
	"fmt"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
)

type Op string

const (
	OpUnion     Op = "union"
	OpIntersect Op = "intersect"
	OpSubtract  Op = "subtract"
	OpExclude   Op = "exclude"
)

func (op Op) Valid() bool {
	switch op {
	case OpUnion, OpIntersect, OpSubtract, OpExclude:
		return true
	}
	return false
}

// Union is the convex hull of both point sets.
func Union(a, b Polygon) Polygon {
	all := make([]geom.Point, 0, len(a.Points)+len(b.Points))
	all = append(all, a.Points...)
	all = append(all, b.Points...)
	return Polygon{Points: ConvexHull(all), Closed: true}
}

// Intersect is the convex hull of the points of each polygon inside the
// other plus every edge crossing.
func Intersect(a, b Polygon) (Polygon, error) {
	var pts []geom.Point
	for _, p := range a.Points {
		if PointInPolygon(p, b.Points) {
			pts = append(pts, p)
		}
	}
	for _, p := range b.Points {
		if PointInPolygon(p, a.Points) {
			pts = append(pts, p)
		}
	}
	for _, ea := range a.Edges() {
		for _, eb := range b.Edges() {
			if p, ok := SegmentIntersection(ea[0], ea[1], eb[0], eb[1]); ok {
				pts = append(pts, p)
			}
		}
	}
	hull := ConvexHull(pts)
	if len(hull) < 3 {
		return Polygon{}, ErrEmptyResult
	}
	return Polygon{Points: hull, Closed: true}, nil
}

// Subtract returns a's outline unchanged; b does not carve a hole.
func Subtract(a, _ Polygon) Polygon {
	return Polygon{Points: append([]geom.Point(nil), a.Points...), Closed: a.Closed}
}

// Exclude currently gives the same result as Union.
func Exclude(a, b Polygon) Polygon {
	return Union(a, b)
}

// Combine runs op on two polygons.
func Combine(op Op, a, b Polygon) (Polygon, error) {
	switch op {
	case OpUnion:
		return Union(a, b), nil
	case OpIntersect:
		return Intersect(a, b)
	case OpSubtract:
		return Subtract(a, b), nil
	case OpExclude:
		return Exclude(a, b), nil
	}
	return Polygon{}, fmt.Errorf("unknown boolean op %q", op)
}

// Apply combines two objects into a new path styled like a. Both operands
// must be rectangles, ellipses or paths; the inputs are not modified.
func Apply(op Op, a, b document.Object) (*document.Path, error) {
	if a == nil || b == nil || a == b || !Supported(a) || !Supported(b) {
		return nil, ErrInvalidOperands
	}
	pa, err := PolygonOf(a)
	if err != nil {
		return nil, err
	}
	pb, err := PolygonOf(b)
	if err != nil {
		return nil, err
	}
	res, err := Combine(op, pa, pb)
	if err != nil {
		return nil, err
	}
	if len(res.Points) < 2 {
		return nil, ErrEmptyResult
	}

	pts := make([]document.PathPoint, len(res.Points))
	for i, p := range res.Points {
		pts[i] = document.PathPoint{X: p.X, Y: p.Y}
	}
	path := document.NewPath(pts, res.Closed)
	src, dst := a.Common(), path.Common()
	dst.Name = string(op)
	dst.Fill = src.Fill
	dst.FillOpacity = src.FillOpacity
	dst.Stroke = src.Stroke
	dst.StrokeWidth = src.StrokeWidth
	dst.StrokeOpacity = src.StrokeOpacity
	dst.Opacity = src.Opacity
	dst.BlendMode = src.BlendMode
	dst.Gradient = src.Gradient.Clone()
	return path, nil
}
