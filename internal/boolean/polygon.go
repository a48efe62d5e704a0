// Package boolean combines two shapes by approximating both with polygons.
//
// Union and Intersect are convex-hull approximations. Subtract keeps the
// first operand's outline and Exclude equals Union. Non-convex or disjoint
// operands therefore do not produce exact results.
package boolean

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
)

const (
	CornerSegments = 8
	EllipseSides   = 32
	CurveSegments  = 8
)

var (
	ErrInvalidOperands = errors.New("boolean operands must be rectangles, ellipses or paths")
	ErrEmptyResult     = errors.New("boolean result is empty")
)

// Polygon is a point sequence. Closed polygons wrap from the last point
// back to the first.
type Polygon struct {
	Points []geom.Point
	Closed bool
}

// Edges returns the polygon's segments.
func (p Polygon) Edges() [][2]geom.Point {
	n := len(p.Points)
	if n < 2 {
		return nil
	}
	edges := make([][2]geom.Point, 0, n)
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]geom.Point{p.Points[i], p.Points[i+1]})
	}
	if p.Closed && n > 2 {
		edges = append(edges, [2]geom.Point{p.Points[n-1], p.Points[0]})
	}
	return edges
}

// Supported reports whether o can be an operand.
func Supported(o document.Object) bool {
	switch o.(type) {
	case *document.Rectangle, *document.Ellipse, *document.Path:
		return true
	}
	return false
}

// PolygonOf approximates o in document coordinates, rotation included.
func PolygonOf(o document.Object) (Polygon, error) {
	var poly Polygon
	switch v := o.(type) {
	case *document.Rectangle:
		poly = rectPolygon(v.Bounds(), v.CornerRadius)
	case *document.Ellipse:
		poly = ellipsePolygon(v.Bounds())
	case *document.Path:
		poly = pathPolygon(v.Points(), v.Closed)
	default:
		return Polygon{}, fmt.Errorf("polygon of %s: %w", o.Type(), ErrInvalidOperands)
	}
	if rot := o.Common().Rotation(); rot != 0 {
		c := o.Bounds().Center()
		for i, p := range poly.Points {
			poly.Points[i] = geom.RotatePoint(p, c, rot)
		}
	}
	return poly, nil
}

func rectPolygon(r geom.Rect, radius float64) Polygon {
	radius = min(radius, r.Width/2, r.Height/2)
	if radius <= 0 {
		c := r.Corners()
		return Polygon{Points: c[:], Closed: true}
	}
	corners := []struct {
		center geom.Point
		start  float64
	}{
		{geom.Pt(r.X+radius, r.Y+radius), 180},
		{geom.Pt(r.Right()-radius, r.Y+radius), 270},
		{geom.Pt(r.Right()-radius, r.Bottom()-radius), 0},
		{geom.Pt(r.X+radius, r.Bottom()-radius), 90},
	}
	pts := make([]geom.Point, 0, 4*(CornerSegments+1))
	for _, c := range corners {
		for i := 0; i <= CornerSegments; i++ {
			a := geom.Radians(c.start + 90*float64(i)/CornerSegments)
			pts = append(pts, geom.Pt(c.center.X+radius*math.Cos(a), c.center.Y+radius*math.Sin(a)))
		}
	}
	return Polygon{Points: pts, Closed: true}
}

func ellipsePolygon(r geom.Rect) Polygon {
	c := r.Center()
	rx, ry := r.Width/2, r.Height/2
	pts := make([]geom.Point, EllipseSides)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / EllipseSides
		pts[i] = geom.Pt(c.X+rx*math.Cos(a), c.Y+ry*math.Sin(a))
	}
	return Polygon{Points: pts, Closed: true}
}

func pathPolygon(points []document.PathPoint, closed bool) Polygon {
	if len(points) == 0 {
		return Polygon{Closed: closed}
	}
	pts := []geom.Point{points[0].Anchor()}
	segment := func(from, to document.PathPoint) {
		p0, p3 := from.Anchor(), to.Anchor()
		switch {
		case from.HandleOut != nil && to.HandleIn != nil:
			for i := 1; i <= CurveSegments; i++ {
				pts = append(pts, geom.CubicBezier(p0, *from.HandleOut, *to.HandleIn, p3, float64(i)/CurveSegments))
			}
		case from.HandleOut != nil || to.HandleIn != nil:
			ctrl := from.HandleOut
			if ctrl == nil {
				ctrl = to.HandleIn
			}
			for i := 1; i <= CurveSegments; i++ {
				pts = append(pts, geom.QuadraticBezier(p0, *ctrl, p3, float64(i)/CurveSegments))
			}
		default:
			pts = append(pts, p3)
		}
	}
	for i := 1; i < len(points); i++ {
		segment(points[i-1], points[i])
	}
	if closed && len(points) > 1 {
		segment(points[len(points)-1], points[0])
		// the wrap segment ends on the first anchor, already present
		pts = pts[:len(pts)-1]
	}
	return Polygon{Points: pts, Closed: closed}
}

// ConvexHull returns the hull of points with a Graham scan, in
// counter-clockwise order (y up) starting at the lowest, then leftmost,
// point. Collinear boundary points are dropped. Fewer than three distinct
// points are returned as they are.
func ConvexHull(points []geom.Point) []geom.Point {
	uniq := dedupe(points)
	if len(uniq) < 3 {
		return uniq
	}
	pivot := 0
	for i, p := range uniq {
		q := uniq[pivot]
		if p.Y < q.Y || (p.Y == q.Y && p.X < q.X) {
			pivot = i
		}
	}
	uniq[0], uniq[pivot] = uniq[pivot], uniq[0]
	p0 := uniq[0]
	rest := uniq[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		ai := math.Atan2(rest[i].Y-p0.Y, rest[i].X-p0.X)
		aj := math.Atan2(rest[j].Y-p0.Y, rest[j].X-p0.X)
		if ai != aj {
			return ai < aj
		}
		return p0.Distance(rest[i]) < p0.Distance(rest[j])
	})

	hull := []geom.Point{p0}
	for _, p := range rest {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

func turn(a, b, c geom.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func dedupe(points []geom.Point) []geom.Point {
	seen := make(map[geom.Point]bool, len(points))
	out := make([]geom.Point, 0, len(points))
	for _, p := range points {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// PointInPolygon is an even-odd ray cast against the closed outline.
func PointInPolygon(p geom.Point, poly []geom.Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// SegmentIntersection returns where segments a1a2 and b1b2 cross.
func SegmentIntersection(a1, a2, b1, b2 geom.Point) (geom.Point, bool) {
	return geom.SegmentIntersection(a1, a2, b1, b2)
}
