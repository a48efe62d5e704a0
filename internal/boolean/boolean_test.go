package boolean

import (
	"errors"
	"math"
	"testing"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
)

func samePointSet(got, want []geom.Point) bool {
	if len(got) != len(want) {
		return false
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if math.Abs(g.X-w.X) < 1e-9 && math.Abs(g.Y-w.Y) < 1e-9 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestConvexHull(t *testing.T) {
	tests := []struct {
		name string
		in   []geom.Point
		want []geom.Point
	}{
		{
			"square with center",
			[]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5}},
			[]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		},
		{
			"collinear edge points dropped",
			[]geom.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}},
			[]geom.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}},
		},
		{
			"duplicates",
			[]geom.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3}, {X: 4, Y: 0}},
			[]geom.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3}},
		},
		{
			"two points",
			[]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
			[]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvexHull(tt.in); !samePointSet(got, tt.want) {
				t.Errorf("ConvexHull() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvexHullStartsAtPivot(t *testing.T) {
	got := ConvexHull([]geom.Point{{X: 3, Y: 5}, {X: 1, Y: 1}, {X: 5, Y: 1}, {X: 0, Y: 4}})
	if got[0] != (geom.Point{X: 1, Y: 1}) {
		t.Errorf("hull starts at %v, want lowest-then-leftmost (1,1)", got[0])
	}
}

func TestUnionOfDisjointSquares(t *testing.T) {
	a := document.NewRectangle(0, 0, 1, 1)
	b := document.NewRectangle(10, 10, 1, 1)
	path, err := Apply(OpUnion, a, b)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	var got []geom.Point
	for _, p := range path.Points() {
		got = append(got, p.Anchor())
	}
	want := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 11, Y: 10}, {X: 11, Y: 11}, {X: 10, Y: 11}, {X: 0, Y: 1}}
	if !samePointSet(got, want) {
		t.Errorf("union = %v, want hexagon %v", got, want)
	}
	if !path.Closed {
		t.Errorf("union path should be closed")
	}
	if path.Fill != a.Fill {
		t.Errorf("result fill = %q, want operand A's %q", path.Fill, a.Fill)
	}
}

func TestIntersect(t *testing.T) {
	a, _ := PolygonOf(document.NewRectangle(0, 0, 10, 10))
	b, _ := PolygonOf(document.NewRectangle(5, 5, 10, 10))
	got, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect() error = %v", err)
	}
	want := []geom.Point{{X: 5, Y: 5}, {X: 10, Y: 5}, {X: 10, Y: 10}, {X: 5, Y: 10}}
	if !samePointSet(got.Points, want) {
		t.Errorf("Intersect() = %v, want %v", got.Points, want)
	}

	far, _ := PolygonOf(document.NewRectangle(50, 50, 1, 1))
	if _, err := Intersect(a, far); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("disjoint Intersect() error = %v, want ErrEmptyResult", err)
	}
}

func TestSubtractAndExcludeApproximations(t *testing.T) {
	a, _ := PolygonOf(document.NewRectangle(0, 0, 10, 10))
	b, _ := PolygonOf(document.NewRectangle(5, 5, 10, 10))
	if got := Subtract(a, b); !samePointSet(got.Points, a.Points) {
		t.Errorf("Subtract() = %v, want A's outline", got.Points)
	}
	if got, want := Exclude(a, b), Union(a, b); !samePointSet(got.Points, want.Points) {
		t.Errorf("Exclude() = %v, want Union() %v", got.Points, want.Points)
	}
}

func TestPolygonOf(t *testing.T) {
	ellipse, _ := PolygonOf(document.NewEllipse(0, 0, 20, 10))
	if len(ellipse.Points) != EllipseSides {
		t.Errorf("ellipse sides = %d, want %d", len(ellipse.Points), EllipseSides)
	}
	if ellipse.Points[0] != (geom.Point{X: 20, Y: 5}) {
		t.Errorf("first ellipse point = %v, want (20,5)", ellipse.Points[0])
	}

	rounded := document.NewRectangle(0, 0, 100, 50)
	rounded.CornerRadius = 10
	rp, _ := PolygonOf(rounded)
	if len(rp.Points) != 4*(CornerSegments+1) {
		t.Errorf("rounded rect points = %d", len(rp.Points))
	}
	for _, p := range rp.Points {
		if p.X < -1e-9 || p.X > 100+1e-9 || p.Y < -1e-9 || p.Y > 50+1e-9 {
			t.Errorf("rounded point %v outside the rect", p)
		}
	}

	curve := document.NewPath([]document.PathPoint{
		{X: 0, Y: 0, HandleOut: &geom.Point{X: 0, Y: 10}},
		{X: 10, Y: 10, HandleIn: &geom.Point{X: 10, Y: 0}},
		{X: 20, Y: 0},
	}, false)
	cp, _ := PolygonOf(curve)
	if len(cp.Points) != 1+CurveSegments+1 || cp.Closed {
		t.Errorf("open path polygon = %d points closed=%v", len(cp.Points), cp.Closed)
	}
	if last := cp.Points[len(cp.Points)-1]; last != (geom.Point{X: 20, Y: 0}) {
		t.Errorf("open path should end on its last anchor, got %v", last)
	}

	tri := document.NewPath([]document.PathPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}, true)
	tp, _ := PolygonOf(tri)
	if len(tp.Points) != 3 || len(tp.Edges()) != 3 {
		t.Errorf("closed triangle = %v edges=%d", tp.Points, len(tp.Edges()))
	}

	rot := document.NewRectangle(0, 0, 10, 10)
	rot.SetRotation(45)
	rpoly, _ := PolygonOf(rot)
	for _, p := range rpoly.Points {
		if d := p.Distance(geom.Pt(5, 5)); math.Abs(d-math.Sqrt(50)) > 1e-9 {
			t.Errorf("rotated corner %v at distance %v from center", p, d)
		}
	}
}

func TestApplyRejectsInvalidOperands(t *testing.T) {
	r := document.NewRectangle(0, 0, 1, 1)
	tests := []struct {
		name string
		a, b document.Object
	}{
		{"text operand", r, document.NewText(0, 0, "x")},
		{"group operand", document.NewGroup(), r},
		{"same object", r, r},
		{"nil", r, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Apply(OpUnion, tt.a, tt.b); !errors.Is(err, ErrInvalidOperands) {
				t.Errorf("Apply() error = %v, want ErrInvalidOperands", err)
			}
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	sq := []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	if !PointInPolygon(geom.Pt(5, 5), sq) {
		t.Errorf("center not inside")
	}
	if PointInPolygon(geom.Pt(15, 5), sq) {
		t.Errorf("outside point reported inside")
	}
}
