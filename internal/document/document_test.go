package document

import (
	"errors"
	"testing"

	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/layout"
)

func TestAddChildRejectsCycles(t *testing.T) {
	outer := NewGroup()
	inner := NewGroup()
	if err := outer.AddChild(inner); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	frame := NewFrame(0, 0, 10, 10)

	comp := NewComponent(0, 0, 10, 10)
	inst := NewInstance(comp, 50, 50)
	nested := NewFrame(0, 0, 5, 5)
	_ = comp.AddChild(nested)

	tests := []struct {
		name      string
		container Container
		child     Object
	}{
		{"self", frame, frame},
		{"ancestor into descendant", inner, outer},
		{"instance into its own master", comp, inst},
		{"instance into a descendant of its master", nested, inst},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.container.AddChild(tt.child); !errors.Is(err, ErrCycle) {
				t.Errorf("AddChild() error = %v, want ErrCycle", err)
			}
		})
	}
	if inner.Parent() != Container(outer) || outer.Parent() != nil {
		t.Errorf("rejected add changed the tree")
	}
}

func TestAddChildReparents(t *testing.T) {
	a, b := NewGroup(), NewGroup()
	r := NewRectangle(0, 0, 10, 10)
	_ = a.AddChild(r)
	if err := b.AddChild(r); err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	if a.Len() != 0 || b.Len() != 1 || r.Parent() != Container(b) {
		t.Errorf("reparent: a=%d b=%d parent=%v", a.Len(), b.Len(), r.Parent())
	}
	if err := a.RemoveChild(r); !errors.Is(err, ErrNotChild) {
		t.Errorf("RemoveChild() error = %v, want ErrNotChild", err)
	}
	if err := b.RemoveChild(r); err != nil || r.Parent() != nil {
		t.Errorf("RemoveChild() = %v, parent = %v", err, r.Parent())
	}
}

func TestLineBoundsAreDerived(t *testing.T) {
	l := NewLine(10, 20, 50, 0)
	if got, want := l.Bounds(), geom.R(10, 0, 40, 20); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	l.SetBounds(geom.R(0, 0, 80, 40))
	if l.X1 != 0 || l.Y1 != 40 || l.X2 != 80 || l.Y2 != 0 {
		t.Errorf("endpoints = (%v,%v)-(%v,%v), want (0,40)-(80,0)", l.X1, l.Y1, l.X2, l.Y2)
	}
	Move(l, 5, 5)
	if got, want := l.Bounds(), geom.R(5, 5, 80, 40); got != want {
		t.Errorf("after Move Bounds() = %v, want %v", got, want)
	}

	vertical := NewLine(10, 0, 10, 100)
	vertical.SetBounds(geom.R(20, 0, 0, 50))
	if vertical.X1 != 20 || vertical.X2 != 20 || vertical.Y2 != 50 {
		t.Errorf("vertical line = %+v", vertical)
	}
}

func TestPathBoundsIgnoreHandles(t *testing.T) {
	p := NewPath([]PathPoint{
		{X: 0, Y: 0, HandleOut: &geom.Point{X: -100, Y: -100}},
		{X: 10, Y: 20, HandleIn: &geom.Point{X: 500, Y: 500}},
	}, false)
	if got, want := p.Bounds(), geom.R(0, 0, 10, 20); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	p.AddPoint(PathPoint{X: -5, Y: 30})
	if got, want := p.Bounds(), geom.R(-5, 0, 15, 30); got != want {
		t.Errorf("after AddPoint Bounds() = %v, want %v", got, want)
	}
	p.MovePoint(0, 5, 5)
	pts := p.Points()
	if *pts[0].HandleOut != (geom.Point{X: -95, Y: -95}) {
		t.Errorf("handle did not follow anchor: %v", *pts[0].HandleOut)
	}
	if got, want := p.Bounds(), geom.R(-5, 5, 15, 25); got != want {
		t.Errorf("after MovePoint Bounds() = %v, want %v", got, want)
	}
	pts[1].X = 999
	if p.Points()[1].X == 999 {
		t.Errorf("Points() exposed internal storage")
	}
}

func TestRotationNormalized(t *testing.T) {
	tests := []struct{ in, want float64 }{{-90, 270}, {720, 0}, {45, 45}, {360, 0}}
	for _, tt := range tests {
		r := NewRectangle(0, 0, 1, 1)
		if err := SetProperty(r, "rotation", tt.in); err != nil {
			t.Fatalf("SetProperty() error = %v", err)
		}
		if got := r.Rotation(); got != tt.want {
			t.Errorf("rotation %v stored as %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSizeClamped(t *testing.T) {
	r := NewRectangle(0, 0, 10, 10)
	r.SetBounds(geom.R(0, 0, -4, 3))
	if r.Bounds().Width != 0 {
		t.Errorf("Width = %v, want 0", r.Bounds().Width)
	}
	if err := SetProperty(r, "height", -1.0); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	if r.Bounds().Height != 0 {
		t.Errorf("Height = %v, want 0", r.Bounds().Height)
	}
}

func TestGroupBoundsFollowChildren(t *testing.T) {
	g := NewGroup()
	a := NewRectangle(0, 0, 10, 10)
	b := NewRectangle(20, 30, 10, 10)
	_ = g.AddChild(a)
	_ = g.AddChild(b)
	if got, want := g.Bounds(), geom.R(0, 0, 30, 40); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
	b.SetBounds(geom.R(20, 30, 50, 10))
	if got, want := g.Bounds(), geom.R(0, 0, 70, 40); got != want {
		t.Errorf("after child resize Bounds() = %v, want %v", got, want)
	}
	_ = g.RemoveChild(b)
	if got, want := g.Bounds(), geom.R(0, 0, 10, 10); got != want {
		t.Errorf("after remove Bounds() = %v, want %v", got, want)
	}

	g.SetBounds(geom.R(100, 100, 20, 20))
	if got, want := a.Bounds(), geom.R(100, 100, 20, 20); got != want {
		t.Errorf("group resize mapped child to %v, want %v", got, want)
	}
}

func TestNestedGroupPropagates(t *testing.T) {
	outer, inner := NewGroup(), NewGroup()
	r := NewRectangle(0, 0, 10, 10)
	_ = inner.AddChild(r)
	_ = outer.AddChild(inner)
	_ = outer.AddChild(NewRectangle(-10, -10, 5, 5))
	Move(r, 100, 0)
	if got, want := outer.Bounds(), geom.R(-10, -10, 120, 20); got != want {
		t.Errorf("outer Bounds() = %v, want %v", got, want)
	}
}

func TestFrameAutoLayoutOnAdd(t *testing.T) {
	f := NewFrame(100, 100, 500, 80)
	f.AutoLayout = &layout.AutoLayout{
		Enabled:           true,
		Direction:         layout.DirectionRow,
		Spacing:           10,
		PrimaryAxisSizing: layout.SizingHug,
	}
	for _, w := range []float64{20, 30, 40} {
		if err := f.AddChild(NewRectangle(0, 0, w, 10)); err != nil {
			t.Fatalf("AddChild() error = %v", err)
		}
	}
	if f.Bounds().Width != 110 {
		t.Errorf("hug width = %v, want 110", f.Bounds().Width)
	}
	kids := f.Children()
	if kids[2].Bounds().X != 170 {
		t.Errorf("third child x = %v, want 170", kids[2].Bounds().X)
	}

	// A child's own resize leaves the layout alone.
	kids[0].SetBounds(geom.R(100, 100, 60, 10))
	if f.Bounds().Width != 110 || kids[1].Bounds().X != 130 {
		t.Errorf("child resize re-ran layout: frame=%v second=%v", f.Bounds(), kids[1].Bounds())
	}

	_ = f.RemoveChild(kids[0])
	if f.Bounds().Width != 80 || kids[1].Bounds().X != 100 {
		t.Errorf("remove did not re-run layout: frame=%v second=%v", f.Bounds(), kids[1].Bounds())
	}
}

func TestFrameResizeAppliesConstraints(t *testing.T) {
	f := NewFrame(0, 0, 100, 100)
	pinned := NewRectangle(10, 20, 30, 40)
	pinned.Constraints = &layout.Constraints{Horizontal: layout.ConstraintEnd, Vertical: layout.ConstraintStretch}
	free := NewRectangle(5, 5, 10, 10)
	_ = f.AddChild(pinned)
	_ = f.AddChild(free)

	f.SetBounds(geom.R(50, 0, 200, 150))
	if got, want := pinned.Bounds(), geom.R(50+110, 20, 30, 90); got != want {
		t.Errorf("constrained child = %v, want %v", got, want)
	}
	if got, want := free.Bounds(), geom.R(55, 5, 10, 10); got != want {
		t.Errorf("unconstrained child = %v, want %v", got, want)
	}
}

func TestContainsPoint(t *testing.T) {
	ellipse := NewEllipse(0, 0, 100, 50)
	rotated := NewRectangle(0, 0, 100, 10)
	rotated.SetRotation(90)
	thin := NewLine(0, 0, 100, 0)
	thin.StrokeWidth = 1
	thick := NewLine(0, 0, 100, 0)
	thick.StrokeWidth = 30

	tests := []struct {
		name string
		o    Object
		p    geom.Point
		want bool
	}{
		{"ellipse center", ellipse, geom.Pt(50, 25), true},
		{"ellipse box corner", ellipse, geom.Pt(2, 2), false},
		{"rotated rect new extent", rotated, geom.Pt(50, 40), true},
		{"rotated rect old extent", rotated, geom.Pt(90, 5), false},
		{"thin line within minimum tolerance", thin, geom.Pt(50, 4.9), true},
		{"thin line outside tolerance", thin, geom.Pt(50, 6), false},
		{"thick line uses stroke", thick, geom.Pt(50, 14), true},
		{"unknown never hit", &Unknown{}, geom.Pt(0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsPoint(tt.o, tt.p); got != tt.want {
				t.Errorf("ContainsPoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersects(t *testing.T) {
	vertical := NewLine(50, 0, 50, 100)
	if !Intersects(vertical, geom.R(40, 40, 20, 20)) {
		t.Errorf("marquee across a vertical line should select it")
	}
	if Intersects(vertical, geom.R(60, 40, 20, 20)) {
		t.Errorf("marquee beside the line should not select it")
	}
	if !Intersects(NewRectangle(0, 0, 10, 10), geom.R(5, 5, 10, 10)) {
		t.Errorf("overlapping rect not intersected")
	}
}

func TestSetProperty(t *testing.T) {
	r := NewRectangle(0, 0, 10, 10)
	tests := []struct {
		name    string
		o       Object
		prop    string
		value   any
		wantErr error
	}{
		{"corner radius", r, "cornerRadius", 4.0, nil},
		{"corner radius on ellipse", NewEllipse(0, 0, 1, 1), "cornerRadius", 4.0, ErrUnknownProperty},
		{"unknown", r, "wobble", 1.0, ErrUnknownProperty},
		{"wrong type", r, "x", "ten", ErrInvalidValue},
		{"gradient map", r, "gradient", map[string]any{"type": "linear", "angle": 90.0}, nil},
		{"line endpoint", NewLine(0, 0, 1, 1), "x2", 50.0, nil},
		{"text", NewText(0, 0, ""), "text", "hi", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetProperty(tt.o, tt.prop, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Errorf("SetProperty() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("SetProperty() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if r.CornerRadius != 4 || r.Gradient == nil || r.Gradient.Angle != 90 {
		t.Errorf("properties not applied: radius=%v gradient=%+v", r.CornerRadius, r.Gradient)
	}
}

func TestInsertTopLevelObjectOnce(t *testing.T) {
	doc := New()
	a, b := NewRectangle(0, 0, 1, 1), NewRectangle(2, 0, 1, 1)
	for _, o := range []Object{a, b} {
		if err := doc.Add(o); err != nil {
			t.Fatal(err)
		}
	}
	if err := doc.Insert(5, a); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if len(doc.Objects) != 2 || doc.IndexOf(a) != 1 || doc.IndexOf(b) != 0 {
		t.Errorf("objects = %v, want [b a]", doc.Objects)
	}
}

func TestRebaseline(t *testing.T) {
	frame := NewFrame(0, 0, 100, 100)
	r := NewRectangle(10, 10, 10, 10)
	r.Constraints = &layout.Constraints{Horizontal: layout.ConstraintEnd, Vertical: layout.ConstraintStart}
	if err := frame.AddChild(r); err != nil {
		t.Fatal(err)
	}
	r.SetBounds(geom.R(70, 10, 10, 10))
	Rebaseline(r)
	frame.SetBounds(geom.R(0, 0, 200, 100))
	if got, want := r.Bounds(), geom.R(170, 10, 10, 10); got != want {
		t.Errorf("bounds after resize = %v, want %v", got, want)
	}

	loose := NewRectangle(0, 0, 1, 1)
	Rebaseline(loose)
	if loose.Constraints != nil {
		t.Errorf("Rebaseline() invented constraints")
	}
}

func TestDocumentAddFindRemove(t *testing.T) {
	doc := New()
	g := NewGroup()
	r := NewRectangle(0, 0, 1, 1)
	_ = g.AddChild(r)
	if err := doc.Add(g); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if doc.Find(r.ID) != Object(r) {
		t.Errorf("Find() did not return the nested child")
	}
	dup := NewEllipse(0, 0, 1, 1)
	dup.ID = r.ID
	if err := doc.Add(dup); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add() error = %v, want ErrDuplicateID", err)
	}
	if err := doc.Add(r); err != nil {
		t.Errorf("moving a child to the top level: %v", err)
	}
	if g.Len() != 0 || doc.IndexOf(r) != 1 {
		t.Errorf("Add() did not detach from the old parent")
	}
	if err := doc.Remove(r); err != nil || doc.Find(r.ID) != nil {
		t.Errorf("Remove() = %v", err)
	}
	if err := doc.Remove(r); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}
