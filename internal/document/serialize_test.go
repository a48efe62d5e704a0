package document

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/layout"
)

func styled(o Object) Object {
	b := o.Common()
	b.Name = "styled " + string(o.Type())
	b.Fill = "#112233"
	b.FillOpacity = 0.5
	b.Stroke = "#445566"
	b.StrokeWidth = 3
	b.StrokeOpacity = 0.25
	b.Locked = true
	b.Opacity = 0.75
	b.BlendMode = BlendMultiply
	b.Blur = 2
	b.SetRotation(30)
	b.Gradient = &Gradient{
		Type:  GradientLinear,
		Angle: 45,
		Stops: []GradientStop{{Offset: 0, Color: "#ff0000", Opacity: 1}, {Offset: 1, Color: "#0000ff", Opacity: 0.5}},
	}
	b.Shadows = []Shadow{{X: 1, Y: 2, Blur: 3, Spread: 4, Color: "#000000", Opacity: 0.3}}
	return o
}

func everyVariant() []Object {
	rect := NewRectangle(1, 2, 30, 40)
	rect.CornerRadius = 6

	text := NewText(5, 5, "hello world")
	text.FontWeight = "bold"
	text.TextAlign = "center"

	frame := NewFrame(0, 0, 300, 200)
	al := layout.DefaultAutoLayout()
	al.PrimaryAxisSizing = layout.SizingHug
	frame.AutoLayout = &al
	child := NewRectangle(0, 0, 50, 50)
	child.Constraints = &layout.Constraints{Horizontal: layout.ConstraintScale, Vertical: layout.ConstraintEnd}
	_ = frame.AddChild(child)
	_ = frame.AddChild(NewEllipse(0, 0, 20, 80))

	path := NewPath([]PathPoint{
		{X: 0, Y: 0, HandleOut: &geom.Point{X: 10, Y: -20}},
		{X: 50, Y: 10, HandleIn: &geom.Point{X: 40, Y: 30}},
		{X: 20, Y: 60},
	}, true)

	group := NewGroup()
	_ = group.AddChild(NewRectangle(10, 10, 10, 10))
	_ = group.AddChild(NewLine(0, 0, 5, 50))

	img := NewImage(0, 0, 64, 48, "asset://a.png")
	img.NaturalWidth, img.NaturalHeight = 640, 480
	img.Fit = FitContain
	img.ImageData = "data:image/png;base64,AAAA"

	comp := NewComponent(100, 100, 80, 40)
	_ = comp.AddChild(NewRectangle(100, 100, 80, 40))
	inst := NewInstance(comp, 300, 300)
	inst.Override(PropFill)
	inst.Fill = "#abcdef"

	return []Object{
		rect, NewEllipse(3, 4, 50, 20), NewLine(10, 80, 60, 20), text, frame,
		path, group, img, comp, inst,
	}
}

func TestRoundTripEveryVariant(t *testing.T) {
	for _, o := range everyVariant() {
		o := styled(o)
		t.Run(string(o.Type()), func(t *testing.T) {
			first, err := json.Marshal(Serialize(o))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var data ObjectData
			if err := json.Unmarshal(first, &data); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			back := Deserialize(data)
			if back.Type() != o.Type() {
				t.Fatalf("type = %v, want %v", back.Type(), o.Type())
			}
			second, err := json.Marshal(Serialize(back))
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !bytes.Equal(first, second) {
				t.Errorf("round trip changed data\n got %s\nwant %s", second, first)
			}
			if back.Bounds() != o.Bounds() {
				t.Errorf("Bounds() = %v, want %v", back.Bounds(), o.Bounds())
			}
			if back.Common().Rotation() != 30 {
				t.Errorf("Rotation() = %v, want 30", back.Common().Rotation())
			}
			if g := back.Common().Gradient; g == nil || len(g.Stops) != 2 || g.Stops[1].Opacity != 0.5 {
				t.Errorf("gradient = %+v", g)
			}
			if s := back.Common().Shadows; len(s) != 1 || s[0].Spread != 4 {
				t.Errorf("shadows = %+v", s)
			}
		})
	}
}

func TestRoundTripKeepsChildrenAndVariantFields(t *testing.T) {
	objs := everyVariant()
	frame := objs[4].(*Frame)
	back := Deserialize(Serialize(frame)).(*Frame)
	if back.Len() != 2 {
		t.Fatalf("children = %d, want 2", back.Len())
	}
	c := back.Children()[0]
	if c.Common().Parent() != Container(back) {
		t.Errorf("child parent not restored")
	}
	if !c.Common().Constraints.Initialized() {
		t.Errorf("constraint baseline lost")
	}
	if back.AutoLayout == nil || back.AutoLayout.PrimaryAxisSizing != layout.SizingHug {
		t.Errorf("auto layout = %+v", back.AutoLayout)
	}

	path := Deserialize(Serialize(objs[5])).(*Path)
	pts := path.Points()
	if len(pts) != 3 || pts[0].HandleOut == nil || pts[1].HandleIn == nil || pts[2].HandleIn != nil || !path.Closed {
		t.Errorf("path points = %+v closed=%v", pts, path.Closed)
	}

	inst := Deserialize(Serialize(objs[9])).(*Instance)
	if inst.Master() != nil {
		t.Errorf("decoded instance should wait for Relink")
	}
	if inst.ComponentID != objs[8].(*Component).ComponentID || !inst.IsOverridden(PropFill) {
		t.Errorf("instance link data = %q %v", inst.ComponentID, inst.Overrides())
	}
}

func TestDecodeFailsClosed(t *testing.T) {
	src := `{"version":1,"objects":[
		{"id":"a","type":"rectangle","x":1,"y":2,"width":3,"height":4},
		{"id":"b","type":"hexagon","x":1},
		{"type":"ellipse"},
		{"id":"d","type":"rectangle","x":"not a number"},
		42
	]}`
	doc, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(doc.Objects) != 5 {
		t.Fatalf("objects = %d, want 5", len(doc.Objects))
	}
	if _, ok := doc.Objects[0].(*Rectangle); !ok {
		t.Errorf("objects[0] = %T, want *Rectangle", doc.Objects[0])
	}
	for i, o := range doc.Objects[1:] {
		if _, ok := o.(*Unknown); !ok {
			t.Errorf("objects[%d] = %T, want *Unknown", i+1, o)
		}
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(out), `"type":"hexagon"`) {
		t.Errorf("unknown record not preserved: %s", out)
	}
}

func TestDecodeEnvelopeError(t *testing.T) {
	if _, err := Decode([]byte(`{"objects": [`)); err == nil {
		t.Errorf("Decode() of truncated JSON should fail")
	}
}

func TestDecodeDefaults(t *testing.T) {
	o := DecodeObject([]byte(`{"id":"r","type":"rectangle","rotation":-90,"width":-5}`))
	b := o.Common()
	if !b.Visible || b.Opacity != 1 || b.FillOpacity != 1 || b.BlendMode != BlendNormal {
		t.Errorf("defaults not applied: %+v", b)
	}
	if b.Rotation() != 270 {
		t.Errorf("Rotation() = %v, want 270", b.Rotation())
	}
	if o.Bounds().Width != 0 {
		t.Errorf("Width = %v, want clamped to 0", o.Bounds().Width)
	}
}

func TestDecodeReidentifiesDuplicates(t *testing.T) {
	src := `{"version":1,"objects":[
		{"id":"same","type":"rectangle"},
		{"id":"g","type":"group","children":[{"id":"same","type":"ellipse"}]}
	]}`
	doc, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	seen := map[string]bool{}
	doc.Walk(func(o Object) bool {
		id := o.Common().ID
		if seen[id] {
			t.Errorf("duplicate id %s after decode", id)
		}
		seen[id] = true
		return true
	})
	if doc.Objects[0].Common().ID != "same" {
		t.Errorf("first occurrence should keep its id")
	}
}

func TestEncodeEmptyDocument(t *testing.T) {
	out, err := New().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(out) != `{"version":1,"objects":[]}` {
		t.Errorf("Encode() = %s", out)
	}
}

func TestSampleDocumentRoundTrip(t *testing.T) {
	doc := NewSampleDocument()
	first, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if orphans := Relink(back.Objects, NewRegistry()); len(orphans) != 0 {
		t.Errorf("Relink() left %d orphans", len(orphans))
	}
	second, err := back.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("sample document changed across a save/load cycle")
	}
}
