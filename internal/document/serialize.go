package document

import (
	"encoding/json"
	"slices"

	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/layout"
	"github.com/inamate/design/internal/typeid"
)

// ObjectData is the JSON form of one object. Variant fields are omitted
// when empty.
type ObjectData struct {
	ID            string              `json:"id"`
	Type          ObjectType          `json:"type"`
	Name          string              `json:"name"`
	X             float64             `json:"x"`
	Y             float64             `json:"y"`
	Width         float64             `json:"width"`
	Height        float64             `json:"height"`
	Rotation      float64             `json:"rotation"`
	Fill          string              `json:"fill"`
	FillOpacity   float64             `json:"fillOpacity"`
	Stroke        string              `json:"stroke"`
	StrokeWidth   float64             `json:"strokeWidth"`
	StrokeOpacity float64             `json:"strokeOpacity"`
	Visible       bool                `json:"visible"`
	Locked        bool                `json:"locked"`
	Opacity       float64             `json:"opacity"`
	BlendMode     BlendMode           `json:"blendMode"`
	Gradient      *Gradient           `json:"gradient,omitempty"`
	Shadows       []Shadow            `json:"shadows,omitempty"`
	Blur          float64             `json:"blur,omitempty"`
	Constraints   *layout.Constraints `json:"constraints,omitempty"`

	CornerRadius float64 `json:"cornerRadius,omitempty"`

	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	LineHeight float64 `json:"lineHeight,omitempty"`

	Points []PathPoint `json:"points,omitempty"`
	Closed bool        `json:"closed,omitempty"`

	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	Children    []ObjectData       `json:"children,omitempty"`
	AutoLayout  *layout.AutoLayout `json:"autoLayout,omitempty"`
	ClipContent bool               `json:"clipContent,omitempty"`

	ComponentID string   `json:"componentId,omitempty"`
	Overrides   []string `json:"overrides,omitempty"`

	Src           string   `json:"src,omitempty"`
	ImageData     string   `json:"imageData,omitempty"`
	Fit           ImageFit `json:"fit,omitempty"`
	NaturalWidth  float64  `json:"naturalWidth,omitempty"`
	NaturalHeight float64  `json:"naturalHeight,omitempty"`

	// Raw is the original record of an Unknown placeholder.
	Raw json.RawMessage `json:"-"`
}

type objectDataFields ObjectData

// MarshalJSON writes an Unknown placeholder's original record back verbatim.
func (d ObjectData) MarshalJSON() ([]byte, error) {
	if d.Type == TypeUnknown && len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(objectDataFields(d))
}

// UnmarshalJSON never fails. A record that cannot be decoded, or that lacks
// an id or a known type, becomes an Unknown placeholder.
func (d *ObjectData) UnmarshalJSON(b []byte) error {
	*d = decodeObjectData(b)
	return nil
}

func defaultObjectData() ObjectData {
	return ObjectData{
		FillOpacity:   1,
		StrokeOpacity: 1,
		Visible:       true,
		Opacity:       1,
		BlendMode:     BlendNormal,
	}
}

func decodeObjectData(b []byte) ObjectData {
	fields := objectDataFields(defaultObjectData())
	if err := json.Unmarshal(b, &fields); err != nil || fields.ID == "" || !fields.Type.known() {
		return ObjectData{ID: typeid.NewObjectID(), Type: TypeUnknown, Raw: slices.Clone(b)}
	}
	return ObjectData(fields)
}

// DecodeObject decodes one JSON record. It never fails; see UnmarshalJSON.
func DecodeObject(b []byte) Object {
	return Deserialize(decodeObjectData(b))
}

func baseData(o Object) ObjectData {
	b := o.Common()
	r := o.Bounds()
	return ObjectData{
		ID:            b.ID,
		Type:          o.Type(),
		Name:          b.Name,
		X:             r.X,
		Y:             r.Y,
		Width:         r.Width,
		Height:        r.Height,
		Rotation:      b.rotation,
		Fill:          b.Fill,
		FillOpacity:   b.FillOpacity,
		Stroke:        b.Stroke,
		StrokeWidth:   b.StrokeWidth,
		StrokeOpacity: b.StrokeOpacity,
		Visible:       b.Visible,
		Locked:        b.Locked,
		Opacity:       b.Opacity,
		BlendMode:     b.BlendMode,
		Gradient:      b.Gradient.Clone(),
		Shadows:       slices.Clone(b.Shadows),
		Blur:          b.Blur,
		Constraints:   cloneConstraints(b.Constraints),
	}
}

func cloneConstraints(c *layout.Constraints) *layout.Constraints {
	if c == nil {
		return nil
	}
	out := *c
	if c.Baseline != nil {
		bl := *c.Baseline
		out.Baseline = &bl
	}
	return &out
}

func cloneAutoLayout(a *layout.AutoLayout) *layout.AutoLayout {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

func serializeChildren(items []Object) []ObjectData {
	if len(items) == 0 {
		return nil
	}
	out := make([]ObjectData, len(items))
	for i, c := range items {
		out[i] = Serialize(c)
	}
	return out
}

// Serialize converts o, including its children, to its data form.
func Serialize(o Object) ObjectData {
	d := baseData(o)
	switch v := o.(type) {
	case *Rectangle:
		d.CornerRadius = v.CornerRadius
	case *Ellipse:
	case *Line:
		d.X1, d.Y1, d.X2, d.Y2 = v.X1, v.Y1, v.X2, v.Y2
	case *Text:
		d.Text = v.Text
		d.FontFamily = v.FontFamily
		d.FontSize = v.FontSize
		d.FontWeight = v.FontWeight
		d.FontStyle = v.FontStyle
		d.TextAlign = v.TextAlign
		d.LineHeight = v.LineHeight
	case *Frame:
		d.Children = serializeChildren(v.items)
		d.AutoLayout = cloneAutoLayout(v.AutoLayout)
		d.ClipContent = v.ClipContent
	case *Path:
		d.Points = clonePoints(v.points)
		d.Closed = v.Closed
	case *Group:
		d.Children = serializeChildren(v.items)
	case *Image:
		d.Src = v.Src
		d.ImageData = v.ImageData
		d.Fit = v.Fit
		d.NaturalWidth = v.NaturalWidth
		d.NaturalHeight = v.NaturalHeight
	case *Component:
		d.Children = serializeChildren(v.items)
		d.ComponentID = v.ComponentID
	case *Instance:
		d.ComponentID = v.ComponentID
		if ov := v.Overrides(); len(ov) > 0 {
			d.Overrides = ov
		}
	case *Unknown:
		return ObjectData{ID: v.ID, Type: TypeUnknown, Raw: slices.Clone(v.Raw)}
	}
	return d
}

func baseFrom(d ObjectData) Base {
	return Base{
		ID:            d.ID,
		Name:          d.Name,
		Fill:          d.Fill,
		FillOpacity:   d.FillOpacity,
		Stroke:        d.Stroke,
		StrokeWidth:   d.StrokeWidth,
		StrokeOpacity: d.StrokeOpacity,
		Visible:       d.Visible,
		Locked:        d.Locked,
		Opacity:       d.Opacity,
		BlendMode:     d.BlendMode,
		Gradient:      d.Gradient.Clone(),
		Shadows:       slices.Clone(d.Shadows),
		Blur:          d.Blur,
		Constraints:   cloneConstraints(d.Constraints),
		bounds:        clampRect(geom.R(d.X, d.Y, d.Width, d.Height)),
		rotation:      geom.NormalizeDegrees(d.Rotation),
	}
}

func attachChildren(c Container, children []ObjectData) {
	for _, cd := range children {
		attach(c, Deserialize(cd))
	}
}

// Deserialize rebuilds an object tree exactly as saved: no layout or bounds
// recomputation runs, except for the derived bounds of lines and paths.
// Instances come back unlinked; see Relink.
func Deserialize(d ObjectData) Object {
	switch d.Type {
	case TypeRectangle:
		return &Rectangle{Base: baseFrom(d), CornerRadius: max(0, d.CornerRadius)}
	case TypeEllipse:
		return &Ellipse{Base: baseFrom(d)}
	case TypeLine:
		return &Line{Base: baseFrom(d), X1: d.X1, Y1: d.Y1, X2: d.X2, Y2: d.Y2}
	case TypeText:
		return &Text{
			Base:       baseFrom(d),
			Text:       d.Text,
			FontFamily: d.FontFamily,
			FontSize:   d.FontSize,
			FontWeight: d.FontWeight,
			FontStyle:  d.FontStyle,
			TextAlign:  d.TextAlign,
			LineHeight: d.LineHeight,
		}
	case TypeFrame:
		f := &Frame{Base: baseFrom(d), AutoLayout: cloneAutoLayout(d.AutoLayout), ClipContent: d.ClipContent}
		attachChildren(f, d.Children)
		return f
	case TypePath:
		p := &Path{Base: baseFrom(d), Closed: d.Closed, points: clonePoints(d.Points)}
		p.updateBounds()
		return p
	case TypeGroup:
		g := &Group{Base: baseFrom(d)}
		attachChildren(g, d.Children)
		return g
	case TypeImage:
		return &Image{
			Base:          baseFrom(d),
			Src:           d.Src,
			ImageData:     d.ImageData,
			Fit:           d.Fit,
			NaturalWidth:  d.NaturalWidth,
			NaturalHeight: d.NaturalHeight,
		}
	case TypeComponent:
		c := &Component{Base: baseFrom(d), ComponentID: d.ComponentID}
		if c.ComponentID == "" {
			c.ComponentID = typeid.NewComponentID()
		}
		attachChildren(c, d.Children)
		return c
	case TypeInstance:
		inst := &Instance{Base: baseFrom(d), ComponentID: d.ComponentID}
		for _, prop := range d.Overrides {
			inst.Override(prop)
		}
		return inst
	default:
		id := d.ID
		if id == "" {
			id = typeid.NewObjectID()
		}
		return &Unknown{Base: Base{ID: id, BlendMode: BlendNormal}, Raw: slices.Clone(d.Raw)}
	}
}

// Clone deep-copies o with fresh ids throughout. Cloned components get a
// fresh ComponentID and no instances; cloned instances stay linked to the
// original master.
func Clone(o Object) Object {
	d := Serialize(o)
	reassignIDs(&d)
	c := Deserialize(d)
	linkClones(o, c)
	return c
}

func reassignIDs(d *ObjectData) {
	d.ID = typeid.NewObjectID()
	if d.Type == TypeComponent {
		d.ComponentID = typeid.NewComponentID()
	}
	for i := range d.Children {
		reassignIDs(&d.Children[i])
	}
}

func linkClones(orig, clone Object) {
	switch o := orig.(type) {
	case *Instance:
		if o.master != nil {
			clone.(*Instance).Link(o.master)
		}
	case Container:
		oc := o.list().items
		cc := clone.(Container).list().items
		for k := range oc {
			linkClones(oc[k], cc[k])
		}
	}
}
