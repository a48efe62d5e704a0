// Package document holds the design object tree: the object variants, their
// containers, component/instance linkage and the JSON document format.
//
// Objects live in absolute document coordinates. Containers own their
// children in paint order (index 0 is the bottom) and each child keeps a
// plain non-owning pointer back to its container.
package document

import (
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/layout"
	"github.com/inamate/design/internal/typeid"
)

type ObjectType string

const (
	TypeRectangle ObjectType = "rectangle"
	TypeEllipse   ObjectType = "ellipse"
	TypeLine      ObjectType = "line"
	TypeText      ObjectType = "text"
	TypeFrame     ObjectType = "frame"
	TypePath      ObjectType = "path"
	TypeGroup     ObjectType = "group"
	TypeImage     ObjectType = "image"
	TypeComponent ObjectType = "component"
	TypeInstance  ObjectType = "instance"
	TypeUnknown   ObjectType = "unknown"
)

func (t ObjectType) known() bool {
	switch t {
	case TypeRectangle, TypeEllipse, TypeLine, TypeText, TypeFrame,
		TypePath, TypeGroup, TypeImage, TypeComponent, TypeInstance:
		return true
	}
	return false
}

type BlendMode string

const (
	BlendNormal     BlendMode = "normal"
	BlendMultiply   BlendMode = "multiply"
	BlendScreen     BlendMode = "screen"
	BlendOverlay    BlendMode = "overlay"
	BlendDarken     BlendMode = "darken"
	BlendLighten    BlendMode = "lighten"
	BlendColorDodge BlendMode = "color-dodge"
	BlendColorBurn  BlendMode = "color-burn"
	BlendDifference BlendMode = "difference"
)

type GradientType string

const (
	GradientLinear GradientType = "linear"
	GradientRadial GradientType = "radial"
)

type GradientStop struct {
	Offset  float64 `json:"offset"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// Gradient is a fill defined relative to the object's bounds. Linear
// gradients use Angle in degrees; radial gradients use CenterX/CenterY in
// [0,1] of the bounds and Radius as a fraction of the larger side.
type Gradient struct {
	Type    GradientType   `json:"type"`
	Angle   float64        `json:"angle"`
	CenterX float64        `json:"centerX"`
	CenterY float64        `json:"centerY"`
	Radius  float64        `json:"radius"`
	Stops   []GradientStop `json:"stops"`
}

func (g *Gradient) Clone() *Gradient {
	if g == nil {
		return nil
	}
	c := *g
	c.Stops = append([]GradientStop(nil), g.Stops...)
	return &c
}

type Shadow struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Blur    float64 `json:"blur"`
	Spread  float64 `json:"spread"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// Object is one design object. The set of implementations is closed; code
// dispatches with a type switch over the concrete pointer types.
type Object interface {
	Common() *Base
	Type() ObjectType
	Bounds() geom.Rect
	SetBounds(geom.Rect)
	IsVisible() bool
	isObject()
}

// Base carries the attributes every variant shares.
type Base struct {
	ID            string
	Name          string
	Fill          string
	FillOpacity   float64
	Stroke        string
	StrokeWidth   float64
	StrokeOpacity float64
	Visible       bool
	Locked        bool
	Opacity       float64
	BlendMode     BlendMode
	Gradient      *Gradient
	Shadows       []Shadow
	Blur          float64
	Constraints   *layout.Constraints

	bounds   geom.Rect
	rotation float64
	parent   Container
}

func newBase(name string) Base {
	return Base{
		ID:            typeid.NewObjectID(),
		Name:          name,
		FillOpacity:   1,
		StrokeOpacity: 1,
		Visible:       true,
		Opacity:       1,
		BlendMode:     BlendNormal,
	}
}

func (b *Base) Common() *Base { return b }
func (b *Base) isObject()     {}

func (b *Base) Bounds() geom.Rect { return b.bounds }

// SetBounds stores r with negative sizes clamped to zero.
func (b *Base) SetBounds(r geom.Rect) {
	b.bounds = clampRect(r)
	b.notifyParent()
}

func (b *Base) IsVisible() bool { return b.Visible }

// Rotation is in degrees, clockwise about the bounds center, in [0,360).
func (b *Base) Rotation() float64 { return b.rotation }

func (b *Base) SetRotation(deg float64) {
	b.rotation = geom.NormalizeDegrees(deg)
}

// Parent returns the owning container, or nil for top-level objects.
func (b *Base) Parent() Container { return b.parent }

func (b *Base) notifyParent() {
	if b.parent != nil {
		b.parent.childChanged()
	}
}

func clampRect(r geom.Rect) geom.Rect {
	r.Width = max(0, r.Width)
	r.Height = max(0, r.Height)
	return r
}

// Move translates o by (dx, dy) through its own SetBounds.
func Move(o Object, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	o.SetBounds(o.Bounds().Translate(dx, dy))
}

// Ancestors returns o's containers from the nearest outward.
func Ancestors(o Object) []Container {
	var out []Container
	for p := o.Common().parent; p != nil; p = p.Common().parent {
		out = append(out, p)
	}
	return out
}
