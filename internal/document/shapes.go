package document

import (
	"encoding/json"

	"github.com/inamate/design/internal/geom"
)

type Rectangle struct {
	Base
	CornerRadius float64
}

func NewRectangle(x, y, w, h float64) *Rectangle {
	r := &Rectangle{Base: newBase("Rectangle")}
	r.Fill = "#D9D9D9"
	r.bounds = clampRect(geom.R(x, y, w, h))
	return r
}

func (*Rectangle) Type() ObjectType { return TypeRectangle }

type Ellipse struct {
	Base
}

func NewEllipse(x, y, w, h float64) *Ellipse {
	e := &Ellipse{Base: newBase("Ellipse")}
	e.Fill = "#D9D9D9"
	e.bounds = clampRect(geom.R(x, y, w, h))
	return e
}

func (*Ellipse) Type() ObjectType { return TypeEllipse }

// Line is defined by its endpoints. Its bounds are always the axis-aligned
// box of the two endpoints and writing bounds moves the endpoints.
type Line struct {
	Base
	X1, Y1, X2, Y2 float64
}

func NewLine(x1, y1, x2, y2 float64) *Line {
	l := &Line{Base: newBase("Line"), X1: x1, Y1: y1, X2: x2, Y2: y2}
	l.Stroke = "#000000"
	l.StrokeWidth = 2
	return l
}

func (*Line) Type() ObjectType { return TypeLine }

func (l *Line) Start() geom.Point { return geom.Pt(l.X1, l.Y1) }
func (l *Line) End() geom.Point   { return geom.Pt(l.X2, l.Y2) }

func (l *Line) Length() float64 { return l.Start().Distance(l.End()) }

func (l *Line) Bounds() geom.Rect {
	return geom.BoundsOfPoints(l.Start(), l.End())
}

// SetBounds rescales the endpoints from the current box into r. An axis
// with zero extent is spread across r's extent, low endpoint first.
func (l *Line) SetBounds(r geom.Rect) {
	r = clampRect(r)
	old := l.Bounds()
	l.X1, l.X2 = remapAxis(l.X1, l.X2, old.X, old.Width, r.X, r.Width)
	l.Y1, l.Y2 = remapAxis(l.Y1, l.Y2, old.Y, old.Height, r.Y, r.Height)
	l.notifyParent()
}

// SetEndpoints replaces both endpoints.
func (l *Line) SetEndpoints(x1, y1, x2, y2 float64) {
	l.X1, l.Y1, l.X2, l.Y2 = x1, y1, x2, y2
	l.notifyParent()
}

func remapAxis(a, b, from, fromSize, to, toSize float64) (float64, float64) {
	if fromSize == 0 {
		if toSize == 0 {
			return to, to
		}
		return to, to + toSize
	}
	k := toSize / fromSize
	return to + (a-from)*k, to + (b-from)*k
}

type Text struct {
	Base
	Text       string
	FontFamily string
	FontSize   float64
	FontWeight string
	FontStyle  string
	TextAlign  string
	LineHeight float64
}

func NewText(x, y float64, text string) *Text {
	t := &Text{
		Base:       newBase("Text"),
		Text:       text,
		FontFamily: "Go",
		FontSize:   16,
		FontWeight: "normal",
		FontStyle:  "normal",
		TextAlign:  "left",
		LineHeight: 1.2,
	}
	t.Fill = "#000000"
	t.bounds = geom.R(x, y, 200, 24)
	return t
}

func (*Text) Type() ObjectType { return TypeText }

// ImageFit controls how a bitmap fills its box.
type ImageFit string

const (
	FitCover   ImageFit = "cover"
	FitContain ImageFit = "contain"
	FitFill    ImageFit = "fill"
	FitNone    ImageFit = "none"
)

type Image struct {
	Base
	Src           string
	ImageData     string
	Fit           ImageFit
	NaturalWidth  float64
	NaturalHeight float64
}

func NewImage(x, y, w, h float64, src string) *Image {
	img := &Image{Base: newBase("Image"), Src: src, Fit: FitCover}
	img.bounds = clampRect(geom.R(x, y, w, h))
	return img
}

func (*Image) Type() ObjectType { return TypeImage }

// Loaded reports whether the natural size is known.
func (img *Image) Loaded() bool { return img.NaturalWidth > 0 && img.NaturalHeight > 0 }

// PathPoint is an anchor with optional bezier handles. A segment uses a
// cubic curve when both the previous HandleOut and this HandleIn are set
// and a quadratic curve when only one is.
type PathPoint struct {
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	HandleIn  *geom.Point `json:"handleIn,omitempty"`
	HandleOut *geom.Point `json:"handleOut,omitempty"`
}

func (p PathPoint) Anchor() geom.Point { return geom.Pt(p.X, p.Y) }

func (p PathPoint) clone() PathPoint {
	if p.HandleIn != nil {
		h := *p.HandleIn
		p.HandleIn = &h
	}
	if p.HandleOut != nil {
		h := *p.HandleOut
		p.HandleOut = &h
	}
	return p
}

func clonePoints(pts []PathPoint) []PathPoint {
	if pts == nil {
		return nil
	}
	out := make([]PathPoint, len(pts))
	for i, p := range pts {
		out[i] = p.clone()
	}
	return out
}

// Path is an anchor sequence. Its bounds cover the anchors only, handles
// excluded, and are recomputed after every point mutation.
type Path struct {
	Base
	Closed bool
	points []PathPoint
}

func NewPath(points []PathPoint, closed bool) *Path {
	p := &Path{Base: newBase("Path"), Closed: closed}
	p.Stroke = "#000000"
	p.StrokeWidth = 2
	p.points = clonePoints(points)
	p.updateBounds()
	return p
}

func (*Path) Type() ObjectType { return TypePath }

// Points returns a copy of the anchors.
func (p *Path) Points() []PathPoint { return clonePoints(p.points) }

func (p *Path) Len() int { return len(p.points) }

func (p *Path) SetPoints(pts []PathPoint) {
	p.points = clonePoints(pts)
	p.updateBounds()
	p.notifyParent()
}

func (p *Path) AddPoint(pt PathPoint) {
	p.points = append(p.points, pt.clone())
	p.updateBounds()
	p.notifyParent()
}

// MovePoint moves anchor i to (x, y), carrying its handles along.
func (p *Path) MovePoint(i int, x, y float64) bool {
	if i < 0 || i >= len(p.points) {
		return false
	}
	pt := &p.points[i]
	d := geom.Pt(x-pt.X, y-pt.Y)
	pt.X, pt.Y = x, y
	if pt.HandleIn != nil {
		*pt.HandleIn = pt.HandleIn.Add(d)
	}
	if pt.HandleOut != nil {
		*pt.HandleOut = pt.HandleOut.Add(d)
	}
	p.updateBounds()
	p.notifyParent()
	return true
}

// SetBounds maps every anchor and handle from the current box into r.
func (p *Path) SetBounds(r geom.Rect) {
	r = clampRect(r)
	old := p.bounds
	m := remap(old, r)
	for i := range p.points {
		pt := &p.points[i]
		a := m(pt.Anchor())
		pt.X, pt.Y = a.X, a.Y
		if pt.HandleIn != nil {
			*pt.HandleIn = m(*pt.HandleIn)
		}
		if pt.HandleOut != nil {
			*pt.HandleOut = m(*pt.HandleOut)
		}
	}
	p.updateBounds()
	p.notifyParent()
}

func (p *Path) updateBounds() {
	if len(p.points) == 0 {
		p.bounds = geom.Rect{X: p.bounds.X, Y: p.bounds.Y}
		return
	}
	pts := make([]geom.Point, len(p.points))
	for i, pt := range p.points {
		pts[i] = pt.Anchor()
	}
	p.bounds = geom.BoundsOfPoints(pts...)
}

// remap returns the affine map taking rect from onto rect to. Zero extents
// translate without scaling.
func remap(from, to geom.Rect) func(geom.Point) geom.Point {
	sx, sy := 1.0, 1.0
	if from.Width > 0 {
		sx = to.Width / from.Width
	}
	if from.Height > 0 {
		sy = to.Height / from.Height
	}
	return func(p geom.Point) geom.Point {
		return geom.Pt(to.X+(p.X-from.X)*sx, to.Y+(p.Y-from.Y)*sy)
	}
}

// Unknown stands in for a record that could not be decoded. The raw JSON is
// kept and written back unchanged on save.
type Unknown struct {
	Base
	Raw json.RawMessage
}

func (*Unknown) Type() ObjectType { return TypeUnknown }
