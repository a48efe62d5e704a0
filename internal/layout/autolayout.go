// Package layout positions children inside containers: flex-like AutoLayout
// for frames and anchor/scale Constraints applied when a parent resizes.
//
// The package only knows about rectangles. Containers hand it their
// children as Nodes and write the results back themselves.
package layout

import "github.com/inamate/design/internal/geom"

// Node is the view of a child object layout needs.
type Node interface {
	Bounds() geom.Rect
	SetBounds(geom.Rect)
	IsVisible() bool
}

type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

type Align string

const (
	AlignStart        Align = "start"
	AlignCenter       Align = "center"
	AlignEnd          Align = "end"
	AlignSpaceBetween Align = "space-between" // primary axis only
	AlignStretch      Align = "stretch"       // counter axis only
)

type Sizing string

const (
	SizingFixed Sizing = "fixed"
	SizingHug   Sizing = "hug"
)

// Padding is the inset between a frame's edges and its content.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// AutoLayout arranges a frame's visible children along one axis.
type AutoLayout struct {
	Enabled           bool      `json:"enabled"`
	Direction         Direction `json:"direction"`
	PrimaryAxisAlign  Align     `json:"primaryAxisAlign"`
	CounterAxisAlign  Align     `json:"counterAxisAlign"`
	Spacing           float64   `json:"spacing"`
	Padding           Padding   `json:"padding"`
	PrimaryAxisSizing Sizing    `json:"primaryAxisSizing"`
	CounterAxisSizing Sizing    `json:"counterAxisSizing"`
}

// DefaultAutoLayout returns an enabled horizontal layout with fixed sizing.
func DefaultAutoLayout() AutoLayout {
	return AutoLayout{
		Enabled:           true,
		Direction:         DirectionRow,
		PrimaryAxisAlign:  AlignStart,
		CounterAxisAlign:  AlignStart,
		Spacing:           10,
		PrimaryAxisSizing: SizingFixed,
		CounterAxisSizing: SizingFixed,
	}
}

// axis helpers: primary is x for rows, y for columns.
func (a *AutoLayout) horizontal() bool { return a.Direction != DirectionColumn }

func (a *AutoLayout) primary(r geom.Rect) float64 {
	if a.horizontal() {
		return r.Width
	}
	return r.Height
}

func (a *AutoLayout) counter(r geom.Rect) float64 {
	if a.horizontal() {
		return r.Height
	}
	return r.Width
}

func (a *AutoLayout) paddingPrimary() (start, end float64) {
	if a.horizontal() {
		return a.Padding.Left, a.Padding.Right
	}
	return a.Padding.Top, a.Padding.Bottom
}

func (a *AutoLayout) paddingCounter() (start, end float64) {
	if a.horizontal() {
		return a.Padding.Top, a.Padding.Bottom
	}
	return a.Padding.Left, a.Padding.Right
}

// place builds a rect from primary/counter coordinates.
func (a *AutoLayout) place(primaryPos, counterPos, primarySize, counterSize float64) geom.Rect {
	if a.horizontal() {
		return geom.Rect{X: primaryPos, Y: counterPos, Width: primarySize, Height: counterSize}
	}
	return geom.Rect{X: counterPos, Y: primaryPos, Width: counterSize, Height: primarySize}
}

// Apply lays out children inside frame and returns the frame's new bounds.
// Only visible children take part; their order is kept. Hug sizing on an
// axis replaces the frame extent with content size plus padding, fixed
// sizing leaves the authored extent alone.
func (a AutoLayout) Apply(frame geom.Rect, children []Node) geom.Rect {
	visible := make([]Node, 0, len(children))
	for _, c := range children {
		if c.IsVisible() {
			visible = append(visible, c)
		}
	}
	n := len(visible)

	var sumPrimary, maxCounter float64
	for _, c := range visible {
		b := c.Bounds()
		sumPrimary += a.primary(b)
		maxCounter = max(maxCounter, a.counter(b))
	}
	totalPrimary := sumPrimary
	if n > 1 {
		totalPrimary += a.Spacing * float64(n-1)
	}

	padPStart, padPEnd := a.paddingPrimary()
	padCStart, padCEnd := a.paddingCounter()

	if a.PrimaryAxisSizing == SizingHug {
		frame = a.resizePrimary(frame, totalPrimary+padPStart+padPEnd)
	}
	if a.CounterAxisSizing == SizingHug {
		frame = a.resizeCounter(frame, maxCounter+padCStart+padCEnd)
	}

	innerPrimary := a.primary(frame) - padPStart - padPEnd
	innerCounter := a.counter(frame) - padCStart - padCEnd
	offset, gap := a.computeSpacing(innerPrimary, totalPrimary, sumPrimary, n)

	var originP, originC float64
	if a.horizontal() {
		originP, originC = frame.X+padPStart, frame.Y+padCStart
	} else {
		originP, originC = frame.Y+padPStart, frame.X+padCStart
	}

	cursor := originP + offset
	for _, c := range visible {
		b := c.Bounds()
		size := a.primary(b)
		counterSize := a.counter(b)
		var counterPos float64
		switch a.CounterAxisAlign {
		case AlignCenter:
			counterPos = originC + (innerCounter-counterSize)/2
		case AlignEnd:
			counterPos = originC + innerCounter - counterSize
		case AlignStretch:
			counterSize = maxCounter
			counterPos = originC
		default:
			counterPos = originC
		}
		c.SetBounds(a.place(cursor, counterPos, size, counterSize))
		cursor += size + gap
	}

	return frame
}

// computeSpacing returns the leading offset and the gap between items.
// space-between with fewer than two children behaves as start.
func (a *AutoLayout) computeSpacing(inner, total, sumSizes float64, n int) (offset, gap float64) {
	gap = a.Spacing
	free := inner - total
	switch a.PrimaryAxisAlign {
	case AlignCenter:
		offset = free / 2
	case AlignEnd:
		offset = free
	case AlignSpaceBetween:
		if n >= 2 {
			gap = (inner - sumSizes) / float64(n-1)
		}
	}
	return offset, gap
}

func (a *AutoLayout) resizePrimary(r geom.Rect, size float64) geom.Rect {
	if a.horizontal() {
		r.Width = size
	} else {
		r.Height = size
	}
	return r
}

func (a *AutoLayout) resizeCounter(r geom.Rect, size float64) geom.Rect {
	if a.horizontal() {
		r.Height = size
	} else {
		r.Width = size
	}
	return r
}
