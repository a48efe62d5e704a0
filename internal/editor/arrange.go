package editor

import (
	"fmt"
	"slices"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/render"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignMiddle Alignment = "middle"
	AlignBottom Alignment = "bottom"
)

type Axis string

const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

// Align lines the selected objects up against the selection bounds.
func (e *Editor) Align(a Alignment) error {
	objs := e.topmost()
	if len(objs) < 2 {
		return fmt.Errorf("align needs at least two objects: %w", ErrInvalidSelection)
	}
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignTop, AlignMiddle, AlignBottom:
	default:
		return fmt.Errorf("unknown alignment %q: %w", a, ErrInvalidSelection)
	}
	box := render.SelectionBounds(objs)
	return e.mutate(func() error {
		for _, o := range objs {
			vb := document.VisualBounds(o)
			var dx, dy float64
			switch a {
			case AlignLeft:
				dx = box.X - vb.X
			case AlignCenter:
				dx = box.Center().X - vb.Center().X
			case AlignRight:
				dx = box.Right() - vb.Right()
			case AlignTop:
				dy = box.Y - vb.Y
			case AlignMiddle:
				dy = box.Center().Y - vb.Center().Y
			case AlignBottom:
				dy = box.Bottom() - vb.Bottom()
			}
			document.Move(o, dx, dy)
			document.Rebaseline(o)
		}
		return nil
	})
}

// Distribute spaces three or more selected objects so the gaps between
// neighbours along axis are equal. The outermost objects stay put.
func (e *Editor) Distribute(axis Axis) error {
	objs := e.topmost()
	if len(objs) < 3 {
		return fmt.Errorf("distribute needs at least three objects: %w", ErrInvalidSelection)
	}
	if axis != Horizontal && axis != Vertical {
		return fmt.Errorf("unknown axis %q: %w", axis, ErrInvalidSelection)
	}
	// pos and size read the visual box along axis
	pos := func(o document.Object) float64 {
		if axis == Horizontal {
			return document.VisualBounds(o).X
		}
		return document.VisualBounds(o).Y
	}
	size := func(o document.Object) float64 {
		if axis == Horizontal {
			return document.VisualBounds(o).Width
		}
		return document.VisualBounds(o).Height
	}

	sorted := slices.Clone(objs)
	slices.SortStableFunc(sorted, func(a, b document.Object) int {
		switch pa, pb := pos(a), pos(b); {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	first, last := sorted[0], sorted[len(sorted)-1]
	span := pos(last) + size(last) - pos(first)
	total := 0.0
	for _, o := range sorted {
		total += size(o)
	}
	gap := (span - total) / float64(len(sorted)-1)

	return e.mutate(func() error {
		cursor := pos(first)
		for _, o := range sorted {
			d := cursor - pos(o)
			if axis == Horizontal {
				document.Move(o, d, 0)
			} else {
				document.Move(o, 0, d)
			}
			document.Rebaseline(o)
			cursor += size(o) + gap
		}
		return nil
	})
}

// BringToFront moves the selected objects to the top of their sibling
// lists, keeping their relative order.
func (e *Editor) BringToFront() error {
	objs := e.topmost()
	if len(objs) == 0 {
		return ErrInvalidSelection
	}
	slices.SortFunc(objs, func(a, b document.Object) int { return e.indexOf(a) - e.indexOf(b) })
	return e.mutate(func() error {
		for _, o := range objs {
			if err := e.doc.Reorder(o, len(e.doc.Siblings(o))); err != nil {
				return err
			}
		}
		return nil
	})
}

// SendToBack moves the selected objects to the bottom of their sibling
// lists, keeping their relative order.
func (e *Editor) SendToBack() error {
	objs := e.topmost()
	if len(objs) == 0 {
		return ErrInvalidSelection
	}
	slices.SortFunc(objs, func(a, b document.Object) int { return e.indexOf(b) - e.indexOf(a) })
	return e.mutate(func() error {
		for _, o := range objs {
			if err := e.doc.Reorder(o, 0); err != nil {
				return err
			}
		}
		return nil
	})
}
