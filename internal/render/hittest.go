package render

import (
	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
)

// HitTest returns the ID of the topmost top-level object under p, or "".
func HitTest(objects []document.Object, p geom.Point) string {
	if o := Pick(objects, p, nil); o != nil {
		return o.Common().ID
	}
	return ""
}

// Pick returns the topmost top-level object under document point p.
// Objects for which skip returns true are passed over along with their
// subtrees.
func Pick(objects []document.Object, p geom.Point, skip func(document.Object) bool) document.Object {
	for i := len(objects) - 1; i >= 0; i-- {
		o := objects[i]
		if o == nil || !o.IsVisible() || (skip != nil && skip(o)) {
			continue
		}
		if hit(o, p) {
			return o
		}
	}
	return nil
}

// PickDeep is Pick but returns the innermost hit object instead of the
// top-level one.
func PickDeep(objects []document.Object, p geom.Point, skip func(document.Object) bool) document.Object {
	for i := len(objects) - 1; i >= 0; i-- {
		o := objects[i]
		if o == nil || !o.IsVisible() || (skip != nil && skip(o)) {
			continue
		}
		if c, ok := o.(document.Container); ok && !clippedOut(o, p) {
			if inner := PickDeep(c.Children(), p, skip); inner != nil {
				return inner
			}
		}
		if hitSelf(o, p) {
			return o
		}
	}
	return nil
}

// hit tests o and its visible descendants, children first.
func hit(o document.Object, p geom.Point) bool {
	if c, ok := o.(document.Container); ok && !clippedOut(o, p) {
		children := c.Children()
		for i := len(children) - 1; i >= 0; i-- {
			if children[i].IsVisible() && hit(children[i], p) {
				return true
			}
		}
	}
	return hitSelf(o, p)
}

// hitSelf tests o's own painted area. Groups paint nothing themselves.
func hitSelf(o document.Object, p geom.Point) bool {
	if _, ok := o.(*document.Group); ok {
		return false
	}
	return document.ContainsPoint(o, p)
}

func clippedOut(o document.Object, p geom.Point) bool {
	f, ok := o.(*document.Frame)
	return ok && f.ClipContent && !document.ContainsPoint(f, p)
}

// SelectionBounds returns the union of the rotated bounds of objects.
func SelectionBounds(objects []document.Object) geom.Rect {
	var result geom.Rect
	first := true
	for _, o := range objects {
		if o == nil {
			continue
		}
		b := document.VisualBounds(o)
		if first {
			result = b
			first = false
		} else {
			result = result.Union(b)
		}
	}
	return result
}
