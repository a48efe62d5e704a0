package editor

import (
	"slices"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/render"
	"github.com/inamate/design/internal/selection"
)

// SelectedIDs returns the selection in the order it was made.
func (e *Editor) SelectedIDs() []string { return slices.Clone(e.selection) }

// Selected resolves the selection to objects, skipping stale ids.
func (e *Editor) Selected() []document.Object {
	out := make([]document.Object, 0, len(e.selection))
	for _, id := range e.selection {
		if o := e.doc.Find(id); o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Select replaces the selection. Unknown ids are dropped.
func (e *Editor) Select(ids ...string) {
	e.selection = e.existing(ids)
	e.needsRender = true
}

func (e *Editor) ClearSelection() { e.Select() }

// SelectAt selects the topmost visible, unlocked top-level object under the
// document point p. With additive set the hit object is toggled instead and
// a miss keeps the selection. It returns the hit id or "".
func (e *Editor) SelectAt(p geom.Point, additive bool) string {
	hit := render.Pick(e.doc.Objects, p, locked)
	if hit == nil {
		if !additive {
			e.Select()
		}
		return ""
	}
	id := hit.Common().ID
	switch {
	case !additive:
		e.Select(id)
	case slices.Contains(e.selection, id):
		e.Select(slices.DeleteFunc(slices.Clone(e.selection), func(s string) bool { return s == id })...)
	default:
		e.Select(append(slices.Clone(e.selection), id)...)
	}
	return id
}

// SelectAtScreen is SelectAt for a point in screen pixels.
func (e *Editor) SelectAtScreen(p geom.Point, additive bool) string {
	return e.SelectAt(e.viewport.ScreenToWorld(p), additive)
}

// SelectInRect selects the visible, unlocked top-level objects overlapping
// r, in paint order.
func (e *Editor) SelectInRect(r geom.Rect, additive bool) []string {
	r = r.Canon()
	var ids []string
	if additive {
		ids = slices.Clone(e.selection)
	}
	for _, o := range e.doc.Objects {
		if !o.IsVisible() || locked(o) || !document.Intersects(o, r) {
			continue
		}
		if id := o.Common().ID; !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	e.Select(ids...)
	return e.SelectedIDs()
}

// SelectionBounds is the union of the selected objects' rotated bounds.
func (e *Editor) SelectionBounds() (geom.Rect, bool) {
	objs := e.Selected()
	if len(objs) == 0 {
		return geom.Rect{}, false
	}
	return render.SelectionBounds(objs), true
}

// Handles returns the screen-space handles for the selection. A single
// object gets handles on its rotated box.
func (e *Editor) Handles() []selection.HandleRect {
	bounds, rot, ok := e.handleFrame()
	if !ok {
		return nil
	}
	return selection.Handles(bounds, rot, e.viewport)
}

// HandleAt returns the selection handle under the screen point p.
func (e *Editor) HandleAt(p geom.Point) (selection.Handle, bool) {
	bounds, rot, ok := e.handleFrame()
	if !ok {
		return selection.HandleNone, false
	}
	return selection.HandleAt(p, bounds, rot, e.viewport)
}

func (e *Editor) handleFrame() (geom.Rect, float64, bool) {
	objs := e.Selected()
	switch len(objs) {
	case 0:
		return geom.Rect{}, 0, false
	case 1:
		return objs[0].Bounds(), objs[0].Common().Rotation(), true
	}
	return render.SelectionBounds(objs), 0, true
}

func locked(o document.Object) bool { return o.Common().Locked }

func (e *Editor) existing(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if e.doc.Find(id) != nil && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// topmost returns the selected objects that have no selected ancestor.
func (e *Editor) topmost() []document.Object {
	objs := e.Selected()
	chosen := make(map[document.Object]bool, len(objs))
	for _, o := range objs {
		chosen[o] = true
	}
	out := objs[:0]
	for _, o := range objs {
		nested := false
		for _, anc := range document.Ancestors(o) {
			if chosen[anc] {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, o)
		}
	}
	return out
}
