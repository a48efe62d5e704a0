package document

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/layout"
)

var (
	ErrCycle    = errors.New("object would become its own ancestor")
	ErrNotChild = errors.New("object is not a child of this container")
	ErrNilChild = errors.New("nil child")
)

// Container is an object that owns an ordered list of children.
type Container interface {
	Object
	Children() []Object
	AddChild(Object) error
	InsertChild(int, Object) error
	RemoveChild(Object) error

	list() *childList
	childChanged()
	childrenChanged()
}

type childList struct {
	items []Object
}

// Children returns a copy of the children in paint order.
func (l *childList) Children() []Object { return slices.Clone(l.items) }

func (l *childList) Len() int { return len(l.items) }

func (l *childList) IndexOf(o Object) int {
	for i, c := range l.items {
		if c == o {
			return i
		}
	}
	return -1
}

func (l *childList) list() *childList { return l }

func insertChild(c Container, index int, o Object) error {
	if o == nil {
		return ErrNilChild
	}
	if reaches(o, c) {
		return fmt.Errorf("add %s to %s: %w", o.Common().ID, c.Common().ID, ErrCycle)
	}
	for _, anc := range Ancestors(c) {
		if reaches(o, anc) {
			return fmt.Errorf("add %s to %s: %w", o.Common().ID, c.Common().ID, ErrCycle)
		}
	}
	if prev := o.Common().parent; prev != nil {
		if err := prev.RemoveChild(o); err != nil {
			return fmt.Errorf("detach from previous parent: %w", err)
		}
	}

	l := c.list()
	index = min(max(index, 0), len(l.items))
	l.items = slices.Insert(l.items, index, o)
	o.Common().parent = c

	Rebaseline(o)
	c.childrenChanged()
	return nil
}

// Rebaseline captures o's constraint baseline against its frame or component
// parent. Call it after o is placed or edited directly, never from reflow.
func Rebaseline(o Object) {
	cons := o.Common().Constraints
	if cons == nil {
		return
	}
	switch p := o.Common().parent.(type) {
	case *Frame, *Component:
		cons.Initialize(o.Bounds(), p.Bounds())
	}
}

func removeChild(c Container, o Object) error {
	l := c.list()
	i := l.IndexOf(o)
	if i < 0 {
		return ErrNotChild
	}
	l.items = slices.Delete(l.items, i, i+1)
	o.Common().parent = nil
	c.childrenChanged()
	return nil
}

// attach appends without post-processing. Decoding uses it to restore a
// tree exactly as saved.
func attach(c Container, o Object) {
	l := c.list()
	l.items = append(l.items, o)
	o.Common().parent = c
}

// reaches reports whether target is o itself, is owned by o, or is the
// master (or inside the master) of an instance owned by o.
func reaches(o Object, target Object) bool {
	if o == target {
		return true
	}
	switch v := o.(type) {
	case Container:
		for _, child := range v.list().items {
			if reaches(child, target) {
				return true
			}
		}
	case *Instance:
		if v.master != nil {
			return reaches(v.master, target)
		}
	}
	return false
}

// reflow moves children after their container went from old to cur. Children
// with a constraint baseline are reprojected, the rest keep their offset
// from the container origin.
func reflow(children []Object, old, cur geom.Rect) {
	dx, dy := cur.X-old.X, cur.Y-old.Y
	for _, child := range children {
		if r, ok := child.Common().Constraints.Apply(cur); ok {
			child.SetBounds(r)
			continue
		}
		Move(child, dx, dy)
	}
}

// Frame is a container with authored bounds, optional auto layout and
// optional clipping of its content.
type Frame struct {
	Base
	childList
	AutoLayout  *layout.AutoLayout
	ClipContent bool
}

func NewFrame(x, y, w, h float64) *Frame {
	f := &Frame{Base: newBase("Frame"), ClipContent: true}
	f.Fill = "#FFFFFF"
	f.bounds = clampRect(geom.R(x, y, w, h))
	return f
}

func (*Frame) Type() ObjectType { return TypeFrame }

func (f *Frame) AddChild(o Object) error { return insertChild(f, len(f.items), o) }

func (f *Frame) InsertChild(i int, o Object) error { return insertChild(f, i, o) }

func (f *Frame) RemoveChild(o Object) error { return removeChild(f, o) }

func (f *Frame) SetBounds(r geom.Rect) {
	old := f.bounds
	f.bounds = clampRect(r)
	reflow(f.items, old, f.bounds)
	f.Relayout()
	f.notifyParent()
}

func (f *Frame) autoLayoutEnabled() bool { return f.AutoLayout != nil && f.AutoLayout.Enabled }

// Relayout runs auto layout if it is enabled. Hug sizing may change the
// frame's own bounds.
func (f *Frame) Relayout() {
	if !f.autoLayoutEnabled() {
		return
	}
	nodes := make([]layout.Node, len(f.items))
	for i, c := range f.items {
		nodes[i] = c
	}
	next := clampRect(f.AutoLayout.Apply(f.bounds, nodes))
	if next != f.bounds {
		f.bounds = next
		f.notifyParent()
	}
}

// Child resizes do not re-run auto layout.
func (f *Frame) childChanged() {}

func (f *Frame) childrenChanged() { f.Relayout() }

// Group is a container whose bounds are always the union of its children.
type Group struct {
	Base
	childList
	resizing bool
}

func NewGroup() *Group {
	return &Group{Base: newBase("Group")}
}

func (*Group) Type() ObjectType { return TypeGroup }

func (g *Group) AddChild(o Object) error { return insertChild(g, len(g.items), o) }

func (g *Group) InsertChild(i int, o Object) error { return insertChild(g, i, o) }

func (g *Group) RemoveChild(o Object) error { return removeChild(g, o) }

// SetBounds maps every child proportionally from the current union into r.
func (g *Group) SetBounds(r geom.Rect) {
	r = clampRect(r)
	if len(g.items) == 0 {
		g.bounds = r
		g.notifyParent()
		return
	}
	m := remap(g.bounds, r)
	g.resizing = true
	for _, c := range g.items {
		cb := c.Bounds()
		p0 := m(geom.Pt(cb.X, cb.Y))
		p1 := m(geom.Pt(cb.Right(), cb.Bottom()))
		c.SetBounds(geom.BoundsOfPoints(p0, p1))
	}
	g.resizing = false
	g.UpdateBounds()
}

// UpdateBounds recomputes the union of the children.
func (g *Group) UpdateBounds() {
	if len(g.items) == 0 {
		g.bounds = geom.Rect{X: g.bounds.X, Y: g.bounds.Y}
		return
	}
	u := g.items[0].Bounds()
	for _, c := range g.items[1:] {
		u = u.Union(c.Bounds())
	}
	if u != g.bounds {
		g.bounds = u
		g.notifyParent()
	}
}

func (g *Group) childChanged() {
	if !g.resizing {
		g.UpdateBounds()
	}
}

func (g *Group) childrenChanged() { g.UpdateBounds() }
