package editor

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/inamate/design/internal/boolean"
	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/selection"
)

// CommitCreated adds an object a creation tool just finished drawing and
// selects it. Degenerate objects are discarded with ErrDegenerate and leave
// no history entry. o must not already be in the document.
func (e *Editor) CommitCreated(o document.Object) error {
	if o == nil {
		return document.ErrNilChild
	}
	if e.degenerate(o) {
		e.log.Info("discard degenerate object", "id", o.Common().ID, "type", o.Type())
		return fmt.Errorf("commit %s: %w", o.Type(), ErrDegenerate)
	}
	return e.mutate(func() error {
		if err := e.doc.Add(o); err != nil {
			return err
		}
		e.register(o)
		e.selection = []string{o.Common().ID}
		return nil
	})
}

func (e *Editor) degenerate(o document.Object) bool {
	limit := e.opts.MinCreateSize
	r := o.Bounds()
	switch v := o.(type) {
	case *document.Rectangle, *document.Ellipse, *document.Frame, *document.Image, *document.Component:
		return r.Width < limit || r.Height < limit
	case *document.Line:
		return v.Length() < limit
	case *document.Path:
		return v.Len() < 2
	case *document.Text:
		return strings.TrimSpace(v.Text) == ""
	}
	return false
}

// register adds every component in o's subtree to the registry.
func (e *Editor) register(o document.Object) {
	document.Walk([]document.Object{o}, func(x document.Object) bool {
		if c, ok := x.(*document.Component); ok {
			e.registry.Register(c)
		}
		return true
	})
}

func (e *Editor) unregister(o document.Object) {
	document.Walk([]document.Object{o}, func(x document.Object) bool {
		if c, ok := x.(*document.Component); ok {
			e.registry.Unregister(c)
		}
		return true
	})
}

// resolve maps ids to objects, falling back to the top-level selection
// when ids is empty.
func (e *Editor) resolve(ids []string) ([]document.Object, error) {
	if len(ids) == 0 {
		objs := e.topmost()
		if len(objs) == 0 {
			return nil, ErrInvalidSelection
		}
		return objs, nil
	}
	out := make([]document.Object, 0, len(ids))
	for _, id := range ids {
		o := e.doc.Find(id)
		if o == nil {
			return nil, fmt.Errorf("%s: %w", id, document.ErrNotFound)
		}
		out = append(out, o)
	}
	return out, nil
}

// Remove deletes the given objects, or the selection when ids is empty. A
// component goes only together with, or after, every instance of it still
// in the document.
func (e *Editor) Remove(ids ...string) error {
	objs, err := e.resolve(ids)
	if err != nil {
		return err
	}
	if err := e.checkOrphans(objs); err != nil {
		return err
	}
	return e.mutate(func() error {
		for _, o := range objs {
			if err := e.doc.Remove(o); err != nil {
				return err
			}
			e.unregister(o)
		}
		e.selection = e.existing(e.selection)
		return nil
	})
}

// checkOrphans fails when removing objs would leave an instance in the
// document without its component.
func (e *Editor) checkOrphans(objs []document.Object) error {
	removed := make(map[document.Object]bool)
	document.Walk(objs, func(o document.Object) bool {
		removed[o] = true
		return true
	})
	for o := range removed {
		c, ok := o.(*document.Component)
		if !ok {
			continue
		}
		for _, inst := range c.Instances() {
			if removed[inst] || e.doc.Find(inst.ID) != document.Object(inst) {
				continue
			}
			return fmt.Errorf("component %s has instance %s: %w", c.ID, inst.ID, ErrInvalidSelection)
		}
	}
	return nil
}

// Move translates the selection by (dx, dy).
func (e *Editor) Move(dx, dy float64) error {
	objs, err := e.resolve(nil)
	if err != nil {
		return err
	}
	return e.mutate(func() error {
		for _, o := range objs {
			document.Move(o, dx, dy)
			document.Rebaseline(o)
		}
		return nil
	})
}

// Nudge moves the selection one step per unit of direction; large steps
// are ten times the configured nudge.
func (e *Editor) Nudge(dirX, dirY float64, large bool) error {
	step := e.opts.Nudge
	if large {
		step *= 10
	}
	return e.Move(dirX*step, dirY*step)
}

// SetBounds resizes or moves one object.
func (e *Editor) SetBounds(id string, r geom.Rect) error {
	o := e.doc.Find(id)
	if o == nil {
		return fmt.Errorf("%s: %w", id, document.ErrNotFound)
	}
	return e.mutate(func() error {
		o.SetBounds(r)
		document.Rebaseline(o)
		return nil
	})
}

// Rotate sets an object's rotation in degrees.
func (e *Editor) Rotate(id string, deg float64) error {
	o := e.doc.Find(id)
	if o == nil {
		return fmt.Errorf("%s: %w", id, document.ErrNotFound)
	}
	return e.mutate(func() error {
		o.Common().SetRotation(deg)
		return nil
	})
}

// SetProperties assigns named properties on the given objects, or on the
// selection when ids is empty. Either every assignment applies or none do.
func (e *Editor) SetProperties(ids []string, props map[string]any) error {
	if len(ids) == 0 {
		ids = e.SelectedIDs()
		if len(ids) == 0 {
			return ErrInvalidSelection
		}
	}
	objs, err := e.resolve(ids)
	if err != nil {
		return err
	}
	keys := slices.Sorted(maps.Keys(props))
	return e.mutate(func() error {
		for _, o := range objs {
			before := o.Bounds()
			for _, k := range keys {
				if err := document.SetProperty(o, k, props[k]); err != nil {
					return err
				}
			}
			if o.Bounds() != before {
				document.Rebaseline(o)
			}
		}
		return nil
	})
}

// Duplicate clones the selection next to the originals, offset by the
// configured distance, and selects the copies.
func (e *Editor) Duplicate() error {
	objs, err := e.resolve(nil)
	if err != nil {
		return err
	}
	off := e.opts.DuplicateOffset
	return e.mutate(func() error {
		ids := make([]string, 0, len(objs))
		for _, o := range objs {
			c := document.Clone(o)
			document.Move(c, off, off)
			if err := e.insertAfter(o, c); err != nil {
				return err
			}
			e.register(c)
			ids = append(ids, c.Common().ID)
		}
		e.selection = ids
		return nil
	})
}

// indexOf returns o's position among its siblings.
func (e *Editor) indexOf(o document.Object) int {
	if p := o.Common().Parent(); p != nil {
		return slices.Index(p.Children(), o)
	}
	return e.doc.IndexOf(o)
}

func (e *Editor) insertAt(parent document.Container, index int, o document.Object) error {
	if parent != nil {
		return parent.InsertChild(index, o)
	}
	return e.doc.Insert(index, o)
}

func (e *Editor) insertAfter(anchor, o document.Object) error {
	return e.insertAt(anchor.Common().Parent(), e.indexOf(anchor)+1, o)
}

// siblingsInOrder checks that objs share a parent and sorts them by paint
// order.
func (e *Editor) siblingsInOrder(objs []document.Object) (document.Container, []document.Object, error) {
	parent := objs[0].Common().Parent()
	for _, o := range objs[1:] {
		if o.Common().Parent() != parent {
			return nil, nil, fmt.Errorf("objects have different parents: %w", ErrInvalidSelection)
		}
	}
	sorted := slices.Clone(objs)
	slices.SortFunc(sorted, func(a, b document.Object) int { return e.indexOf(a) - e.indexOf(b) })
	return parent, sorted, nil
}

// wrap moves objs into c, which takes the place of the topmost of them.
func (e *Editor) wrap(objs []document.Object, c document.Container) error {
	parent, sorted, err := e.siblingsInOrder(objs)
	if err != nil {
		return err
	}
	at := e.indexOf(sorted[len(sorted)-1]) - (len(sorted) - 1)
	for _, o := range sorted {
		if err := e.doc.Remove(o); err != nil {
			return err
		}
	}
	for _, o := range sorted {
		if err := c.AddChild(o); err != nil {
			return err
		}
	}
	return e.insertAt(parent, at, c)
}

// Group wraps two or more sibling objects in a new group.
func (e *Editor) Group() error {
	objs := e.topmost()
	if len(objs) < 2 {
		return fmt.Errorf("group needs at least two objects: %w", ErrInvalidSelection)
	}
	if _, _, err := e.siblingsInOrder(objs); err != nil {
		return err
	}
	return e.mutate(func() error {
		g := document.NewGroup()
		if err := e.wrap(objs, g); err != nil {
			return err
		}
		e.selection = []string{g.ID}
		return nil
	})
}

// Ungroup dissolves the selected groups, putting their children where the
// group was and selecting them.
func (e *Editor) Ungroup() error {
	var groups []*document.Group
	for _, o := range e.topmost() {
		if g, ok := o.(*document.Group); ok {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		return fmt.Errorf("ungroup needs a group: %w", ErrInvalidSelection)
	}
	return e.mutate(func() error {
		var ids []string
		for _, g := range groups {
			parent, at := g.Parent(), e.indexOf(g)
			children := g.Children()
			if err := e.doc.Remove(g); err != nil {
				return err
			}
			for k, child := range children {
				if err := e.insertAt(parent, at+k, child); err != nil {
					return err
				}
				ids = append(ids, child.Common().ID)
			}
		}
		e.selection = ids
		return nil
	})
}

// Boolean combines exactly two selected shapes into a path that replaces
// the first one; the second is removed.
func (e *Editor) Boolean(op boolean.Op) error {
	objs := e.Selected()
	if len(objs) != 2 || !op.Valid() {
		return fmt.Errorf("boolean %s needs two shapes: %w", op, ErrInvalidSelection)
	}
	a, b := objs[0], objs[1]
	path, err := boolean.Apply(op, a, b)
	if err != nil {
		return fmt.Errorf("boolean %s: %w: %w", op, ErrInvalidSelection, err)
	}
	return e.mutate(func() error {
		if err := e.doc.Replace(a, path); err != nil {
			return err
		}
		if err := e.doc.Remove(b); err != nil {
			return err
		}
		e.selection = []string{path.ID}
		return nil
	})
}

// CreateComponent turns the selected sibling objects into a new component
// sized to their bounds.
func (e *Editor) CreateComponent() error {
	objs := e.topmost()
	if len(objs) == 0 {
		return fmt.Errorf("component needs at least one object: %w", ErrInvalidSelection)
	}
	if _, _, err := e.siblingsInOrder(objs); err != nil {
		return err
	}
	return e.mutate(func() error {
		var bounds geom.Rect
		for i, o := range objs {
			if i == 0 {
				bounds = o.Bounds()
			} else {
				bounds = bounds.Union(o.Bounds())
			}
		}
		c := document.NewComponent(bounds.X, bounds.Y, bounds.Width, bounds.Height)
		if err := e.wrap(objs, c); err != nil {
			return err
		}
		e.registry.Register(c)
		e.selection = []string{c.ID}
		return nil
	})
}

// CreateInstance places an instance of a registered component with its
// origin at (x, y) and selects it.
func (e *Editor) CreateInstance(componentID string, x, y float64) (string, error) {
	c, ok := e.registry.Component(componentID)
	if !ok {
		return "", fmt.Errorf("component %s: %w", componentID, document.ErrNotFound)
	}
	inst := document.NewInstance(c, x, y)
	err := e.mutate(func() error {
		if err := e.doc.Add(inst); err != nil {
			return err
		}
		e.selection = []string{inst.ID}
		return nil
	})
	if err != nil {
		inst.Unlink()
		return "", err
	}
	return inst.ID, nil
}

// Detach replaces a linked instance with a plain group of copies of its
// master's children.
func (e *Editor) Detach(id string) error {
	inst, ok := e.doc.Find(id).(*document.Instance)
	if !ok || inst.Master() == nil {
		return fmt.Errorf("detach %s: %w", id, ErrInvalidSelection)
	}
	return e.mutate(func() error {
		g, err := document.Detach(inst)
		if err != nil {
			return err
		}
		if err := e.doc.Replace(inst, g); err != nil {
			return err
		}
		e.selection = []string{g.ID}
		return nil
	})
}

// AddToContainer moves an object into a frame, group or component at
// index. An empty containerID moves it to the top level.
func (e *Editor) AddToContainer(id, containerID string, index int) error {
	o := e.doc.Find(id)
	if o == nil {
		return fmt.Errorf("%s: %w", id, document.ErrNotFound)
	}
	var c document.Container
	if containerID != "" {
		var ok bool
		if c, ok = e.doc.Find(containerID).(document.Container); !ok {
			return fmt.Errorf("%s is not a container: %w", containerID, ErrInvalidSelection)
		}
	}
	return e.mutate(func() error {
		if c == nil {
			return e.doc.Insert(index, o)
		}
		if o.Common().Parent() == nil {
			if err := e.doc.Remove(o); err != nil {
				return err
			}
		}
		return c.InsertChild(index, o)
	})
}

// Resize applies a handle drag to the single selected object. start is
// the object's bounds when the drag began; (dx, dy) is the drag distance in
// document units.
func (e *Editor) Resize(start geom.Rect, h selection.Handle, dx, dy float64, keepAspect bool) error {
	objs := e.Selected()
	if len(objs) != 1 {
		return fmt.Errorf("resize needs one object: %w", ErrInvalidSelection)
	}
	return e.SetBounds(objs[0].Common().ID, selection.Resize(start, h, dx, dy, keepAspect))
}
