package document

import (
	"errors"
	"slices"
	"sort"
	"weak"

	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/typeid"
)

var ErrNotLinked = errors.New("instance is not linked to a component")

// Properties an instance mirrors from its master unless overridden.
const (
	PropWidth         = "width"
	PropHeight        = "height"
	PropFill          = "fill"
	PropFillOpacity   = "fillOpacity"
	PropStroke        = "stroke"
	PropStrokeWidth   = "strokeWidth"
	PropStrokeOpacity = "strokeOpacity"
	PropOpacity       = "opacity"
	PropBlendMode     = "blendMode"
	PropBlur          = "blur"
	PropGradient      = "gradient"
	PropShadows       = "shadows"
)

func syncable(prop string) bool {
	switch prop {
	case PropWidth, PropHeight, PropFill, PropFillOpacity, PropStroke, PropStrokeWidth,
		PropStrokeOpacity, PropOpacity, PropBlendMode, PropBlur, PropGradient, PropShadows:
		return true
	}
	return false
}

// Component is a reusable template. It tracks its instances weakly; an
// instance going away never requires touching the component.
type Component struct {
	Base
	childList
	ComponentID string
	instances   []weak.Pointer[Instance]
}

func NewComponent(x, y, w, h float64) *Component {
	c := &Component{Base: newBase("Component"), ComponentID: typeid.NewComponentID()}
	c.bounds = clampRect(geom.R(x, y, w, h))
	return c
}

func (*Component) Type() ObjectType { return TypeComponent }

func (c *Component) AddChild(o Object) error { return insertChild(c, len(c.items), o) }

func (c *Component) InsertChild(i int, o Object) error { return insertChild(c, i, o) }

func (c *Component) RemoveChild(o Object) error { return removeChild(c, o) }

func (c *Component) SetBounds(r geom.Rect) {
	old := c.bounds
	c.bounds = clampRect(r)
	reflow(c.items, old, c.bounds)
	c.notifyParent()
}

func (c *Component) childChanged()    {}
func (c *Component) childrenChanged() {}

// Instances returns the live instances, dropping collected ones.
func (c *Component) Instances() []*Instance {
	out := make([]*Instance, 0, len(c.instances))
	live := c.instances[:0]
	for _, wp := range c.instances {
		if inst := wp.Value(); inst != nil {
			out = append(out, inst)
			live = append(live, wp)
		}
	}
	clear(c.instances[len(live):])
	c.instances = live
	return out
}

func (c *Component) addInstance(i *Instance) {
	wp := weak.Make(i)
	if !slices.Contains(c.instances, wp) {
		c.instances = append(c.instances, wp)
	}
}

func (c *Component) removeInstance(i *Instance) {
	wp := weak.Make(i)
	c.instances = slices.DeleteFunc(c.instances, func(p weak.Pointer[Instance]) bool {
		return p == wp
	})
}

// UpdateInstances pushes the master's current values to every linked
// instance. Call it after each edit of the component that instances should
// reflect.
func (c *Component) UpdateInstances() {
	for _, inst := range c.Instances() {
		inst.syncFrom(c)
	}
}

// Instance is a linked copy of a component. After decoding it carries only
// ComponentID until Link is called.
type Instance struct {
	Base
	ComponentID string
	overrides   map[string]bool
	master      *Component
}

// NewInstance places a linked instance of c with its origin at (x, y).
func NewInstance(c *Component, x, y float64) *Instance {
	i := &Instance{Base: newBase(c.Name)}
	cb := c.Bounds()
	i.bounds = geom.R(x, y, cb.Width, cb.Height)
	i.Link(c)
	return i
}

func (*Instance) Type() ObjectType { return TypeInstance }

func (i *Instance) Master() *Component { return i.master }

// SetBounds records a size change against the master as an override.
func (i *Instance) SetBounds(r geom.Rect) {
	r = clampRect(r)
	if i.master != nil {
		if r.Width != i.bounds.Width {
			i.Override(PropWidth)
		}
		if r.Height != i.bounds.Height {
			i.Override(PropHeight)
		}
	}
	i.bounds = r
	i.notifyParent()
}

// Link binds the instance to c and mirrors every non-overridden property.
func (i *Instance) Link(c *Component) {
	if i.master != nil && i.master != c {
		i.master.removeInstance(i)
	}
	i.master = c
	i.ComponentID = c.ComponentID
	c.addInstance(i)
	i.syncFrom(c)
}

// Unlink drops the master reference. ComponentID is kept.
func (i *Instance) Unlink() {
	if i.master != nil {
		i.master.removeInstance(i)
		i.master = nil
	}
}

func (i *Instance) Override(prop string) {
	if i.overrides == nil {
		i.overrides = make(map[string]bool)
	}
	i.overrides[prop] = true
}

func (i *Instance) IsOverridden(prop string) bool { return i.overrides[prop] }

// ResetOverride returns prop to the master's value.
func (i *Instance) ResetOverride(prop string) {
	delete(i.overrides, prop)
	if i.master != nil {
		i.syncFrom(i.master)
	}
}

// Overrides returns the overridden property names, sorted.
func (i *Instance) Overrides() []string {
	out := make([]string, 0, len(i.overrides))
	for k, v := range i.overrides {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// syncFrom writes fields directly so mirroring never marks an override.
func (i *Instance) syncFrom(c *Component) {
	m := &c.Base
	changed := false
	if !i.overrides[PropWidth] && i.bounds.Width != m.bounds.Width {
		i.bounds.Width = m.bounds.Width
		changed = true
	}
	if !i.overrides[PropHeight] && i.bounds.Height != m.bounds.Height {
		i.bounds.Height = m.bounds.Height
		changed = true
	}
	if !i.overrides[PropFill] {
		i.Fill = m.Fill
	}
	if !i.overrides[PropFillOpacity] {
		i.FillOpacity = m.FillOpacity
	}
	if !i.overrides[PropStroke] {
		i.Stroke = m.Stroke
	}
	if !i.overrides[PropStrokeWidth] {
		i.StrokeWidth = m.StrokeWidth
	}
	if !i.overrides[PropStrokeOpacity] {
		i.StrokeOpacity = m.StrokeOpacity
	}
	if !i.overrides[PropOpacity] {
		i.Opacity = m.Opacity
	}
	if !i.overrides[PropBlendMode] {
		i.BlendMode = m.BlendMode
	}
	if !i.overrides[PropBlur] {
		i.Blur = m.Blur
	}
	if !i.overrides[PropGradient] {
		i.Gradient = m.Gradient.Clone()
	}
	if !i.overrides[PropShadows] {
		i.Shadows = slices.Clone(m.Shadows)
	}
	if changed {
		i.notifyParent()
	}
}

// Detach converts a linked instance into a plain Group holding deep copies
// of the master's children, offset by the instance's position relative to
// the master. The instance is unlinked; replacing it in the tree is up to
// the caller.
func Detach(i *Instance) (*Group, error) {
	c := i.master
	if c == nil {
		return nil, ErrNotLinked
	}
	g := NewGroup()
	g.Name = i.Name
	g.Opacity = i.Opacity
	g.BlendMode = i.BlendMode
	g.Visible = i.Visible
	g.Locked = i.Locked

	dx := i.bounds.X - c.bounds.X
	dy := i.bounds.Y - c.bounds.Y
	for _, child := range c.items {
		clone := Clone(child)
		Move(clone, dx, dy)
		if err := g.AddChild(clone); err != nil {
			return nil, err
		}
	}
	if len(c.items) == 0 {
		g.bounds = i.bounds
	}
	i.Unlink()
	return g, nil
}

// Registry resolves component ids to live components.
type Registry struct {
	byID map[string]*Component
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Component)}
}

func (r *Registry) Register(c *Component) { r.byID[c.ComponentID] = c }

func (r *Registry) Unregister(c *Component) {
	if r.byID[c.ComponentID] == c {
		delete(r.byID, c.ComponentID)
	}
}

func (r *Registry) Component(componentID string) (*Component, bool) {
	c, ok := r.byID[componentID]
	return c, ok
}

func (r *Registry) Len() int { return len(r.byID) }

// Relink registers every component reachable from objects and links each
// instance to its master by ComponentID. Both passes walk the whole set, so
// masters may appear after their instances. Instances whose master is
// missing are returned unlinked.
func Relink(objects []Object, r *Registry) []*Instance {
	Walk(objects, func(o Object) bool {
		if c, ok := o.(*Component); ok {
			r.Register(c)
		}
		return true
	})
	var orphans []*Instance
	Walk(objects, func(o Object) bool {
		inst, ok := o.(*Instance)
		if !ok {
			return true
		}
		if c, found := r.Component(inst.ComponentID); found {
			inst.Link(c)
		} else {
			inst.Unlink()
			orphans = append(orphans, inst)
		}
		return true
	})
	return orphans
}
