package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/design/internal/typeid"
)

const FormatVersion = 1

var (
	ErrDuplicateID = errors.New("duplicate object id")
	ErrNotFound    = errors.New("object not found")
)

// Document is the ordered list of top-level objects.
type Document struct {
	Version int
	Objects []Object
}

func New() *Document {
	return &Document{Version: FormatVersion}
}

// Data is the on-disk form of a Document.
type Data struct {
	Version int          `json:"version"`
	Objects []ObjectData `json:"objects"`
}

// Snapshot is one history entry: the full object list plus the selection.
type Snapshot struct {
	Objects     []ObjectData `json:"objects"`
	SelectedIDs []string     `json:"selectedIds"`
}

// Walk visits objects depth-first, parents before children. It stops as
// soon as fn returns false and reports whether it ran to completion.
func Walk(objects []Object, fn func(Object) bool) bool {
	for _, o := range objects {
		if !fn(o) {
			return false
		}
		if c, ok := o.(Container); ok {
			if !Walk(c.list().items, fn) {
				return false
			}
		}
	}
	return true
}

func (d *Document) Walk(fn func(Object) bool) { Walk(d.Objects, fn) }

// Find returns the object with id anywhere in the tree, or nil.
func (d *Document) Find(id string) Object {
	var found Object
	Walk(d.Objects, func(o Object) bool {
		if o.Common().ID == id {
			found = o
			return false
		}
		return true
	})
	return found
}

// Add appends o at the top level. Every id in o's subtree must be new to
// the document.
func (d *Document) Add(o Object) error {
	return d.Insert(len(d.Objects), o)
}

// Insert places o at the top level at index. An o that is already top-level
// is reordered instead.
func (d *Document) Insert(index int, o Object) error {
	if o == nil {
		return ErrNilChild
	}
	if o.Common().parent == nil && d.IndexOf(o) >= 0 {
		return d.Reorder(o, index)
	}
	var dup string
	Walk([]Object{o}, func(x Object) bool {
		if f := d.Find(x.Common().ID); f != nil && f != x {
			dup = x.Common().ID
			return false
		}
		return true
	})
	if dup != "" {
		return fmt.Errorf("add %s: %w", dup, ErrDuplicateID)
	}
	if p := o.Common().parent; p != nil {
		if err := p.RemoveChild(o); err != nil {
			return fmt.Errorf("detach from parent: %w", err)
		}
	}
	index = min(max(index, 0), len(d.Objects))
	d.Objects = slices.Insert(d.Objects, index, o)
	return nil
}

// Remove detaches o from its container or from the top level.
func (d *Document) Remove(o Object) error {
	if p := o.Common().parent; p != nil {
		return p.RemoveChild(o)
	}
	i := d.IndexOf(o)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", o.Common().ID, ErrNotFound)
	}
	d.Objects = slices.Delete(d.Objects, i, i+1)
	return nil
}

// IndexOf returns o's top-level index, or -1.
func (d *Document) IndexOf(o Object) int {
	return slices.IndexFunc(d.Objects, func(x Object) bool { return x == o })
}

// Replace puts next where old is, in old's container or at the top level.
func (d *Document) Replace(old, next Object) error {
	if p := old.Common().parent; p != nil {
		i := p.list().IndexOf(old)
		if err := p.RemoveChild(old); err != nil {
			return err
		}
		return p.InsertChild(i, next)
	}
	i := d.IndexOf(old)
	if i < 0 {
		return fmt.Errorf("replace %s: %w", old.Common().ID, ErrNotFound)
	}
	if p := next.Common().parent; p != nil {
		if err := p.RemoveChild(next); err != nil {
			return err
		}
	}
	d.Objects[i] = next
	return nil
}

// Siblings returns the list o lives in: its container's children or the
// top-level objects.
func (d *Document) Siblings(o Object) []Object {
	if p := o.Common().parent; p != nil {
		return p.Children()
	}
	return slices.Clone(d.Objects)
}

// Reorder moves o to index within its own sibling list.
func (d *Document) Reorder(o Object, index int) error {
	if p := o.Common().parent; p != nil {
		l := p.list()
		i := l.IndexOf(o)
		if i < 0 {
			return ErrNotChild
		}
		l.items = slices.Delete(l.items, i, i+1)
		index = min(max(index, 0), len(l.items))
		l.items = slices.Insert(l.items, index, o)
		p.childrenChanged()
		return nil
	}
	i := d.IndexOf(o)
	if i < 0 {
		return fmt.Errorf("reorder %s: %w", o.Common().ID, ErrNotFound)
	}
	d.Objects = slices.Delete(d.Objects, i, i+1)
	index = min(max(index, 0), len(d.Objects))
	d.Objects = slices.Insert(d.Objects, index, o)
	return nil
}

// SerializeAll converts a list of top-level objects.
func SerializeAll(objects []Object) []ObjectData {
	out := make([]ObjectData, len(objects))
	for i, o := range objects {
		out[i] = Serialize(o)
	}
	return out
}

// DeserializeAll rebuilds objects from data. Ids that repeat are replaced
// with fresh ones so the result upholds document-wide uniqueness. It
// returns the number of ids replaced.
func DeserializeAll(data []ObjectData) ([]Object, int) {
	objects := make([]Object, len(data))
	for i, od := range data {
		objects[i] = Deserialize(od)
	}
	seen := make(map[string]bool)
	renamed := 0
	Walk(objects, func(o Object) bool {
		b := o.Common()
		if seen[b.ID] {
			b.ID = typeid.NewObjectID()
			renamed++
		}
		seen[b.ID] = true
		return true
	})
	return objects, renamed
}

func (d *Document) Data() Data {
	return Data{Version: d.Version, Objects: SerializeAll(d.Objects)}
}

func (d *Document) Encode() ([]byte, error) {
	b, err := json.Marshal(d.Data())
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// Decode parses a document. Only a malformed envelope is an error; bad
// object records become Unknown placeholders.
func Decode(b []byte) (*Document, error) {
	var data Data
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return FromData(data), nil
}

func FromData(data Data) *Document {
	objects, _ := DeserializeAll(data.Objects)
	v := data.Version
	if v == 0 {
		v = FormatVersion
	}
	return &Document{Version: v, Objects: objects}
}
