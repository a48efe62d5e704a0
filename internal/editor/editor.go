// Package editor hosts the design core: it owns the document, the component
// registry, undo history, the selection and the repaint flag, and exposes
// every user-level edit as a method.
//
// An Editor is not safe for concurrent use. Callers serialize all access,
// including asynchronous continuations such as ImageLoaded.
package editor

import (
	"errors"
	"log/slog"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/history"
	"github.com/inamate/design/internal/render"
	"github.com/inamate/design/internal/typeset"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrDegenerate       = errors.New("degenerate geometry")
)

const (
	DefaultNudge           = 1.0
	DefaultDuplicateOffset = 10.0
	MinCreateSize          = 2.0
)

// Options tune an Editor. Zero values select the defaults.
type Options struct {
	HistorySize     int
	Nudge           float64
	DuplicateOffset float64
	MinCreateSize   float64
	Logger          *slog.Logger
	Measurer        typeset.Measurer
}

type Editor struct {
	doc      *document.Document
	registry *document.Registry
	history  *history.History

	selection []string
	viewport  geom.Viewport

	// needsRender is set by every mutation and cleared by Tick.
	needsRender bool
	// modified is set by every mutation and cleared by MarkSaved.
	modified bool

	opts Options
	log  *slog.Logger
}

func New(opts Options) *Editor {
	if opts.Nudge <= 0 {
		opts.Nudge = DefaultNudge
	}
	if opts.DuplicateOffset == 0 {
		opts.DuplicateOffset = DefaultDuplicateOffset
	}
	if opts.MinCreateSize <= 0 {
		opts.MinCreateSize = MinCreateSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Editor{
		doc:         document.New(),
		registry:    document.NewRegistry(),
		history:     history.New(opts.HistorySize),
		viewport:    geom.DefaultViewport(),
		needsRender: true,
		opts:        opts,
		log:         log,
	}
}

// --- Loading ---

// Load replaces the document with the encoded one and clears history.
func (e *Editor) Load(data []byte) error {
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}
	e.LoadDocument(doc)
	return nil
}

// LoadDocument adopts doc, links its instances and clears history.
func (e *Editor) LoadDocument(doc *document.Document) {
	e.doc = doc
	e.registry = document.NewRegistry()
	e.relink()
	e.selection = nil
	e.history.Clear()
	e.modified = false
	e.needsRender = true
	e.logUnknown()
}

// LoadSampleDocument loads the built-in sample document.
func (e *Editor) LoadSampleDocument() {
	e.LoadDocument(document.NewSampleDocument())
}

func (e *Editor) relink() {
	for _, inst := range document.Relink(e.doc.Objects, e.registry) {
		e.log.Warn("instance has no master", "id", inst.ID, "componentId", inst.ComponentID)
	}
}

func (e *Editor) logUnknown() {
	e.doc.Walk(func(o document.Object) bool {
		if _, ok := o.(*document.Unknown); ok {
			e.log.Warn("keep unreadable object as placeholder", "id", o.Common().ID)
		}
		return true
	})
}

func (e *Editor) Encode() ([]byte, error) { return e.doc.Encode() }

// Document returns the live document. Callers must not mutate it directly.
func (e *Editor) Document() *document.Document { return e.doc }

func (e *Editor) Registry() *document.Registry { return e.registry }

// Modified reports whether the document changed since the last MarkSaved.
func (e *Editor) Modified() bool { return e.modified }

func (e *Editor) MarkSaved() { e.modified = false }

// --- History ---

// Snapshot captures the document and the selection.
func (e *Editor) Snapshot() document.Snapshot {
	return document.Snapshot{
		Objects:     document.SerializeAll(e.doc.Objects),
		SelectedIDs: append([]string{}, e.selection...),
	}
}

// Restore replaces the document with s without recording history.
func (e *Editor) Restore(s document.Snapshot) error {
	if err := e.restore(s); err != nil {
		return err
	}
	e.modified = true
	return nil
}

func (e *Editor) restore(s document.Snapshot) error {
	return e.history.Apply(func() error {
		objects, renamed := document.DeserializeAll(s.Objects)
		if renamed > 0 {
			e.log.Warn("reassign duplicate ids", "count", renamed)
		}
		e.doc.Objects = objects
		e.registry = document.NewRegistry()
		e.relink()
		e.selection = e.existing(s.SelectedIDs)
		e.needsRender = true
		return nil
	})
}

func (e *Editor) Undo() (bool, error) {
	s, ok, err := e.history.Undo(e.Snapshot())
	if err != nil || !ok {
		return false, err
	}
	if err := e.Restore(s); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Editor) Redo() (bool, error) {
	s, ok, err := e.history.Redo(e.Snapshot())
	if err != nil || !ok {
		return false, err
	}
	if err := e.Restore(s); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// mutate runs fn as one undoable edit. When fn fails the document and
// selection are put back as they were and no history entry is made.
func (e *Editor) mutate(fn func() error) error {
	before := e.Snapshot()
	if err := fn(); err != nil {
		if rerr := e.restore(before); rerr != nil {
			e.log.Error("roll back failed edit", "error", rerr)
		}
		return err
	}
	e.syncInstances()
	if err := e.history.Push(before); err != nil {
		e.log.Warn("record history", "error", err)
	}
	e.modified = true
	e.needsRender = true
	return nil
}

// syncInstances pushes every component's current state to its instances.
func (e *Editor) syncInstances() {
	e.doc.Walk(func(o document.Object) bool {
		if c, ok := o.(*document.Component); ok {
			c.UpdateInstances()
		}
		return true
	})
}

// --- Rendering ---

// RequestRender schedules a repaint on the next Tick.
func (e *Editor) RequestRender() { e.needsRender = true }

func (e *Editor) NeedsRender() bool { return e.needsRender }

// Tick repaints once if anything changed since the last Tick. It reports
// whether paint was called.
func (e *Editor) Tick(paint func([]render.DrawCommand)) bool {
	if !e.needsRender {
		return false
	}
	e.needsRender = false
	if paint != nil {
		paint(e.Commands())
	}
	return true
}

// Commands compiles the current document without touching the repaint flag.
func (e *Editor) Commands() []render.DrawCommand {
	return render.Compile(e.doc.Objects, e.viewport, e.opts.Measurer)
}

func (e *Editor) Viewport() geom.Viewport { return e.viewport }

func (e *Editor) SetViewport(vp geom.Viewport) {
	if vp.Zoom <= 0 {
		vp.Zoom = 1
	}
	e.viewport = vp
	e.needsRender = true
}

// ZoomAt zooms keeping the document point under the screen anchor fixed.
func (e *Editor) ZoomAt(anchor geom.Point, zoom float64) {
	e.SetViewport(e.viewport.ZoomAt(anchor, zoom))
}

// --- Images ---

// PendingImage is an image whose natural size is not known yet.
type PendingImage struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

// PendingImages lists images a loader still has to measure.
func (e *Editor) PendingImages() []PendingImage {
	var out []PendingImage
	e.doc.Walk(func(o document.Object) bool {
		if img, ok := o.(*document.Image); ok && !img.Loaded() && img.Src != "" {
			out = append(out, PendingImage{ID: img.ID, Src: img.Src})
		}
		return true
	})
	return out
}

// ImageLoaded records an image's natural size once an asynchronous load
// completes and schedules a repaint. It is not an undoable edit.
func (e *Editor) ImageLoaded(id string, width, height float64) bool {
	img, ok := e.doc.Find(id).(*document.Image)
	if !ok || width <= 0 || height <= 0 {
		return false
	}
	img.NaturalWidth, img.NaturalHeight = width, height
	e.needsRender = true
	return true
}
