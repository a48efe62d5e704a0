// Package history keeps bounded undo and redo stacks of document snapshots.
//
// Entries are stored JSON-encoded, which makes every push and pop a deep
// copy: later edits to a live document can never reach into history.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/design/internal/document"
)

const DefaultMaxSize = 100

type History struct {
	maxSize  int
	undo     [][]byte
	redo     [][]byte
	applying bool
}

// New returns a history holding at most maxSize entries per stack. A
// non-positive size selects DefaultMaxSize.
func New(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{maxSize: maxSize}
}

func encode(s document.Snapshot) ([]byte, error) {
	if s.Objects == nil {
		s.Objects = []document.ObjectData{}
	}
	if s.SelectedIDs == nil {
		s.SelectedIDs = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func decode(b []byte) (document.Snapshot, error) {
	var s document.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return document.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

func (h *History) pushBounded(stack [][]byte, entry []byte) [][]byte {
	stack = append(stack, entry)
	if over := len(stack) - h.maxSize; over > 0 {
		clear(stack[:over])
		stack = stack[over:]
	}
	return stack
}

// Push records state as the newest undo entry and clears redo. It does
// nothing while a restored snapshot is being applied.
func (h *History) Push(state document.Snapshot) error {
	if h.applying {
		return nil
	}
	b, err := encode(state)
	if err != nil {
		return err
	}
	h.redo = nil
	h.undo = h.pushBounded(h.undo, b)
	return nil
}

// Undo pops the newest undo entry. current is saved for Redo. It reports
// false when there is nothing to undo.
func (h *History) Undo(current document.Snapshot) (document.Snapshot, bool, error) {
	if len(h.undo) == 0 {
		return document.Snapshot{}, false, nil
	}
	cur, err := encode(current)
	if err != nil {
		return document.Snapshot{}, false, err
	}
	top := h.undo[len(h.undo)-1]
	s, err := decode(top)
	if err != nil {
		return document.Snapshot{}, false, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = h.pushBounded(h.redo, cur)
	return s, true, nil
}

// Redo pops the newest redo entry. Unlike a plain pop-only redo it also
// pushes current onto the undo stack, without clearing redo, so undo and
// redo can alternate freely.
func (h *History) Redo(current document.Snapshot) (document.Snapshot, bool, error) {
	if len(h.redo) == 0 {
		return document.Snapshot{}, false, nil
	}
	cur, err := encode(current)
	if err != nil {
		return document.Snapshot{}, false, err
	}
	top := h.redo[len(h.redo)-1]
	s, err := decode(top)
	if err != nil {
		return document.Snapshot{}, false, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = h.pushBounded(h.undo, cur)
	return s, true, nil
}

// BeginApply marks the start of restoring a snapshot. Pushes are dropped
// until EndApply.
func (h *History) BeginApply() { h.applying = true }

func (h *History) EndApply() { h.applying = false }

func (h *History) Applying() bool { return h.applying }

// Apply runs fn with pushes suppressed.
func (h *History) Apply(fn func() error) error {
	h.BeginApply()
	defer h.EndApply()
	return fn()
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
func (h *History) UndoLen() int  { return len(h.undo) }
func (h *History) RedoLen() int  { return len(h.redo) }
func (h *History) MaxSize() int  { return h.maxSize }

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
