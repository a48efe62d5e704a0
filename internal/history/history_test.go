package history

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/inamate/design/internal/document"
)

func snap(ids ...string) document.Snapshot {
	return document.Snapshot{Objects: []document.ObjectData{}, SelectedIDs: ids}
}

func TestBound(t *testing.T) {
	h := New(10)
	for i := range 13 {
		if err := h.Push(snap(fmt.Sprint(i))); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	if h.UndoLen() != 10 {
		t.Fatalf("UndoLen() = %d, want 10", h.UndoLen())
	}
	var last document.Snapshot
	for h.CanUndo() {
		s, ok, err := h.Undo(snap())
		if err != nil || !ok {
			t.Fatalf("Undo() = %v, %v", ok, err)
		}
		last = s
	}
	if last.SelectedIDs[0] != "3" {
		t.Errorf("oldest surviving entry = %v, want 3", last.SelectedIDs)
	}
}

func TestDefaultSize(t *testing.T) {
	h := New(0)
	for range DefaultMaxSize + 5 {
		_ = h.Push(snap())
	}
	if h.UndoLen() != DefaultMaxSize {
		t.Errorf("UndoLen() = %d, want %d", h.UndoLen(), DefaultMaxSize)
	}
}

func TestUndoEmpty(t *testing.T) {
	h := New(5)
	if _, ok, err := h.Undo(snap()); ok || err != nil {
		t.Errorf("Undo() on empty history = %v, %v", ok, err)
	}
	if _, ok, err := h.Redo(snap()); ok || err != nil {
		t.Errorf("Redo() on empty history = %v, %v", ok, err)
	}
	if h.RedoLen() != 0 {
		t.Errorf("empty Undo() should not record current")
	}
}

func TestUndoRedoRestoresExactState(t *testing.T) {
	doc := document.NewSampleDocument()
	before := document.Snapshot{Objects: document.SerializeAll(doc.Objects), SelectedIDs: []string{"a"}}
	want, _ := json.Marshal(before)

	h := New(5)
	_ = h.Push(snap())
	prev, ok, err := h.Undo(before)
	if err != nil || !ok {
		t.Fatalf("Undo() = %v, %v", ok, err)
	}
	restored, ok, err := h.Redo(prev)
	if err != nil || !ok {
		t.Fatalf("Redo() = %v, %v", ok, err)
	}
	got, _ := json.Marshal(restored)
	if string(got) != string(want) {
		t.Errorf("undo then redo changed the state\n got %s\nwant %s", got, want)
	}
	if h.UndoLen() != 1 || h.RedoLen() != 0 {
		t.Errorf("stacks = %d/%d, want 1/0", h.UndoLen(), h.RedoLen())
	}
}

func TestPushClearsRedo(t *testing.T) {
	h := New(5)
	_ = h.Push(snap("1"))
	_, _, _ = h.Undo(snap("2"))
	if !h.CanRedo() {
		t.Fatalf("Undo() did not record the current state")
	}
	_ = h.Push(snap("3"))
	if h.CanRedo() {
		t.Errorf("Push() kept the redo stack")
	}
}

func TestPushDroppedWhileApplying(t *testing.T) {
	h := New(5)
	err := h.Apply(func() error {
		if !h.Applying() {
			t.Errorf("Applying() = false inside Apply")
		}
		return h.Push(snap("x"))
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if h.UndoLen() != 0 {
		t.Errorf("push during apply was recorded")
	}
	if h.Applying() {
		t.Errorf("gate left closed after Apply")
	}
}

func TestEntriesAreCopies(t *testing.T) {
	h := New(5)
	s := snap("keep")
	_ = h.Push(s)
	s.SelectedIDs[0] = "mutated"
	got, _, _ := h.Undo(snap())
	if got.SelectedIDs[0] != "keep" {
		t.Errorf("history entry aliased the caller's snapshot: %v", got.SelectedIDs)
	}
}
