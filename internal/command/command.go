// Package command maps serialized client commands onto editor operations.
// The websocket session and the wasm bridge share it.
package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/design/internal/boolean"
	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/editor"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/selection"
)

// Names accepted in Command.Op.
const (
	OpCreate          = "create"
	OpRemove          = "remove"
	OpMove            = "move"
	OpNudge           = "nudge"
	OpSetBounds       = "setBounds"
	OpResize          = "resize"
	OpRotate          = "rotate"
	OpSetProperties   = "setProperties"
	OpDuplicate       = "duplicate"
	OpGroup           = "group"
	OpUngroup         = "ungroup"
	OpAlign           = "align"
	OpDistribute      = "distribute"
	OpBringToFront    = "bringToFront"
	OpSendToBack      = "sendToBack"
	OpBoolean         = "boolean"
	OpCreateComponent = "createComponent"
	OpCreateInstance  = "createInstance"
	OpDetach          = "detach"
	OpAddToContainer  = "addToContainer"
	OpSelect          = "select"
	OpSelectAt        = "selectAt"
	OpSelectInRect    = "selectInRect"
	OpUndo            = "undo"
	OpRedo            = "redo"
	OpViewport        = "viewport"
	OpZoomAt          = "zoomAt"
	OpSave            = "save"
)

// Command is one editor operation as sent by a client. Which fields
// matter depends on Op.
type Command struct {
	ID  string   `json:"id"`
	Op  string   `json:"op"`
	IDs []string `json:"ids,omitempty"`

	ObjectID    string          `json:"objectId,omitempty"`
	Object      json.RawMessage `json:"object,omitempty"`
	ComponentID string          `json:"componentId,omitempty"`
	ContainerID string          `json:"containerId,omitempty"`
	Index       int             `json:"index,omitempty"`

	DX         float64 `json:"dx,omitempty"`
	DY         float64 `json:"dy,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Degrees    float64 `json:"degrees,omitempty"`
	Zoom       float64 `json:"zoom,omitempty"`
	Large      bool    `json:"large,omitempty"`
	Additive   bool    `json:"additive,omitempty"`
	KeepAspect bool    `json:"keepAspect,omitempty"`
	Screen     bool    `json:"screen,omitempty"`

	Rect     *geom.Rect     `json:"rect,omitempty"`
	Viewport *geom.Viewport `json:"viewport,omitempty"`
	Handle   string         `json:"handle,omitempty"`

	Properties map[string]any `json:"properties,omitempty"`
	Alignment  string         `json:"alignment,omitempty"`
	Axis       string         `json:"axis,omitempty"`
	Boolean    string         `json:"boolean,omitempty"`
}

// State is the part of the editor a client mirrors.
type State struct {
	Selection []string      `json:"selection"`
	CanUndo   bool          `json:"canUndo"`
	CanRedo   bool          `json:"canRedo"`
	Modified  bool          `json:"modified"`
	Viewport  geom.Viewport `json:"viewport"`
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadCommand     = errors.New("malformed command")
)

// Result carries what a command produced beyond the edit itself.
type Result struct {
	// Created is set by commands that make a new object.
	Created string
	// Hit is set by selectAt.
	Hit string
}

// Apply runs one command against e. The caller serializes access to e.
// OpSave is not handled here; persistence belongs to the caller.
func Apply(e *editor.Editor, cmd Command) (Result, error) {
	var out Result
	switch cmd.Op {
	case OpCreate:
		if len(cmd.Object) == 0 {
			return out, fmt.Errorf("%s: missing object: %w", cmd.Op, ErrBadCommand)
		}
		o := document.DecodeObject(cmd.Object)
		if _, ok := o.(*document.Unknown); ok {
			return out, fmt.Errorf("%s: unrecognized object: %w", cmd.Op, ErrBadCommand)
		}
		if err := e.CommitCreated(o); err != nil {
			return out, err
		}
		out.Created = o.Common().ID
		return out, nil
	case OpRemove:
		ids := cmd.IDs
		if len(ids) == 0 {
			ids = e.SelectedIDs()
		}
		return out, e.Remove(ids...)
	case OpMove:
		return out, e.Move(cmd.DX, cmd.DY)
	case OpNudge:
		return out, e.Nudge(cmd.DX, cmd.DY, cmd.Large)
	case OpSetBounds:
		if cmd.Rect == nil {
			return out, fmt.Errorf("%s: missing rect: %w", cmd.Op, ErrBadCommand)
		}
		return out, e.SetBounds(cmd.ObjectID, *cmd.Rect)
	case OpResize:
		h, ok := selection.ParseHandle(cmd.Handle)
		if !ok || cmd.Rect == nil {
			return out, fmt.Errorf("%s: need handle and start rect: %w", cmd.Op, ErrBadCommand)
		}
		return out, e.Resize(*cmd.Rect, h, cmd.DX, cmd.DY, cmd.KeepAspect)
	case OpRotate:
		return out, e.Rotate(cmd.ObjectID, cmd.Degrees)
	case OpSetProperties:
		ids := cmd.IDs
		if len(ids) == 0 {
			ids = e.SelectedIDs()
		}
		return out, e.SetProperties(ids, cmd.Properties)
	case OpDuplicate:
		return out, e.Duplicate()
	case OpGroup:
		return out, e.Group()
	case OpUngroup:
		return out, e.Ungroup()
	case OpAlign:
		return out, e.Align(editor.Alignment(cmd.Alignment))
	case OpDistribute:
		return out, e.Distribute(editor.Axis(cmd.Axis))
	case OpBringToFront:
		return out, e.BringToFront()
	case OpSendToBack:
		return out, e.SendToBack()
	case OpBoolean:
		return out, e.Boolean(boolean.Op(cmd.Boolean))
	case OpCreateComponent:
		return out, e.CreateComponent()
	case OpCreateInstance:
		id, err := e.CreateInstance(cmd.ComponentID, cmd.X, cmd.Y)
		out.Created = id
		return out, err
	case OpDetach:
		return out, e.Detach(cmd.ObjectID)
	case OpAddToContainer:
		return out, e.AddToContainer(cmd.ObjectID, cmd.ContainerID, cmd.Index)
	case OpSelect:
		e.Select(cmd.IDs...)
		return out, nil
	case OpSelectAt:
		p := geom.Pt(cmd.X, cmd.Y)
		if cmd.Screen {
			out.Hit = e.SelectAtScreen(p, cmd.Additive)
		} else {
			out.Hit = e.SelectAt(p, cmd.Additive)
		}
		return out, nil
	case OpSelectInRect:
		if cmd.Rect == nil {
			return out, fmt.Errorf("%s: missing rect: %w", cmd.Op, ErrBadCommand)
		}
		e.SelectInRect(*cmd.Rect, cmd.Additive)
		return out, nil
	case OpUndo:
		_, err := e.Undo()
		return out, err
	case OpRedo:
		_, err := e.Redo()
		return out, err
	case OpViewport:
		if cmd.Viewport == nil {
			return out, fmt.Errorf("%s: missing viewport: %w", cmd.Op, ErrBadCommand)
		}
		e.SetViewport(*cmd.Viewport)
		return out, nil
	case OpZoomAt:
		e.ZoomAt(geom.Pt(cmd.X, cmd.Y), cmd.Zoom)
		return out, nil
	}
	return out, fmt.Errorf("%q: %w", cmd.Op, ErrUnknownCommand)
}

// StateOf snapshots the editor state a client mirrors.
func StateOf(e *editor.Editor) State {
	sel := e.SelectedIDs()
	if sel == nil {
		sel = []string{}
	}
	return State{
		Selection: sel,
		CanUndo:   e.CanUndo(),
		CanRedo:   e.CanRedo(),
		Modified:  e.Modified(),
		Viewport:  e.Viewport(),
	}
}
