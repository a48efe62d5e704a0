//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/design/internal/command"
	"github.com/inamate/design/internal/editor"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/render"
	"github.com/inamate/design/internal/typeset"
)

var ed *editor.Editor

func main() {
	opts := editor.Options{}
	if font, err := typeset.NewGoFont(); err == nil {
		opts.Measurer = font
	}
	ed = editor.New(opts)

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → editor) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("apply", js.FuncOf(apply))
	api.Set("imageLoaded", js.FuncOf(imageLoaded))
	api.Set("markSaved", js.FuncOf(markSaved))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← editor) ---
	api.Set("render", js.FuncOf(renderCommands))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getHandles", js.FuncOf(getHandles))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getPendingImages", js.FuncOf(getPendingImages))

	js.Global().Set("designEditor", api)
	js.Global().Set("designWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func jsonString(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(b))
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing document JSON"})
	}
	if err := ed.Load([]byte(args[0].String())); err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]any{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	ed.LoadSampleDocument()
	return js.ValueOf(map[string]any{"ok": true})
}

// apply takes a command as JSON and returns the outcome as JSON.
func apply(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing command JSON"})
	}
	var cmd command.Command
	if err := json.Unmarshal([]byte(args[0].String()), &cmd); err != nil {
		return errorResult(err)
	}
	res, err := command.Apply(ed, cmd)
	if err != nil {
		return errorResult(err)
	}
	return jsonString(struct {
		Created string `json:"created,omitempty"`
		Hit     string `json:"hit,omitempty"`
		command.State
	}{res.Created, res.Hit, command.StateOf(ed)})
}

func imageLoaded(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.ImageLoaded(args[0].String(), args[1].Float(), args[2].Float()))
}

func markSaved(this js.Value, args []js.Value) any {
	ed.MarkSaved()
	return js.Undefined()
}

// tick returns the frame's draw commands as JSON, or null when nothing
// changed since the last tick.
func tick(this js.Value, args []js.Value) any {
	var frame any = js.Null()
	ed.Tick(func(cmds []render.DrawCommand) {
		s, err := render.DrawCommandsToJSON(cmds)
		if err != nil {
			frame = errorResult(err)
			return
		}
		frame = js.ValueOf(s)
	})
	return frame
}

// --- Queries ---

func renderCommands(this js.Value, args []js.Value) any {
	s, err := render.DrawCommandsToJSON(ed.Commands())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(s)
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	p := ed.Viewport().ScreenToWorld(geom.Pt(args[0].Float(), args[1].Float()))
	// hitTest(x, y, true) reaches into groups and frames.
	if len(args) > 2 && args[2].Truthy() {
		if o := render.PickDeep(ed.Document().Objects, p, nil); o != nil {
			return js.ValueOf(o.Common().ID)
		}
		return js.ValueOf("")
	}
	return js.ValueOf(render.HitTest(ed.Document().Objects, p))
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	r, ok := ed.SelectionBounds()
	if !ok {
		return js.Null()
	}
	return jsonString(r)
}

func getHandles(this js.Value, args []js.Value) any {
	return jsonString(ed.Handles())
}

func getState(this js.Value, args []js.Value) any {
	return jsonString(command.StateOf(ed))
}

func getDocument(this js.Value, args []js.Value) any {
	b, err := ed.Encode()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(b))
}

func getPendingImages(this js.Value, args []js.Value) any {
	return jsonString(ed.PendingImages())
}
