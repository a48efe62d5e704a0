package render

import (
	"encoding/json"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
)

// Draw ops.
const (
	OpPath    = "path"
	OpText    = "text"
	OpImage   = "image"
	OpSave    = "save"
	OpRestore = "restore"
	OpClip    = "clip"
)

// DrawCommand represents a single drawing operation for a backend to execute.
// Geometry is in the object's local space; Transform maps it to screen pixels.
type DrawCommand struct {
	Op        string        `json:"op"`                  // Operation: "path", "text", "image", "save", "restore", "clip"
	ObjectID  string        `json:"objectId,omitempty"`  // For hit correlation
	Transform []float64     `json:"transform,omitempty"` // [a, b, c, d, e, f] affine matrix
	Path      []PathCommand `json:"path,omitempty"`      // Path data for "path" and "clip" ops

	Fill          string             `json:"fill,omitempty"`
	FillOpacity   float64            `json:"fillOpacity,omitempty"`
	Gradient      *document.Gradient `json:"gradient,omitempty"`
	Box           *geom.Rect         `json:"box,omitempty"` // local box the gradient is relative to
	Stroke        string             `json:"stroke,omitempty"`
	StrokeWidth   float64            `json:"strokeWidth,omitempty"`
	StrokeOpacity float64            `json:"strokeOpacity,omitempty"`
	Opacity       float64            `json:"opacity,omitempty"` // Global alpha, inherited
	BlendMode     string             `json:"blendMode,omitempty"`
	Shadows       []document.Shadow  `json:"shadows,omitempty"`
	Blur          float64            `json:"blur,omitempty"`

	// Text ops. Line Y is the top of the line box.
	Lines      []TextLine `json:"lines,omitempty"`
	FontFamily string     `json:"fontFamily,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	FontWeight string     `json:"fontWeight,omitempty"`
	FontStyle  string     `json:"fontStyle,omitempty"`

	// Image ops. Dest is where the whole bitmap lands in local space.
	ImageSrc    string     `json:"imageSrc,omitempty"`
	ImageData   string     `json:"imageData,omitempty"`
	ImageWidth  float64    `json:"imageWidth,omitempty"`  // natural width
	ImageHeight float64    `json:"imageHeight,omitempty"` // natural height
	Dest        *geom.Rect `json:"dest,omitempty"`
}

type TextLine struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["Q", cx, cy, x, y],
// ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

// Verb returns the command letter.
func (c PathCommand) Verb() string {
	if len(c) == 0 {
		return ""
	}
	s, _ := c[0].(string)
	return s
}

// Args returns the numeric operands.
func (c PathCommand) Args() []float64 {
	if len(c) < 2 {
		return nil
	}
	out := make([]float64, 0, len(c)-1)
	for _, v := range c[1:] {
		out = append(out, toFloat64(v))
	}
	return out
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func moveTo(x, y float64) PathCommand { return PathCommand{"M", x, y} }
func lineTo(x, y float64) PathCommand { return PathCommand{"L", x, y} }
func quadTo(cx, cy, x, y float64) PathCommand {
	return PathCommand{"Q", cx, cy, x, y}
}
func cubicTo(x1, y1, x2, y2, x, y float64) PathCommand {
	return PathCommand{"C", x1, y1, x2, y2, x, y}
}
func closePath() PathCommand { return PathCommand{"Z"} }

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
