// Package selection holds the geometry of the selection overlay: resize and
// rotate handles, handle hit-testing, resize math and marquee rectangles.
package selection

import (
	"math"

	"github.com/inamate/design/internal/geom"
)

// Handle sizes are in screen pixels and do not scale with zoom.
const (
	HandleSize         = 8.0
	RotateHandleOffset = 24.0
)

type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
	HandleRotate
)

var handleNames = map[Handle]string{
	HandleNone:   "none",
	HandleNW:     "nw",
	HandleN:      "n",
	HandleNE:     "ne",
	HandleE:      "e",
	HandleSE:     "se",
	HandleS:      "s",
	HandleSW:     "sw",
	HandleW:      "w",
	HandleRotate: "rotate",
}

func (h Handle) String() string { return handleNames[h] }

// ParseHandle is the inverse of String.
func ParseHandle(s string) (Handle, bool) {
	for h, name := range handleNames {
		if name == s {
			return h, true
		}
	}
	return HandleNone, false
}

func (h Handle) IsCorner() bool {
	return h == HandleNW || h == HandleNE || h == HandleSE || h == HandleSW
}

// HandleRect is one handle's square in screen space.
type HandleRect struct {
	Handle Handle    `json:"handle"`
	Rect   geom.Rect `json:"rect"`
}

// anchor returns the handle's point on the unrotated bounds in world space.
func anchor(h Handle, b geom.Rect) geom.Point {
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	switch h {
	case HandleNW:
		return geom.Pt(b.X, b.Y)
	case HandleN:
		return geom.Pt(cx, b.Y)
	case HandleNE:
		return geom.Pt(b.Right(), b.Y)
	case HandleE:
		return geom.Pt(b.Right(), cy)
	case HandleSE:
		return geom.Pt(b.Right(), b.Bottom())
	case HandleS:
		return geom.Pt(cx, b.Bottom())
	case HandleSW:
		return geom.Pt(b.X, b.Bottom())
	case HandleW:
		return geom.Pt(b.X, cy)
	}
	return geom.Pt(cx, cy)
}

// Handles returns the eight resize handles followed by the rotate handle,
// positioned on the rotated bounds and converted to screen space.
func Handles(bounds geom.Rect, rotation float64, vp geom.Viewport) []HandleRect {
	center := bounds.Center()
	square := func(world geom.Point) geom.Rect {
		s := vp.WorldToScreen(geom.RotatePoint(world, center, rotation))
		return geom.R(s.X-HandleSize/2, s.Y-HandleSize/2, HandleSize, HandleSize)
	}
	out := make([]HandleRect, 0, 9)
	for h := HandleNW; h <= HandleW; h++ {
		out = append(out, HandleRect{Handle: h, Rect: square(anchor(h, bounds))})
	}
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	top := anchor(HandleN, bounds)
	top.Y -= RotateHandleOffset / zoom
	out = append(out, HandleRect{Handle: HandleRotate, Rect: square(top)})
	return out
}

// HandleAt returns the handle under screen point p. The rotate handle wins
// over resize handles when they overlap.
func HandleAt(p geom.Point, bounds geom.Rect, rotation float64, vp geom.Viewport) (Handle, bool) {
	hs := Handles(bounds, rotation, vp)
	for i := len(hs) - 1; i >= 0; i-- {
		if hs[i].Rect.Contains(p) {
			return hs[i].Handle, true
		}
	}
	return HandleNone, false
}

// Resize moves the edges that h controls by (dx, dy) in the object's
// unrotated frame. The opposite edges stay put and sizes never go negative.
// keepAspect holds the start aspect ratio for corner handles.
func Resize(start geom.Rect, h Handle, dx, dy float64, keepAspect bool) geom.Rect {
	x0, y0, x1, y1 := start.X, start.Y, start.Right(), start.Bottom()
	left := h == HandleNW || h == HandleW || h == HandleSW
	right := h == HandleNE || h == HandleE || h == HandleSE
	top := h == HandleNW || h == HandleN || h == HandleNE
	bottom := h == HandleSW || h == HandleS || h == HandleSE

	if left {
		x0 = min(x0+dx, x1)
	}
	if right {
		x1 = max(x1+dx, x0)
	}
	if top {
		y0 = min(y0+dy, y1)
	}
	if bottom {
		y1 = max(y1+dy, y0)
	}

	if keepAspect && h.IsCorner() && start.Width > 0 && start.Height > 0 {
		aspect := start.Width / start.Height
		w, hgt := x1-x0, y1-y0
		if hgt == 0 || w/hgt > aspect {
			w = hgt * aspect
		} else {
			hgt = w / aspect
		}
		if left {
			x0 = x1 - w
		} else {
			x1 = x0 + w
		}
		if top {
			y0 = y1 - hgt
		} else {
			y1 = y0 + hgt
		}
	}
	return geom.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Marquee normalizes a drag from a to b into a rectangle.
func Marquee(a, b geom.Point) geom.Rect {
	return geom.BoundsOfPoints(a, b)
}

// AngleFrom returns the clockwise angle in degrees of p around center,
// with straight up as 0. Dragging the rotate handle maps to this angle.
func AngleFrom(center, p geom.Point) float64 {
	deg := math.Atan2(p.Y-center.Y, p.X-center.X)*180/math.Pi + 90
	return geom.NormalizeDegrees(deg)
}

// Snap rounds deg to the nearest multiple of step.
func Snap(deg, step float64) float64 {
	if step <= 0 {
		return deg
	}
	return geom.NormalizeDegrees(math.Round(deg/step) * step)
}
