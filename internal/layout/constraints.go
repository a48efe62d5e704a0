package layout

import "github.com/inamate/design/internal/geom"

// Constraint decides how one axis of a child follows its parent's resize.
type Constraint string

const (
	ConstraintStart   Constraint = "start"   // fixed distance to the left/top edge
	ConstraintEnd     Constraint = "end"     // fixed distance to the right/bottom edge
	ConstraintCenter  Constraint = "center"  // fixed offset from the parent center
	ConstraintScale   Constraint = "scale"   // position and size scale with the parent
	ConstraintStretch Constraint = "stretch" // both edges fixed, size absorbs the change
)

// Baseline is the child/parent geometry frozen by Initialize. Offsets are
// relative to the parent origin.
type Baseline struct {
	OffsetX      float64 `json:"offsetX"`
	OffsetY      float64 `json:"offsetY"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ParentWidth  float64 `json:"parentWidth"`
	ParentHeight float64 `json:"parentHeight"`
}

// Constraints pins a child to its parent. Every reprojection starts from the
// frozen Baseline, never from the previous result, so repeated resizes do
// not accumulate rounding error. Initialize again when the authored layout
// changes on purpose.
type Constraints struct {
	Horizontal Constraint `json:"horizontal"`
	Vertical   Constraint `json:"vertical"`
	Baseline   *Baseline  `json:"baseline,omitempty"`
}

// Initialize captures child's current placement inside parent.
func (c *Constraints) Initialize(child, parent geom.Rect) {
	c.Baseline = &Baseline{
		OffsetX:      child.X - parent.X,
		OffsetY:      child.Y - parent.Y,
		Width:        child.Width,
		Height:       child.Height,
		ParentWidth:  parent.Width,
		ParentHeight: parent.Height,
	}
}

// Initialized reports whether a baseline has been captured.
func (c *Constraints) Initialized() bool {
	return c != nil && c.Baseline != nil
}

// Apply returns the child's bounds for the resized parent. It reports false
// when no baseline has been captured.
func (c *Constraints) Apply(parent geom.Rect) (geom.Rect, bool) {
	if !c.Initialized() {
		return geom.Rect{}, false
	}
	b := c.Baseline
	x, w := project(c.Horizontal, b.OffsetX, b.Width, b.ParentWidth, parent.Width)
	y, h := project(c.Vertical, b.OffsetY, b.Height, b.ParentHeight, parent.Height)
	return geom.Rect{X: parent.X + x, Y: parent.Y + y, Width: w, Height: h}, true
}

// project maps one axis from the original parent extent to the new one.
func project(mode Constraint, offset, size, parentSize, newParentSize float64) (float64, float64) {
	switch mode {
	case ConstraintEnd:
		margin := parentSize - offset - size
		return newParentSize - margin - size, size
	case ConstraintCenter:
		return offset + (newParentSize-parentSize)/2, size
	case ConstraintScale:
		if parentSize == 0 {
			return offset, size
		}
		k := newParentSize / parentSize
		return offset * k, size * k
	case ConstraintStretch:
		margin := parentSize - offset - size
		return offset, max(0, newParentSize-offset-margin)
	default:
		return offset, size
	}
}
