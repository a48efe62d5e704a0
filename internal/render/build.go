// Package render turns the document tree into a flat list of draw commands
// a drawing backend can execute without knowing the object model.
package render

import (
	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/typeset"
)

// kappa is the cubic bezier control distance for a quarter ellipse:
// 4 * (sqrt(2) - 1) / 3.
const kappa = 0.5522847498

// maxInstanceDepth bounds instance-in-master nesting.
const maxInstanceDepth = 16

// PlaceholderFill paints images that have no source yet.
const PlaceholderFill = "#E5E5E5"

type compiler struct {
	measurer typeset.Measurer
	commands []DrawCommand
}

// Compile generates the draw command buffer for objects under viewport vp.
// Commands are in painter's order (back to front). A nil measurer uses the
// bundled Go font.
func Compile(objects []document.Object, vp geom.Viewport, m typeset.Measurer) []DrawCommand {
	if m == nil {
		if f, err := typeset.Default(); err == nil {
			m = f
		} else {
			m = approxMeasurer{}
		}
	}
	c := &compiler{measurer: m}
	root := vp.Matrix()
	for _, o := range objects {
		c.node(o, root, 1, 0)
	}
	return c.commands
}

// approxMeasurer assumes an average glyph is half the font size wide.
type approxMeasurer struct{}

func (approxMeasurer) Measure(s string, size float64) float64 {
	return float64(len([]rune(s))) * size * 0.5
}

// localTransform maps o's local space (origin at its top-left corner) to
// the space parent maps from, rotating about o's center.
func localTransform(o document.Object, parent geom.Matrix2D) geom.Matrix2D {
	r := o.Bounds()
	rot := o.Common().Rotation()
	return parent.Multiply(geom.RotateAbout(rot, r.Center())).Multiply(geom.Translate(r.X, r.Y))
}

func (c *compiler) emit(cmd DrawCommand) { c.commands = append(c.commands, cmd) }

func (c *compiler) node(o document.Object, parent geom.Matrix2D, opacity float64, depth int) {
	if o == nil || !o.IsVisible() {
		return
	}
	b := o.Common()
	r := o.Bounds()
	world := localTransform(o, parent)
	alpha := opacity * b.Opacity

	switch v := o.(type) {
	case *document.Rectangle:
		c.paint(o, world, alpha, roundedRectPath(r.Width, r.Height, v.CornerRadius))
	case *document.Ellipse:
		c.paint(o, world, alpha, ellipsePath(r.Width, r.Height))
	case *document.Line:
		cmd := c.shape(o, world, alpha, []PathCommand{
			moveTo(v.X1-r.X, v.Y1-r.Y),
			lineTo(v.X2-r.X, v.Y2-r.Y),
		})
		cmd.Fill, cmd.Gradient, cmd.Box = "", nil, nil
		c.emit(cmd)
	case *document.Path:
		c.paint(o, world, alpha, pointsPath(v.Points(), v.Closed, r.X, r.Y))
	case *document.Text:
		c.text(v, world, alpha)
	case *document.Image:
		c.image(v, world, alpha)
	case *document.Frame:
		c.paint(o, world, alpha, rectPath(r.Width, r.Height))
		c.container(o, v.Children(), world, parent, alpha, v.ClipContent, depth)
	case *document.Component:
		c.paint(o, world, alpha, rectPath(r.Width, r.Height))
		c.container(o, v.Children(), world, parent, alpha, false, depth)
	case *document.Group:
		for _, child := range v.Children() {
			c.node(child, parent, alpha, depth)
		}
	case *document.Instance:
		c.paint(o, world, alpha, rectPath(r.Width, r.Height))
		c.instance(v, world, alpha, depth)
	}
}

// container draws children in document space, optionally clipped to the
// container's box.
func (c *compiler) container(o document.Object, children []document.Object, world, parent geom.Matrix2D, alpha float64, clip bool, depth int) {
	if len(children) == 0 {
		return
	}
	r := o.Bounds()
	if clip {
		c.emit(DrawCommand{Op: OpSave})
		c.emit(DrawCommand{Op: OpClip, ObjectID: o.Common().ID, Transform: world.ToSlice(), Path: rectPath(r.Width, r.Height)})
	}
	for _, child := range children {
		c.node(child, parent, alpha, depth)
	}
	if clip {
		c.emit(DrawCommand{Op: OpRestore})
	}
}

// instance draws the master's children mapped from the master's box onto
// the instance's box.
func (c *compiler) instance(i *document.Instance, world geom.Matrix2D, alpha float64, depth int) {
	m := i.Master()
	if m == nil || depth >= maxInstanceDepth {
		return
	}
	children := m.Children()
	if len(children) == 0 {
		return
	}
	ir, mr := i.Bounds(), m.Bounds()
	sx, sy := 1.0, 1.0
	if mr.Width > 0 {
		sx = ir.Width / mr.Width
	}
	if mr.Height > 0 {
		sy = ir.Height / mr.Height
	}
	// world maps instance-local space; master children live in document space
	mapping := world.Multiply(geom.Scale(sx, sy)).Multiply(geom.Translate(-mr.X, -mr.Y))

	c.emit(DrawCommand{Op: OpSave})
	c.emit(DrawCommand{Op: OpClip, ObjectID: i.ID, Transform: world.ToSlice(), Path: rectPath(ir.Width, ir.Height)})
	for _, child := range children {
		c.node(child, mapping, alpha, depth+1)
	}
	c.emit(DrawCommand{Op: OpRestore})
}

func (c *compiler) shape(o document.Object, world geom.Matrix2D, alpha float64, path []PathCommand) DrawCommand {
	b := o.Common()
	cmd := DrawCommand{
		Op:            OpPath,
		ObjectID:      b.ID,
		Transform:     world.ToSlice(),
		Path:          path,
		Fill:          b.Fill,
		FillOpacity:   b.FillOpacity,
		Stroke:        b.Stroke,
		StrokeWidth:   b.StrokeWidth,
		StrokeOpacity: b.StrokeOpacity,
		Opacity:       alpha,
		Blur:          b.Blur,
		Shadows:       b.Shadows,
	}
	if b.BlendMode != "" && b.BlendMode != document.BlendNormal {
		cmd.BlendMode = string(b.BlendMode)
	}
	if b.Gradient != nil {
		r := o.Bounds()
		cmd.Gradient = b.Gradient
		cmd.Box = &geom.Rect{Width: r.Width, Height: r.Height}
	}
	if cmd.Stroke == "" {
		cmd.StrokeWidth = 0
	}
	return cmd
}

func (c *compiler) paint(o document.Object, world geom.Matrix2D, alpha float64, path []PathCommand) {
	b := o.Common()
	if b.Fill == "" && b.Gradient == nil && (b.Stroke == "" || b.StrokeWidth <= 0) {
		return
	}
	c.emit(c.shape(o, world, alpha, path))
}

func (c *compiler) text(t *document.Text, world geom.Matrix2D, alpha float64) {
	r := t.Bounds()
	size := t.FontSize
	if size <= 0 {
		size = 16
	}
	lh := t.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	wrapped := typeset.Wrap(t.Text, r.Width, size, c.measurer)
	lines := make([]TextLine, 0, len(wrapped))
	for i, s := range wrapped {
		x := 0.0
		switch t.TextAlign {
		case "center":
			x = (r.Width - c.measurer.Measure(s, size)) / 2
		case "right":
			x = r.Width - c.measurer.Measure(s, size)
		}
		lines = append(lines, TextLine{Text: s, X: x, Y: float64(i) * size * lh})
	}
	cmd := c.shape(t, world, alpha, nil)
	cmd.Op = OpText
	cmd.Lines = lines
	cmd.FontFamily = t.FontFamily
	cmd.FontSize = size
	cmd.FontWeight = t.FontWeight
	cmd.FontStyle = t.FontStyle
	c.emit(cmd)
}

func (c *compiler) image(img *document.Image, world geom.Matrix2D, alpha float64) {
	r := img.Bounds()
	box := geom.Rect{Width: r.Width, Height: r.Height}
	if img.Src == "" && img.ImageData == "" {
		cmd := c.shape(img, world, alpha, rectPath(r.Width, r.Height))
		cmd.Fill = PlaceholderFill
		c.emit(cmd)
		return
	}
	dest := box
	if img.Loaded() {
		dest = FitImage(box, geom.Pt(img.NaturalWidth, img.NaturalHeight), img.Fit)
	}
	overflow := dest.X < 0 || dest.Y < 0 || dest.Right() > box.Width || dest.Bottom() > box.Height
	if overflow {
		c.emit(DrawCommand{Op: OpSave})
		c.emit(DrawCommand{Op: OpClip, ObjectID: img.ID, Transform: world.ToSlice(), Path: rectPath(r.Width, r.Height)})
	}
	cmd := DrawCommand{
		Op:          OpImage,
		ObjectID:    img.ID,
		Transform:   world.ToSlice(),
		Opacity:     alpha,
		ImageSrc:    img.Src,
		ImageData:   img.ImageData,
		ImageWidth:  img.NaturalWidth,
		ImageHeight: img.NaturalHeight,
		Dest:        &dest,
		Shadows:     img.Shadows,
		Blur:        img.Blur,
	}
	if img.BlendMode != "" && img.BlendMode != document.BlendNormal {
		cmd.BlendMode = string(img.BlendMode)
	}
	c.emit(cmd)
	if overflow {
		c.emit(DrawCommand{Op: OpRestore})
	}
}

// FitImage returns where a bitmap of the given natural size lands inside
// box. Cover and none may overflow the box; callers clip.
func FitImage(box geom.Rect, natural geom.Point, fit document.ImageFit) geom.Rect {
	nw, nh := natural.X, natural.Y
	if nw <= 0 || nh <= 0 {
		return box
	}
	var w, h float64
	switch fit {
	case document.FitFill:
		return box
	case document.FitContain:
		s := min(box.Width/nw, box.Height/nh)
		w, h = nw*s, nh*s
	case document.FitNone:
		w, h = nw, nh
	default:
		s := max(box.Width/nw, box.Height/nh)
		w, h = nw*s, nh*s
	}
	return geom.Rect{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		moveTo(0, 0),
		lineTo(w, 0),
		lineTo(w, h),
		lineTo(0, h),
		closePath(),
	}
}

// roundedRectPath clamps radius to half the shorter side.
func roundedRectPath(w, h, radius float64) []PathCommand {
	radius = min(radius, w/2, h/2)
	if radius <= 0 {
		return rectPath(w, h)
	}
	k := radius * (1 - kappa)
	return []PathCommand{
		moveTo(radius, 0),
		lineTo(w-radius, 0),
		cubicTo(w-k, 0, w, k, w, radius),
		lineTo(w, h-radius),
		cubicTo(w, h-k, w-k, h, w-radius, h),
		lineTo(radius, h),
		cubicTo(k, h, 0, h-k, 0, h-radius),
		lineTo(0, radius),
		cubicTo(0, k, k, 0, radius, 0),
		closePath(),
	}
}

// ellipsePath approximates the ellipse inscribed in (0,0,w,h) with four
// cubic arcs.
func ellipsePath(w, h float64) []PathCommand {
	rx, ry := w/2, h/2
	cx, cy := rx, ry
	kx, ky := rx*kappa, ry*kappa
	return []PathCommand{
		moveTo(cx+rx, cy),
		cubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry),
		cubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy),
		cubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry),
		cubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy),
		closePath(),
	}
}

// pointsPath converts anchors to path commands relative to (ox, oy).
func pointsPath(points []document.PathPoint, closed bool, ox, oy float64) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	rel := func(p geom.Point) (float64, float64) { return p.X - ox, p.Y - oy }
	segment := func(from, to document.PathPoint) PathCommand {
		x, y := rel(to.Anchor())
		switch {
		case from.HandleOut != nil && to.HandleIn != nil:
			x1, y1 := rel(*from.HandleOut)
			x2, y2 := rel(*to.HandleIn)
			return cubicTo(x1, y1, x2, y2, x, y)
		case from.HandleOut != nil:
			cx, cy := rel(*from.HandleOut)
			return quadTo(cx, cy, x, y)
		case to.HandleIn != nil:
			cx, cy := rel(*to.HandleIn)
			return quadTo(cx, cy, x, y)
		}
		return lineTo(x, y)
	}

	x, y := rel(points[0].Anchor())
	out := []PathCommand{moveTo(x, y)}
	for i := 1; i < len(points); i++ {
		out = append(out, segment(points[i-1], points[i]))
	}
	if closed && len(points) > 1 {
		last := points[len(points)-1]
		if last.HandleOut != nil || points[0].HandleIn != nil {
			out = append(out, segment(last, points[0]))
		}
		out = append(out, closePath())
	}
	return out
}
