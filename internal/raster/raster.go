// Package raster executes render draw commands on a gogpu/gg software
// canvas. It is the server-side counterpart of the browser's Canvas2D
// backend and is used for PNG export and thumbnails.
package raster

import (
	"fmt"
	"image"
	"io"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/render"
)

// ascent is the baseline offset from the top of a line box, as a fraction
// of the font size.
const ascent = 0.8

// Images resolves an image command's source to a decoded bitmap.
type Images interface {
	Image(src string) (image.Image, bool)
}

// ImageMap is an Images backed by a map keyed by source.
type ImageMap map[string]image.Image

func (m ImageMap) Image(src string) (image.Image, bool) {
	img, ok := m[src]
	return img, ok
}

// Options control a Draw call.
type Options struct {
	// Background fills the canvas first. Empty leaves it transparent.
	Background string
	Images     Images
}

var (
	fontOnce sync.Once
	fontSrc  *text.FontSource
	fontErr  error
)

func regular() (*text.FontSource, error) {
	fontOnce.Do(func() {
		fontSrc, fontErr = text.NewFontSource(goregular.TTF)
	})
	return fontSrc, fontErr
}

type painter struct {
	dc     *gg.Context
	images Images
	faces  map[float64]text.Face
	layers []bool
}

// Draw paints cmds onto a new width×height canvas.
func Draw(cmds []render.DrawCommand, width, height int, opts Options) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid canvas size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	if opts.Background != "" {
		dc.ClearWithColor(gg.Hex(opts.Background))
	}
	p := &painter{dc: dc, images: opts.Images, faces: make(map[float64]text.Face)}
	for i, cmd := range cmds {
		if err := p.exec(cmd); err != nil {
			dc.Close()
			return nil, fmt.Errorf("raster: command %d (%s): %w", i, cmd.Op, err)
		}
	}
	return dc, nil
}

// EncodePNG draws cmds and writes the result as PNG.
func EncodePNG(w io.Writer, cmds []render.DrawCommand, width, height int, opts Options) error {
	dc, err := Draw(cmds, width, height, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

func (p *painter) exec(cmd render.DrawCommand) error {
	switch cmd.Op {
	case render.OpSave:
		p.dc.Push()
	case render.OpRestore:
		p.dc.Pop()
	case render.OpClip:
		p.dc.SetTransform(matrix(cmd.Transform))
		trace(p.dc, cmd.Path)
		p.dc.Clip()
	case render.OpPath:
		return p.path(cmd)
	case render.OpText:
		return p.text(cmd)
	case render.OpImage:
		p.image(cmd)
	}
	return nil
}

func (p *painter) path(cmd render.DrawCommand) error {
	m := matrix(cmd.Transform)
	p.beginLayer(cmd)
	defer p.endLayer()

	p.dc.SetTransform(m)
	if cmd.Fill != "" || cmd.Gradient != nil {
		trace(p.dc, cmd.Path)
		p.dc.SetFillBrush(fillBrush(cmd, m))
		if err := p.dc.Fill(); err != nil {
			return err
		}
	}
	if cmd.Stroke != "" && cmd.StrokeWidth > 0 {
		trace(p.dc, cmd.Path)
		p.dc.SetStrokeBrush(gg.Solid(rgba(cmd.Stroke, cmd.StrokeOpacity)))
		p.dc.SetLineWidth(cmd.StrokeWidth * scaleOf(m))
		if err := p.dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func (p *painter) text(cmd render.DrawCommand) error {
	m := matrix(cmd.Transform)
	size := cmd.FontSize * scaleOf(m)
	if size <= 0 || len(cmd.Lines) == 0 {
		return nil
	}
	face, err := p.face(size)
	if err != nil {
		return err
	}
	p.beginLayer(cmd)
	defer p.endLayer()

	p.dc.SetFont(face)
	p.dc.SetColor(rgba(cmd.Fill, cmd.FillOpacity).Color())
	for _, line := range cmd.Lines {
		at := m.TransformPoint(gg.Pt(line.X, line.Y+cmd.FontSize*ascent))
		p.dc.DrawString(line.Text, at.X, at.Y)
	}
	return nil
}

func (p *painter) face(size float64) (text.Face, error) {
	if f, ok := p.faces[size]; ok {
		return f, nil
	}
	src, err := regular()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	f := src.Face(size)
	p.faces[size] = f
	return f, nil
}

// image draws the bitmap into the device-space box of Dest. Rotated images
// land in their axis-aligned hull.
func (p *painter) image(cmd render.DrawCommand) {
	if cmd.Dest == nil || p.images == nil {
		return
	}
	src := cmd.ImageSrc
	if src == "" {
		src = cmd.ImageData
	}
	img, ok := p.images.Image(src)
	if !ok {
		return
	}
	box := geom.Matrix2D(toArray(cmd.Transform)).TransformRect(*cmd.Dest)
	opacity := cmd.Opacity
	if opacity <= 0 {
		return
	}
	p.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         box.X,
		Y:         box.Y,
		DstWidth:  box.Width,
		DstHeight: box.Height,
		Opacity:   opacity,
	})
}

// beginLayer isolates commands with partial opacity or a blend mode so
// they composite as one unit.
func (p *painter) beginLayer(cmd render.DrawCommand) {
	mode, blended := blendModes[cmd.BlendMode]
	alpha := cmd.Opacity
	if !blended && alpha >= 1 {
		p.layers = append(p.layers, false)
		return
	}
	if !blended {
		mode = gg.BlendNormal
	}
	p.dc.PushLayer(mode, alpha)
	p.layers = append(p.layers, true)
}

func (p *painter) endLayer() {
	n := len(p.layers) - 1
	if p.layers[n] {
		p.dc.PopLayer()
	}
	p.layers = p.layers[:n]
}

var blendModes = map[string]gg.BlendMode{
	string(document.BlendMultiply): gg.BlendMultiply,
	string(document.BlendScreen):   gg.BlendScreen,
	string(document.BlendOverlay):  gg.BlendOverlay,
}

func fillBrush(cmd render.DrawCommand, m gg.Matrix) gg.Brush {
	g := cmd.Gradient
	if g == nil || cmd.Box == nil || len(g.Stops) == 0 {
		return gg.Solid(rgba(cmd.Fill, cmd.FillOpacity))
	}
	box := *cmd.Box
	c := box.Center()
	switch g.Type {
	case document.GradientRadial:
		center := m.TransformPoint(gg.Pt(box.X+g.CenterX*box.Width, box.Y+g.CenterY*box.Height))
		r := g.Radius * math.Max(box.Width, box.Height) * scaleOf(m)
		b := gg.NewRadialGradientBrush(center.X, center.Y, 0, r)
		for _, s := range g.Stops {
			b.AddColorStop(s.Offset, stopColor(s, cmd.FillOpacity))
		}
		return b
	default:
		rad := g.Angle * math.Pi / 180
		dx, dy := math.Cos(rad), math.Sin(rad)
		half := (math.Abs(box.Width*dx) + math.Abs(box.Height*dy)) / 2
		from := m.TransformPoint(gg.Pt(c.X-dx*half, c.Y-dy*half))
		to := m.TransformPoint(gg.Pt(c.X+dx*half, c.Y+dy*half))
		b := gg.NewLinearGradientBrush(from.X, from.Y, to.X, to.Y)
		for _, s := range g.Stops {
			b.AddColorStop(s.Offset, stopColor(s, cmd.FillOpacity))
		}
		return b
	}
}

// stopColor treats a missing stop opacity as opaque.
func stopColor(s document.GradientStop, fillOpacity float64) gg.RGBA {
	op := s.Opacity
	if op <= 0 {
		op = 1
	}
	return rgba(s.Color, op*fillOpacity)
}

// rgba parses a hex colour and scales its alpha by opacity.
func rgba(hex string, opacity float64) gg.RGBA {
	c := gg.Hex(hex)
	c.A *= min(max(opacity, 0), 1)
	return c
}

func trace(dc *gg.Context, path []render.PathCommand) {
	for _, pc := range path {
		a := pc.Args()
		switch pc.Verb() {
		case "M":
			if len(a) >= 2 {
				dc.MoveTo(a[0], a[1])
			}
		case "L":
			if len(a) >= 2 {
				dc.LineTo(a[0], a[1])
			}
		case "Q":
			if len(a) >= 4 {
				dc.QuadraticTo(a[0], a[1], a[2], a[3])
			}
		case "C":
			if len(a) >= 6 {
				dc.CubicTo(a[0], a[1], a[2], a[3], a[4], a[5])
			}
		case "Z":
			dc.ClosePath()
		}
	}
}

// matrix converts the Canvas2D [a b c d e f] layout to gg's row-major form.
func matrix(t []float64) gg.Matrix {
	m := toArray(t)
	return gg.Matrix{A: m[0], B: m[2], C: m[4], D: m[1], E: m[3], F: m[5]}
}

func toArray(t []float64) [6]float64 {
	if len(t) != 6 {
		return [6]float64(geom.Identity())
	}
	return [6]float64(t)
}

// scaleOf is the uniform scale factor of m.
func scaleOf(m gg.Matrix) float64 {
	return math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
}
