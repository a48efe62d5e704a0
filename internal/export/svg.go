package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/render"
)

// WriteSVG writes draw commands as a standalone SVG document of the given
// pixel size. save/restore pairs become nested groups and clip ops become
// clipPath references on them.
func WriteSVG(w io.Writer, cmds []render.DrawCommand, width, height int) error {
	s := &svgWriter{w: bufio.NewWriter(w)}
	s.printf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", width, height, width, height)
	for _, cmd := range cmds {
		s.command(cmd)
	}
	for range s.depth {
		s.printf("</g>\n")
	}
	s.printf("</svg>\n")
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

type svgWriter struct {
	w     *bufio.Writer
	err   error
	depth int
	ids   int
	// open counts, per save, the clip groups opened inside it.
	open []int
}

func (s *svgWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *svgWriter) nextID(prefix string) string {
	s.ids++
	return prefix + strconv.Itoa(s.ids)
}

func (s *svgWriter) command(cmd render.DrawCommand) {
	switch cmd.Op {
	case render.OpSave:
		s.printf("<g>\n")
		s.depth++
		s.open = append(s.open, 0)
	case render.OpRestore:
		if len(s.open) == 0 {
			return
		}
		n := s.open[len(s.open)-1] + 1
		s.open = s.open[:len(s.open)-1]
		for range n {
			s.printf("</g>\n")
		}
		s.depth -= n
	case render.OpClip:
		id := s.nextID("clip")
		s.printf(`<clipPath id="%s"><path d="%s" transform="%s"/></clipPath>`+"\n", id, pathData(cmd.Path), matrixAttr(cmd.Transform))
		s.printf(`<g clip-path="url(#%s)">`+"\n", id)
		s.depth++
		if len(s.open) > 0 {
			s.open[len(s.open)-1]++
		}
	case render.OpPath:
		s.path(cmd)
	case render.OpText:
		s.text(cmd)
	case render.OpImage:
		s.image(cmd)
	}
}

func (s *svgWriter) path(cmd render.DrawCommand) {
	fill := "none"
	if cmd.Gradient != nil && cmd.Box != nil {
		fill = "url(#" + s.gradient(cmd.Gradient, *cmd.Box) + ")"
	} else if cmd.Fill != "" {
		fill = attr(cmd.Fill)
	}
	s.printf(`<path id="%s" d="%s" transform="%s" fill="%s"`, attr(cmd.ObjectID), pathData(cmd.Path), matrixAttr(cmd.Transform), fill)
	if fill != "none" && cmd.FillOpacity < 1 {
		s.printf(` fill-opacity="%s"`, num(cmd.FillOpacity))
	}
	if cmd.Stroke != "" && cmd.StrokeWidth > 0 {
		s.printf(` stroke="%s" stroke-width="%s"`, attr(cmd.Stroke), num(cmd.StrokeWidth))
		if cmd.StrokeOpacity < 1 {
			s.printf(` stroke-opacity="%s"`, num(cmd.StrokeOpacity))
		}
	}
	s.common(cmd)
	s.printf("/>\n")
}

func (s *svgWriter) text(cmd render.DrawCommand) {
	family := cmd.FontFamily
	if family == "" {
		family = "sans-serif"
	}
	s.printf(`<text id="%s" transform="%s" font-family="%s" font-size="%s" fill="%s"`,
		attr(cmd.ObjectID), matrixAttr(cmd.Transform), attr(family), num(cmd.FontSize), attr(cmd.Fill))
	if cmd.FontWeight != "" {
		s.printf(` font-weight="%s"`, attr(cmd.FontWeight))
	}
	if cmd.FontStyle != "" {
		s.printf(` font-style="%s"`, attr(cmd.FontStyle))
	}
	s.common(cmd)
	s.printf(">")
	for _, line := range cmd.Lines {
		s.printf(`<tspan x="%s" y="%s" dominant-baseline="text-before-edge">%s</tspan>`, num(line.X), num(line.Y), attr(line.Text))
	}
	s.printf("</text>\n")
}

func (s *svgWriter) image(cmd render.DrawCommand) {
	if cmd.Dest == nil {
		return
	}
	href := cmd.ImageSrc
	if cmd.ImageData != "" {
		href = cmd.ImageData
	}
	s.printf(`<image id="%s" transform="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" xlink:href="%s"`,
		attr(cmd.ObjectID), matrixAttr(cmd.Transform),
		num(cmd.Dest.X), num(cmd.Dest.Y), num(cmd.Dest.Width), num(cmd.Dest.Height), attr(href))
	s.common(cmd)
	s.printf("/>\n")
}

func (s *svgWriter) common(cmd render.DrawCommand) {
	if cmd.Opacity < 1 {
		s.printf(` opacity="%s"`, num(cmd.Opacity))
	}
	if cmd.BlendMode != "" {
		s.printf(` style="mix-blend-mode:%s"`, attr(cmd.BlendMode))
	}
}

// gradient writes a gradient definition in user space of the command's
// local box and returns its id.
func (s *svgWriter) gradient(g *document.Gradient, box geom.Rect) string {
	id := s.nextID("grad")
	if g.Type == document.GradientRadial {
		r := g.Radius * math.Max(box.Width, box.Height)
		s.printf(`<defs><radialGradient id="%s" gradientUnits="userSpaceOnUse" cx="%s" cy="%s" r="%s">`,
			id, num(box.X+g.CenterX*box.Width), num(box.Y+g.CenterY*box.Height), num(r))
		s.stops(g.Stops)
		s.printf("</radialGradient></defs>\n")
		return id
	}
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	half := (math.Abs(box.Width*dx) + math.Abs(box.Height*dy)) / 2
	c := box.Center()
	s.printf(`<defs><linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%s" y1="%s" x2="%s" y2="%s">`,
		id, num(c.X-dx*half), num(c.Y-dy*half), num(c.X+dx*half), num(c.Y+dy*half))
	s.stops(g.Stops)
	s.printf("</linearGradient></defs>\n")
	return id
}

func (s *svgWriter) stops(stops []document.GradientStop) {
	for _, st := range stops {
		op := st.Opacity
		if op <= 0 {
			op = 1
		}
		s.printf(`<stop offset="%s" stop-color="%s" stop-opacity="%s"/>`, num(st.Offset), attr(st.Color), num(op))
	}
}

// pathData converts path commands to SVG path syntax; the verbs are the
// same letters.
func pathData(path []render.PathCommand) string {
	var b strings.Builder
	for i, pc := range path {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(pc.Verb())
		for _, a := range pc.Args() {
			b.WriteByte(' ')
			b.WriteString(num(a))
		}
	}
	return b.String()
}

func matrixAttr(t []float64) string {
	if len(t) != 6 {
		return ""
	}
	parts := make([]string, 6)
	for i, v := range t {
		parts[i] = num(v)
	}
	return "matrix(" + strings.Join(parts, " ") + ")"
}

func num(f float64) string {
	r := math.Round(f*1000) / 1000
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func attr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
