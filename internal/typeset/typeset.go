// Package typeset measures text and breaks it into lines. It does plain
// greedy word wrapping by advance width; there is no shaping, kerning or
// bidi support.
package typeset

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Measurer reports the advance width of s at the given font size.
type Measurer interface {
	Measure(s string, size float64) float64
}

// GoFont measures with the bundled Go Regular font. Faces are cached per
// size and safe for concurrent use.
type GoFont struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

func NewGoFont() (*GoFont, error) {
	return NewFont(goregular.TTF)
}

// NewFont parses TrueType or OpenType data.
func NewFont(data []byte) (*GoFont, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &GoFont{font: f, faces: make(map[float64]font.Face)}, nil
}

var (
	defaultFont     *GoFont
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// Default returns a shared Go Regular measurer.
func Default() (*GoFont, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = NewGoFont()
	})
	return defaultFont, defaultFontErr
}

func (g *GoFont) face(size float64) (font.Face, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(g.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	g.faces[size] = f
	return f, nil
}

func (g *GoFont) Measure(s string, size float64) float64 {
	if s == "" || size <= 0 {
		return 0
	}
	f, err := g.face(size)
	if err != nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fromFixed(font.MeasureString(f, s))
}

// Metrics returns ascent and descent at size.
func (g *GoFont) Metrics(size float64) (ascent, descent float64) {
	f, err := g.face(size)
	if err != nil {
		return size * 0.8, size * 0.2
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	m := f.Metrics()
	return fromFixed(m.Ascent), fromFixed(m.Descent)
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Wrap breaks text into lines no wider than maxWidth. Explicit newlines
// always break. Words wider than maxWidth are split between runes. A
// maxWidth of zero or less disables wrapping.
func Wrap(text string, maxWidth, size float64, m Measurer) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 {
			lines = append(lines, para)
			continue
		}
		lines = append(lines, wrapParagraph(para, maxWidth, size, m)...)
	}
	return lines
}

func wrapParagraph(para string, maxWidth, size float64, m Measurer) []string {
	words := strings.FieldsFunc(para, unicode.IsSpace)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := ""
	for _, w := range words {
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		if m.Measure(candidate, size) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		if m.Measure(w, size) <= maxWidth {
			line = w
			continue
		}
		pieces := splitWord(w, maxWidth, size, m)
		lines = append(lines, pieces[:len(pieces)-1]...)
		line = pieces[len(pieces)-1]
	}
	return append(lines, line)
}

// splitWord cuts w into runs that fit maxWidth, at least one rune each.
func splitWord(w string, maxWidth, size float64, m Measurer) []string {
	var out []string
	runes := []rune(w)
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && m.Measure(string(runes[start:end+1]), size) <= maxWidth {
			end++
		}
		out = append(out, string(runes[start:end]))
		start = end
	}
	return out
}
