package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/render"
)

func rectPath(x, y, w, h float64) []render.PathCommand {
	return []render.PathCommand{
		{"M", x, y}, {"L", x + w, y}, {"L", x + w, y + h}, {"L", x, y + h}, {"Z"},
	}
}

func identity() []float64 { return geom.Identity().ToSlice() }

func fill(hex string, path []render.PathCommand) render.DrawCommand {
	return render.DrawCommand{
		Op:          render.OpPath,
		Transform:   identity(),
		Path:        path,
		Fill:        hex,
		FillOpacity: 1,
		Opacity:     1,
	}
}

func rgbaAt(img image.Image, x, y int) (r, g, b, a uint8) {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B, c.A
}

func TestDraw(t *testing.T) {
	tests := []struct {
		name  string
		cmds  []render.DrawCommand
		at    image.Point
		check func(r, g, b, a uint8) bool
	}{
		{
			name:  "solid fill",
			cmds:  []render.DrawCommand{fill("#FF0000", rectPath(0, 0, 40, 40))},
			at:    image.Pt(20, 20),
			check: func(r, g, b, a uint8) bool { return r > 200 && g < 50 && b < 50 && a > 200 },
		},
		{
			name: "transform scales geometry",
			cmds: func() []render.DrawCommand {
				c := fill("#0000FF", rectPath(0, 0, 10, 10))
				c.Transform = []float64{4, 0, 0, 4, 0, 0}
				return []render.DrawCommand{c}
			}(),
			at:    image.Pt(35, 35),
			check: func(r, g, b, a uint8) bool { return b > 200 && r < 50 && a > 200 },
		},
		{
			name: "clip hides outside",
			cmds: []render.DrawCommand{
				{Op: render.OpSave},
				{Op: render.OpClip, Transform: identity(), Path: rectPath(0, 0, 20, 40)},
				fill("#00FF00", rectPath(0, 0, 40, 40)),
				{Op: render.OpRestore},
			},
			at:    image.Pt(32, 20),
			check: func(_, _, _, a uint8) bool { return a == 0 },
		},
		{
			name: "zero opacity paints nothing",
			cmds: func() []render.DrawCommand {
				c := fill("#FF0000", rectPath(0, 0, 40, 40))
				c.Opacity = 0
				return []render.DrawCommand{c}
			}(),
			at:    image.Pt(20, 20),
			check: func(_, _, _, a uint8) bool { return a == 0 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc, err := Draw(tt.cmds, 40, 40, Options{})
			if err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			defer dc.Close()
			r, g, b, a := rgbaAt(dc.Image(), tt.at.X, tt.at.Y)
			if !tt.check(r, g, b, a) {
				t.Errorf("pixel %v = %d,%d,%d,%d", tt.at, r, g, b, a)
			}
		})
	}
}

func TestDrawInvalidSize(t *testing.T) {
	if _, err := Draw(nil, 0, 10, Options{}); err == nil {
		t.Error("Draw() with zero width should fail")
	}
}

func TestEncodePNGCompiledDocument(t *testing.T) {
	r := document.NewRectangle(10, 10, 30, 30)
	r.Fill = "#112233"
	cmds := render.Compile([]document.Object{r}, geom.DefaultViewport(), nil)

	var buf bytes.Buffer
	if err := EncodePNG(&buf, cmds, 50, 50, Options{Background: "#FFFFFF"}); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if got := img.Bounds(); got.Dx() != 50 || got.Dy() != 50 {
		t.Errorf("size = %v, want 50x50", got)
	}
	if r, g, b, _ := rgbaAt(img, 2, 2); r < 240 || g < 240 || b < 240 {
		t.Errorf("background = %d,%d,%d, want white", r, g, b)
	}
	if r, g, b, _ := rgbaAt(img, 25, 25); r > 40 || g > 60 || b < 30 || b > 70 {
		t.Errorf("fill = %d,%d,%d, want #112233", r, g, b)
	}
}

func TestImageMissingSourceIsSkipped(t *testing.T) {
	cmds := []render.DrawCommand{{
		Op:        render.OpImage,
		Transform: identity(),
		ImageSrc:  "asset_missing",
		Dest:      &geom.Rect{Width: 10, Height: 10},
		Opacity:   1,
	}}
	dc, err := Draw(cmds, 10, 10, Options{Images: ImageMap{}})
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	defer dc.Close()
	if _, _, _, a := rgbaAt(dc.Image(), 5, 5); a != 0 {
		t.Errorf("alpha = %d, want untouched canvas", a)
	}
}

func TestBlendModesCoverDocumentModes(t *testing.T) {
	for _, m := range []document.BlendMode{document.BlendMultiply, document.BlendScreen, document.BlendOverlay} {
		if _, ok := blendModes[string(m)]; !ok {
			t.Errorf("blend mode %q not mapped", m)
		}
	}
}
