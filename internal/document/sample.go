package document

import (
	"github.com/inamate/design/internal/geom"
	"github.com/inamate/design/internal/layout"
)

// NewSampleDocument builds a small document that exercises most variants:
// an auto-layout frame of cards, a component with a placed instance, a
// line, a path and a text label.
func NewSampleDocument() *Document {
	doc := New()

	frame := NewFrame(40, 40, 600, 200)
	frame.Name = "Cards"
	frame.Fill = "#1a1a2e"
	al := layout.DefaultAutoLayout()
	al.Spacing = 20
	al.Padding = layout.Padding{Top: 20, Right: 20, Bottom: 20, Left: 20}
	al.CounterAxisAlign = layout.AlignCenter
	frame.AutoLayout = &al

	card := NewRectangle(0, 0, 120, 120)
	card.Name = "Card"
	card.Fill = "#e94560"
	card.CornerRadius = 12
	circle := NewEllipse(0, 0, 100, 100)
	circle.Name = "Dot"
	circle.Fill = "#0f3460"
	circle.Gradient = &Gradient{
		Type:    GradientRadial,
		CenterX: 0.5,
		CenterY: 0.5,
		Radius:  0.5,
		Stops: []GradientStop{
			{Offset: 0, Color: "#16c79a", Opacity: 1},
			{Offset: 1, Color: "#0f3460", Opacity: 1},
		},
	}
	_ = frame.AddChild(card)
	_ = frame.AddChild(circle)
	_ = doc.Add(frame)

	button := NewComponent(40, 300, 160, 48)
	button.Name = "Button"
	bg := NewRectangle(40, 300, 160, 48)
	bg.Name = "Background"
	bg.Fill = "#533483"
	bg.CornerRadius = 24
	bg.Shadows = []Shadow{{X: 0, Y: 4, Blur: 8, Color: "#000000", Opacity: 0.25}}
	label := NewText(60, 312, "Press me")
	label.Fill = "#ffffff"
	label.SetBounds(geom.R(60, 312, 120, 24))
	_ = button.AddChild(bg)
	_ = button.AddChild(label)
	_ = doc.Add(button)
	_ = doc.Add(NewInstance(button, 240, 300))

	line := NewLine(40, 400, 400, 400)
	line.Stroke = "#e94560"
	_ = doc.Add(line)

	wave := NewPath([]PathPoint{
		{X: 440, Y: 320, HandleOut: &geom.Point{X: 480, Y: 260}},
		{X: 540, Y: 320, HandleIn: &geom.Point{X: 500, Y: 380}},
	}, false)
	wave.Name = "Wave"
	_ = doc.Add(wave)

	title := NewText(40, 440, "Design document")
	title.FontSize = 24
	_ = doc.Add(title)

	return doc
}
