package geom

// Viewport maps document space to screen space: screen = (doc * Zoom) + Offset.
type Viewport struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Zoom    float64 `json:"zoom"`
}

// DefaultViewport is an unzoomed view anchored at the origin.
func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// Matrix returns the document-to-screen transform.
func (v Viewport) Matrix() Matrix2D {
	z := v.zoom()
	return Matrix2D{z, 0, 0, z, v.OffsetX, v.OffsetY}
}

// WorldToScreen converts a document point to screen pixels.
func (v Viewport) WorldToScreen(p Point) Point {
	z := v.zoom()
	return Point{X: p.X*z + v.OffsetX, Y: p.Y*z + v.OffsetY}
}

// ScreenToWorld converts a screen pixel position to document space.
func (v Viewport) ScreenToWorld(p Point) Point {
	z := v.zoom()
	return Point{X: (p.X - v.OffsetX) / z, Y: (p.Y - v.OffsetY) / z}
}

// ZoomAt changes the zoom level keeping the document point under the screen
// position anchor fixed.
func (v Viewport) ZoomAt(anchor Point, zoom float64) Viewport {
	if zoom <= 0 {
		return v
	}
	world := v.ScreenToWorld(anchor)
	return Viewport{
		Zoom:    zoom,
		OffsetX: anchor.X - world.X*zoom,
		OffsetY: anchor.Y - world.Y*zoom,
	}
}
