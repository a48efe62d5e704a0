package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/design/internal/layout"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidValue    = errors.New("invalid property value")
)

// SetProperty assigns a named property from a loosely typed value as it
// arrives from JSON. Setting a mirrored property on an instance marks it
// overridden.
func SetProperty(o Object, name string, value any) error {
	if err := setProperty(o, name, value); err != nil {
		return fmt.Errorf("set %s on %s: %w", name, o.Common().ID, err)
	}
	if inst, ok := o.(*Instance); ok && syncable(name) {
		inst.Override(name)
	}
	return nil
}

func setProperty(o Object, name string, value any) error {
	b := o.Common()
	r := o.Bounds()

	switch name {
	case "name":
		return setString(&b.Name, value)
	case "x":
		return withFloat(value, func(f float64) { r.X = f; o.SetBounds(r) })
	case "y":
		return withFloat(value, func(f float64) { r.Y = f; o.SetBounds(r) })
	case "width":
		return withFloat(value, func(f float64) { r.Width = f; o.SetBounds(r) })
	case "height":
		return withFloat(value, func(f float64) { r.Height = f; o.SetBounds(r) })
	case "rotation":
		return withFloat(value, b.SetRotation)
	case "fill":
		return setString(&b.Fill, value)
	case "fillOpacity":
		return withFloat(value, func(f float64) { b.FillOpacity = clamp01(f) })
	case "stroke":
		return setString(&b.Stroke, value)
	case "strokeWidth":
		return withFloat(value, func(f float64) { b.StrokeWidth = max(0, f) })
	case "strokeOpacity":
		return withFloat(value, func(f float64) { b.StrokeOpacity = clamp01(f) })
	case "visible":
		return setBool(&b.Visible, value)
	case "locked":
		return setBool(&b.Locked, value)
	case "opacity":
		return withFloat(value, func(f float64) { b.Opacity = clamp01(f) })
	case "blendMode":
		var s string
		if err := setString(&s, value); err != nil {
			return err
		}
		b.BlendMode = BlendMode(s)
		return nil
	case "blur":
		return withFloat(value, func(f float64) { b.Blur = max(0, f) })
	case "gradient":
		if value == nil {
			b.Gradient = nil
			return nil
		}
		var g Gradient
		if err := convert(value, &g); err != nil {
			return err
		}
		b.Gradient = &g
		return nil
	case "shadows":
		var s []Shadow
		if err := convert(value, &s); err != nil {
			return err
		}
		b.Shadows = s
		return nil
	case "constraints":
		if value == nil {
			b.Constraints = nil
			return nil
		}
		var c layout.Constraints
		if err := convert(value, &c); err != nil {
			return err
		}
		if p := b.parent; p != nil {
			c.Initialize(o.Bounds(), p.Bounds())
		}
		b.Constraints = &c
		return nil
	}

	switch v := o.(type) {
	case *Rectangle:
		if name == "cornerRadius" {
			return withFloat(value, func(f float64) { v.CornerRadius = max(0, f) })
		}
	case *Text:
		switch name {
		case "text":
			return setString(&v.Text, value)
		case "fontFamily":
			return setString(&v.FontFamily, value)
		case "fontSize":
			return withFloat(value, func(f float64) { v.FontSize = max(1, f) })
		case "fontWeight":
			return setString(&v.FontWeight, value)
		case "fontStyle":
			return setString(&v.FontStyle, value)
		case "textAlign":
			return setString(&v.TextAlign, value)
		case "lineHeight":
			return withFloat(value, func(f float64) { v.LineHeight = max(0, f) })
		}
	case *Line:
		switch name {
		case "x1":
			return withFloat(value, func(f float64) { v.SetEndpoints(f, v.Y1, v.X2, v.Y2) })
		case "y1":
			return withFloat(value, func(f float64) { v.SetEndpoints(v.X1, f, v.X2, v.Y2) })
		case "x2":
			return withFloat(value, func(f float64) { v.SetEndpoints(v.X1, v.Y1, f, v.Y2) })
		case "y2":
			return withFloat(value, func(f float64) { v.SetEndpoints(v.X1, v.Y1, v.X2, f) })
		}
	case *Path:
		switch name {
		case "closed":
			return setBool(&v.Closed, value)
		case "points":
			var pts []PathPoint
			if err := convert(value, &pts); err != nil {
				return err
			}
			v.SetPoints(pts)
			return nil
		}
	case *Image:
		switch name {
		case "src":
			return setString(&v.Src, value)
		case "fit":
			var s string
			if err := setString(&s, value); err != nil {
				return err
			}
			v.Fit = ImageFit(s)
			return nil
		}
	case *Frame:
		switch name {
		case "clipContent":
			return setBool(&v.ClipContent, value)
		case "autoLayout":
			if value == nil {
				v.AutoLayout = nil
				return nil
			}
			var al layout.AutoLayout
			if err := convert(value, &al); err != nil {
				return err
			}
			v.AutoLayout = &al
			v.Relayout()
			return nil
		}
	}
	return ErrUnknownProperty
}

func withFloat(value any, set func(float64)) error {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return ErrInvalidValue
		}
		f = n
	default:
		return ErrInvalidValue
	}
	set(f)
	return nil
}

func setString(dst *string, value any) error {
	s, ok := value.(string)
	if !ok {
		return ErrInvalidValue
	}
	*dst = s
	return nil
}

func setBool(dst *bool, value any) error {
	v, ok := value.(bool)
	if !ok {
		return ErrInvalidValue
	}
	*dst = v
	return nil
}

// convert decodes a JSON-shaped value (maps, slices) into dst.
func convert(value any, dst any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return ErrInvalidValue
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return ErrInvalidValue
	}
	return nil
}

func clamp01(f float64) float64 { return min(max(f, 0), 1) }
