package selection

import "image"

// Viewport maps display-scaled UI coordinates onto image pixels.
// Offset is the UI position of the image's top-left pixel and Scale is the
// number of image pixels per UI unit.
type Viewport struct {
	Offset Point
	Scale  float64
}

// Identity leaves coordinates unchanged.
var Identity = Viewport{Scale: 1}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

func (v Viewport) ToImage(p Point) Point {
	s := v.scale()
	return Point{X: (p.X - v.Offset.X) * s, Y: (p.Y - v.Offset.Y) * s}
}

func (v Viewport) ToUI(p Point) Point {
	s := v.scale()
	return Point{X: p.X/s + v.Offset.X, Y: p.Y/s + v.Offset.Y}
}

// FitViewport centres an image of size px inside area, preserving aspect ratio.
func FitViewport(px image.Point, area Rect) Viewport {
	area = area.Normalize()
	if px.X <= 0 || px.Y <= 0 || area.Empty() {
		return Identity
	}
	uiPerPixel := area.Width() / float64(px.X)
	if h := area.Height() / float64(px.Y); h < uiPerPixel {
		uiPerPixel = h
	}
	w, hgt := float64(px.X)*uiPerPixel, float64(px.Y)*uiPerPixel
	return Viewport{
		Offset: Point{
			X: area.Left + (area.Width()-w)/2,
			Y: area.Top + (area.Height()-hgt)/2,
		},
		Scale: 1 / uiPerPixel,
	}
}
