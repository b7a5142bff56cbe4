package selection

import (
	"image"
	"math"
)

// Point is a position in image pixel space. Fractional values come from
// display-scaled pointer input.
type Point struct {
	X float64
	Y float64
}

// Rect is a selection rectangle. It may be inverted while a drag is in
// progress; Normalize restores Left <= Right and Top <= Bottom.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectAt returns the degenerate rectangle whose corners both sit on p.
func RectAt(p Point) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y}
}

// RectFromImage converts an integer rectangle.
func RectFromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{
		Left:   float64(r.Min.X),
		Top:    float64(r.Min.Y),
		Right:  float64(r.Max.X),
		Bottom: float64(r.Max.Y),
	}
}

func (r Rect) Normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

func (r Rect) Width() float64  { return math.Abs(r.Right - r.Left) }
func (r Rect) Height() float64 { return math.Abs(r.Bottom - r.Top) }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Contains reports whether p lies inside r or on its border.
func (r Rect) Contains(p Point) bool {
	n := r.Normalize()
	return p.X >= n.Left && p.X <= n.Right && p.Y >= n.Top && p.Y <= n.Bottom
}

// Translate moves all four coordinates by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Image rounds the normalized rectangle to whole pixels.
func (r Rect) Image() image.Rectangle {
	n := r.Normalize()
	return image.Rect(
		int(math.Round(n.Left)),
		int(math.Round(n.Top)),
		int(math.Round(n.Right)),
		int(math.Round(n.Bottom)),
	)
}

func (r Rect) center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}
