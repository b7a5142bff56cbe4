package export

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"screen-grab/src/selection"
)

// Thumbnail scales img down to fit within maxW x maxH for display and
// returns the viewport that maps preview coordinates back to img pixels.
// Images that already fit are returned unchanged with the identity viewport.
func Thumbnail(img *image.RGBA, maxW, maxH int) (*image.RGBA, selection.Viewport) {
	if img == nil {
		return nil, selection.Identity
	}
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return img, selection.Identity
	}

	v := selection.FitViewport(b.Size(), selection.Rect{Right: float64(maxW), Bottom: float64(maxH)})
	w := int(float64(b.Dx())/v.Scale + 0.5)
	h := int(float64(b.Dy())/v.Scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	// The preview is anchored at 0,0 while img may not be.
	scale := float64(b.Dx()) / float64(w)
	return dst, selection.Viewport{
		Offset: selection.Point{X: -float64(b.Min.X) / scale, Y: -float64(b.Min.Y) / scale},
		Scale:  scale,
	}
}
