package export

import (
	"errors"
	"image"
)

// ErrEmptySelection is returned when the clamped selection has no area.
var ErrEmptySelection = errors.New("empty selection")

const bytesPerPixel = 4

// Crop copies the part of img covered by r into a new image anchored at 0,0.
// r is canonicalised and clamped to the image bounds first, so coordinates
// outside the image are never indexed.
func Crop(img *image.RGBA, r image.Rectangle) (*image.RGBA, error) {
	if img == nil {
		return nil, ErrEmptySelection
	}
	area := r.Canon().Intersect(img.Bounds())
	if area.Empty() {
		return nil, ErrEmptySelection
	}

	w, h := area.Dx(), area.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	rowBytes := w * bytesPerPixel
	for y := 0; y < h; y++ {
		src := img.PixOffset(area.Min.X, area.Min.Y+y)
		dst := y * out.Stride
		copy(out.Pix[dst:dst+rowBytes], img.Pix[src:src+rowBytes])
	}
	return out, nil
}
