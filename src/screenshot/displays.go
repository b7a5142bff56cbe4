package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// displaySource captures any active display through the platform APIs
// wrapped by kbinani/screenshot.
type displaySource struct{}

func (displaySource) NumScreens() int {
	return screenshot.NumActiveDisplays()
}

func (displaySource) Bounds(index int) (image.Rectangle, error) {
	if n := screenshot.NumActiveDisplays(); index < 0 || index >= n {
		return image.Rectangle{}, fmt.Errorf("%w: screen %d disconnected (have %d)", ErrCapture, index, n)
	}
	return screenshot.GetDisplayBounds(index), nil
}

func (displaySource) Capture(index int) (*image.RGBA, error) {
	if n := screenshot.NumActiveDisplays(); index < 0 || index >= n {
		return nil, fmt.Errorf("%w: screen %d disconnected (have %d)", ErrCapture, index, n)
	}
	img, err := screenshot.CaptureDisplay(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return img, nil
}
