package screenshot

import (
	"fmt"
	"image"

	vscreenshot "github.com/vova616/screenshot"
)

// primarySource only sees the primary screen. It is the fallback for
// setups where per-display enumeration misbehaves.
type primarySource struct{}

func (primarySource) NumScreens() int {
	if _, err := vscreenshot.ScreenRect(); err != nil {
		return 0
	}
	return 1
}

func (primarySource) Bounds(index int) (image.Rectangle, error) {
	if index != 0 {
		return image.Rectangle{}, fmt.Errorf("%w: primary backend has no screen %d", ErrCapture, index)
	}
	r, err := vscreenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return r, nil
}

func (primarySource) Capture(index int) (*image.RGBA, error) {
	if index != 0 {
		return nil, fmt.Errorf("%w: primary backend has no screen %d", ErrCapture, index)
	}
	img, err := vscreenshot.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return img, nil
}
