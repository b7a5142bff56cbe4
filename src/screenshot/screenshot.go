package screenshot

import (
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
)

var (
	// ErrInvalidScreen is returned for a screen index outside [0, count).
	ErrInvalidScreen = errors.New("invalid screen index")
	// ErrCapture is returned when the platform refuses or fails the capture.
	ErrCapture = errors.New("screen capture failed")
)

const (
	BackendDisplays = "displays"
	BackendPrimary  = "primary"
)

// Source enumerates screens and captures their pixels. One implementation
// exists per capture backend; the rest of the program only sees this interface.
type Source interface {
	NumScreens() int
	Bounds(index int) (image.Rectangle, error)
	Capture(index int) (*image.RGBA, error)
}

// Display describes one enumerated screen.
type Display struct {
	Index  int
	Bounds image.Rectangle
}

// NewSource returns the capture backend named by backend. Unknown names
// fall back to the multi-display backend.
func NewSource(backend string) Source {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendPrimary:
		return primarySource{}
	case "", BackendDisplays:
		return displaySource{}
	default:
		log.Printf("screenshot: unknown capture backend %q, using %q", backend, BackendDisplays)
		return displaySource{}
	}
}

// CountScreens never reports fewer than one screen so callers always have
// a valid index to work with. A zero count from the platform is logged; the
// capture itself then fails with ErrCapture.
func CountScreens(src Source) int {
	if src == nil {
		return 1
	}
	n := src.NumScreens()
	if n < 1 {
		log.Printf("screenshot: platform reported %d screens, assuming 1", n)
		return 1
	}
	return n
}

// ListDisplays returns the geometry of every screen the source can see.
func ListDisplays(src Source) []Display {
	n := CountScreens(src)
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		b, err := src.Bounds(i)
		if err != nil {
			log.Printf("screenshot: bounds of screen %d: %v", i, err)
			continue
		}
		out = append(out, Display{Index: i, Bounds: b})
	}
	return out
}

// Capture grabs screen index from src. The returned image has the screen's
// physical resolution.
func Capture(src Source, index int) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no capture source", ErrCapture)
	}
	if n := CountScreens(src); index < 0 || index >= n {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidScreen, index, n)
	}
	bounds, err := src.Bounds(index)
	if err != nil {
		return nil, fmt.Errorf("%w: screen %d: %w", ErrCapture, index, err)
	}
	img, err := src.Capture(index)
	if err != nil {
		if errors.Is(err, ErrCapture) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: screen %d: %w", ErrCapture, index, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: screen %d returned no image", ErrCapture, index)
	}
	if got, want := img.Bounds().Size(), bounds.Size(); got != want {
		return nil, fmt.Errorf("%w: screen %d captured %v, display is %v", ErrCapture, index, got, want)
	}
	log.Printf("screenshot: captured screen %d (%dx%d)", index, bounds.Dx(), bounds.Dy())
	return img, nil
}
