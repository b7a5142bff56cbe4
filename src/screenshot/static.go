package screenshot

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// StaticSource serves fixed images as screens. The CLI uses it to crop
// existing image files through the same pipeline as live captures.
type StaticSource struct {
	mu      sync.Mutex
	screens []*image.RGBA
}

func NewStaticSource(screens ...*image.RGBA) *StaticSource {
	return &StaticSource{screens: screens}
}

// LoadStaticSource decodes each file into one screen.
func LoadStaticSource(paths ...string) (*StaticSource, error) {
	src := &StaticSource{}
	for _, p := range paths {
		img, err := decodeFile(p)
		if err != nil {
			return nil, err
		}
		src.screens = append(src.screens, img)
	}
	return src, nil
}

// Remove drops screen index, emulating a disconnected display.
func (s *StaticSource) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.screens) {
		s.screens = append(s.screens[:index], s.screens[index+1:]...)
	}
}

func (s *StaticSource) NumScreens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

func (s *StaticSource) Bounds(index int) (image.Rectangle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.screens) {
		return image.Rectangle{}, fmt.Errorf("%w: screen %d disconnected", ErrCapture, index)
	}
	return s.screens[index].Bounds(), nil
}

// Capture returns a copy so callers never share pixels with the source.
func (s *StaticSource) Capture(index int) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.screens) {
		return nil, fmt.Errorf("%w: screen %d disconnected", ErrCapture, index)
	}
	src := s.screens[index]
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}

func decodeFile(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
