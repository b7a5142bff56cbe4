package session

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	"screen-grab/src/config"
	"screen-grab/src/export"
	"screen-grab/src/screenshot"
	"screen-grab/src/selection"
)

// Mode is the top-level view the session is in.
type Mode int

const (
	ModeMain Mode = iota
	ModeCropping
)

func (m Mode) String() string {
	switch m {
	case ModeMain:
		return "main"
	case ModeCropping:
		return "cropping"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// CaptureJob grabs one screen. It touches no controller state.
type CaptureJob func() (*image.RGBA, error)

// ExportJob writes a snapshot of the session image and returns the path written.
type ExportJob func(ctx context.Context) (string, error)

// Controller owns the session state: mode, selected screen, the live image
// shown in the main view and the working image being cropped.
// It is not safe for concurrent use; drive it from one goroutine and run
// the jobs it hands out wherever convenient.
type Controller struct {
	cfg *config.Config
	src screenshot.Source

	mode    Mode
	screen  int
	live    *image.RGBA
	working *image.RGBA
	sel     *selection.Machine
}

// New returns a controller in Main mode. A nil cfg uses config.Default().
func New(cfg *config.Config, src screenshot.Source) *Controller {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Controller{
		cfg: cfg,
		src: src,
		sel: selection.NewMachine(cfg.HandleRadius),
	}
	if cfg.DefaultScreen > 0 {
		if err := c.SelectScreen(cfg.DefaultScreen); err != nil {
			log.Printf("session: default screen: %v", err)
		}
	}
	return c
}

func (c *Controller) Mode() Mode { return c.mode }
func (c *Controller) Screen() int { return c.screen }
func (c *Controller) Live() *image.RGBA { return c.live }
func (c *Controller) Working() *image.RGBA { return c.working }
func (c *Controller) Config() *config.Config { return c.cfg }
func (c *Controller) Handle() selection.Handle { return c.sel.Handle() }
func (c *Controller) Selection() (selection.Rect, bool) { return c.sel.Selection() }

// NumScreens reports the current display count (at least one).
func (c *Controller) NumScreens() int { return screenshot.CountScreens(c.src) }

// Deadline is the time budget for one capture or export job.
func (c *Controller) Deadline() time.Duration {
	return time.Duration(c.cfg.TaskDeadlineSec) * time.Second
}

// SetConfig swaps the configuration used by later operations. The handle
// radius only changes while no drag is in progress.
func (c *Controller) SetConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	c.cfg = cfg
	if !c.sel.Dragging() && cfg.HandleRadius != c.sel.Radius() {
		rect, ok := c.sel.Selection()
		c.sel = selection.NewMachine(cfg.HandleRadius)
		if c.working != nil {
			c.sel.SetBounds(c.working.Bounds())
		}
		if ok {
			c.sel.SetSelection(rect)
		}
	}
}

// SelectScreen makes index the capture target. Out-of-range indices are
// rejected and the previous selection is kept.
func (c *Controller) SelectScreen(index int) error {
	n := c.NumScreens()
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d (have %d)", screenshot.ErrInvalidScreen, index, n)
	}
	c.screen = index
	return nil
}

// CaptureFunc returns a job capturing the currently selected screen.
func (c *Controller) CaptureFunc() CaptureJob {
	src, index := c.src, c.screen
	return func() (*image.RGBA, error) {
		return screenshot.Capture(src, index)
	}
}

// BeginCapture captures the selected screen and enters cropping mode.
// On failure the previous images and mode are left as they were.
func (c *Controller) BeginCapture() error {
	img, err := c.CaptureFunc()()
	if err != nil {
		return err
	}
	return c.EnterCropping(img)
}

// EnterCropping installs img as both live and working image and starts a
// fresh selection over it.
func (c *Controller) EnterCropping(img *image.RGBA) error {
	if img == nil {
		return ErrNoImage
	}
	c.live = img
	c.working = img
	c.mode = ModeCropping
	c.sel.Reset()
	c.sel.SetBounds(img.Bounds())
	log.Printf("session: cropping %dx%d from screen %d", img.Bounds().Dx(), img.Bounds().Dy(), c.screen)
	return nil
}

// SetMode routes a mode-change request. Cropping needs a live image.
func (c *Controller) SetMode(m Mode) error {
	switch m {
	case ModeMain:
		c.ReturnToMain()
		return nil
	case ModeCropping:
		if c.mode == ModeCropping {
			return nil
		}
		return c.EnterCropping(c.live)
	default:
		return fmt.Errorf("unknown mode %v", m)
	}
}

func (c *Controller) SetWorkingImage(img *image.RGBA) {
	c.working = img
	if img != nil {
		c.sel.SetBounds(img.Bounds())
	}
}

// FinalizeImage replaces the live image. No working image is required.
func (c *Controller) FinalizeImage(img *image.RGBA) {
	c.live = img
}

// ReturnToMain leaves cropping mode and clears the selection. The selected
// screen is kept.
func (c *Controller) ReturnToMain() {
	c.mode = ModeMain
	c.sel.Reset()
}

// PointerDown starts a drag. It reports false outside cropping mode.
func (c *Controller) PointerDown(p selection.Point) (selection.Handle, bool) {
	if c.mode != ModeCropping {
		return selection.HandleNone, false
	}
	return c.sel.PointerDown(p), true
}

func (c *Controller) PointerMove(p selection.Point) bool {
	if c.mode != ModeCropping {
		return false
	}
	c.sel.PointerMove(p)
	return true
}

func (c *Controller) PointerMoveBy(dx, dy float64) bool {
	if c.mode != ModeCropping {
		return false
	}
	c.sel.PointerMoveBy(dx, dy)
	return true
}

// PointerUp ends the drag and returns the normalized selection and whether
// it has any area.
func (c *Controller) PointerUp(p selection.Point) (selection.Rect, bool) {
	if c.mode != ModeCropping {
		return selection.Rect{}, false
	}
	return c.sel.PointerUp(p)
}

// SetSelection replaces the selection directly (keyboard or CLI input).
func (c *Controller) SetSelection(r selection.Rect) error {
	if c.mode != ModeCropping {
		return ErrNotCropping
	}
	c.sel.SetSelection(r)
	return nil
}

// CroppedImage returns the pixels an export would write right now.
func (c *Controller) CroppedImage() (*image.RGBA, error) {
	img, rect, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	return export.Crop(img, rect)
}

// Confirm crops the working image to the selection, makes the result the
// definitive image and returns to main mode.
func (c *Controller) Confirm() error {
	if c.mode != ModeCropping {
		return ErrNotCropping
	}
	cropped, err := c.CroppedImage()
	if err != nil {
		return err
	}
	c.SetWorkingImage(cropped)
	c.FinalizeImage(cropped)
	c.ReturnToMain()
	return nil
}

// ExportFunc validates an export request against the current state and
// returns a job that writes a snapshot of it. An empty path picks a fresh
// name in the configured save folder when the job runs.
func (c *Controller) ExportFunc(f export.Format, path string) (ExportJob, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: unsupported format %v", export.ErrEncode, f)
	}
	img, rect, err := c.snapshot()
	if err != nil {
		return nil, err
	}
	opts := c.cfg.ExportOptions()
	dir := c.cfg.SaveFolder
	return func(ctx context.Context) (string, error) {
		dest := path
		if dest == "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("%w: %w", export.ErrWrite, err)
			}
			dest = export.DefaultPath(dir, f, time.Now())
		}
		if err := export.Export(ctx, img, rect, f, dest, opts); err != nil {
			return "", err
		}
		log.Printf("session: exported %dx%d %s to %s", rect.Dx(), rect.Dy(), f, dest)
		return dest, nil
	}, nil
}

// Export runs ExportFunc synchronously.
func (c *Controller) Export(ctx context.Context, f export.Format, path string) (string, error) {
	job, err := c.ExportFunc(f, path)
	if err != nil {
		return "", err
	}
	return job(ctx)
}

// ExportDefault exports in the configured format to a fresh file in the
// configured folder.
func (c *Controller) ExportDefault(ctx context.Context) (string, error) {
	return c.Export(ctx, c.cfg.SaveFormat, "")
}

// snapshot picks the image and pixel rectangle the current mode exports:
// the selection of the working image while cropping, the whole live image
// otherwise.
func (c *Controller) snapshot() (*image.RGBA, image.Rectangle, error) {
	if c.mode == ModeCropping {
		if c.working == nil {
			return nil, image.Rectangle{}, ErrNoImage
		}
		r, ok := c.sel.Selection()
		if !ok {
			return nil, image.Rectangle{}, export.ErrEmptySelection
		}
		rect := r.Image().Intersect(c.working.Bounds())
		if rect.Empty() {
			return nil, image.Rectangle{}, export.ErrEmptySelection
		}
		return c.working, rect, nil
	}
	if c.live == nil {
		return nil, image.Rectangle{}, ErrNoImage
	}
	return c.live, c.live.Bounds(), nil
}
