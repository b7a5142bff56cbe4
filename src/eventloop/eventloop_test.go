package eventloop

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"screen-grab/src/config"
	"screen-grab/src/export"
	"screen-grab/src/messages"
	"screen-grab/src/screenshot"
	"screen-grab/src/selection"
	"screen-grab/src/session"
)

type fakeReporter struct {
	captured chan image.Point
	exported chan string
	copied   chan struct{}
	failures chan session.Failure
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{
		captured: make(chan image.Point, 4),
		exported: make(chan string, 4),
		copied:   make(chan struct{}, 4),
		failures: make(chan session.Failure, 8),
	}
}

func (r *fakeReporter) OnCaptured(screen int, img *image.RGBA) { r.captured <- img.Bounds().Size() }
func (r *fakeReporter) OnExported(path string) { r.exported <- path }
func (r *fakeReporter) OnCopied() { r.copied <- struct{}{} }
func (r *fakeReporter) OnFailure(f session.Failure) { r.failures <- f }

// gatedSource blocks captures until release is closed.
type gatedSource struct {
	*screenshot.StaticSource
	release chan struct{}
}

func (s gatedSource) Capture(index int) (*image.RGBA, error) {
	<-s.release
	return s.StaticSource.Capture(index)
}

// countingSource blocks captures on gate and records how many ran at once.
type countingSource struct {
	*screenshot.StaticSource
	gate   chan struct{}
	active atomic.Int32
	peak   atomic.Int32
}

func (s *countingSource) Capture(index int) (*image.RGBA, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-s.gate
	return s.StaticSource.Capture(index)
}

func run(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 200, 255
	}
	return img
}

func startLoop(t *testing.T, src screenshot.Source) (*Loop, *fakeReporter, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.SaveFolder = t.TempDir()
	rep := newFakeReporter()
	l := New(session.New(cfg, src), rep)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, rep, cfg
}

func wait[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestCaptureDragExport(t *testing.T) {
	src := screenshot.NewStaticSource(solid(320, 200), solid(640, 480), solid(800, 600))
	l, rep, _ := startLoop(t, src)

	l.Post(messages.ScreenChange{Index: 2})
	l.Post(messages.CaptureRequest{})
	if got := wait(t, rep.captured, "capture"); got != image.Pt(800, 600) {
		t.Fatalf("captured %v, want 800x600", got)
	}

	l.Post(messages.PointerDown{X: 10, Y: 10})
	l.Post(messages.PointerMove{X: 110, Y: 60})
	l.Post(messages.PointerUp{X: 110, Y: 60})
	out := filepath.Join(t.TempDir(), "out.png")
	l.Post(messages.ExportRequest{Format: export.FormatPNG, Path: out})

	if got := wait(t, rep.exported, "export"); got != out {
		t.Fatalf("exported to %q, want %q", got, out)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("exported %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestSecondRequestWhileBusyIsRejected(t *testing.T) {
	src := gatedSource{StaticSource: screenshot.NewStaticSource(solid(64, 64)), release: make(chan struct{})}
	l, rep, _ := startLoop(t, src)

	l.Post(messages.CaptureRequest{})
	l.Post(messages.CaptureRequest{})
	f := wait(t, rep.failures, "busy failure")
	if f.Category != session.CategoryBusy || !errors.Is(f, session.ErrBusy) {
		t.Fatalf("failure = %+v, want busy", f)
	}

	close(src.release)
	wait(t, rep.captured, "capture")

	// the slot is free again
	l.Post(messages.CaptureRequest{})
	wait(t, rep.captured, "second capture")
}

func TestInvalidScreenReported(t *testing.T) {
	l, rep, _ := startLoop(t, screenshot.NewStaticSource(solid(10, 10)))
	l.Post(messages.ScreenChange{Index: 5})
	if f := wait(t, rep.failures, "failure"); f.Category != session.CategoryScreen {
		t.Fatalf("category = %s, want screen", f.Category)
	}
}

func TestExportWithoutSelectionReported(t *testing.T) {
	l, rep, _ := startLoop(t, screenshot.NewStaticSource(solid(10, 10)))
	l.Post(messages.ExportRequest{UseDefaultFormat: true})
	if f := wait(t, rep.failures, "failure"); f.Category != session.CategorySelection {
		t.Fatalf("category = %s, want selection", f.Category)
	}
	l.Post(messages.CaptureRequest{})
	wait(t, rep.captured, "capture")
	l.Post(messages.ExportRequest{UseDefaultFormat: true})
	if f := wait(t, rep.failures, "failure"); !errors.Is(f, export.ErrEmptySelection) {
		t.Fatalf("failure = %+v, want empty selection", f)
	}
}

func TestViewportMapsPointer(t *testing.T) {
	src := screenshot.NewStaticSource(solid(400, 400))
	cfg := config.Default()
	cfg.SaveFolder = t.TempDir()
	rep := newFakeReporter()
	l := New(session.New(cfg, src), rep)
	// UI shows the image at half size, offset by (50, 20)
	l.SetViewport(selection.Viewport{Offset: selection.Point{X: 50, Y: 20}, Scale: 2})
	var copied *image.RGBA
	l.SetCopier(func(img image.Image) error {
		copied = img.(*image.RGBA)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = l.Run(ctx); close(done) }()
	defer func() { cancel(); <-done }()

	l.Post(messages.CaptureRequest{})
	wait(t, rep.captured, "capture")
	l.Post(messages.PointerDown{X: 60, Y: 30})
	l.Post(messages.PointerDrag{DX: 25, DY: 10})
	l.Post(messages.PointerUp{X: 85, Y: 40})
	l.Post(messages.CopyRequest{})
	wait(t, rep.copied, "copy")

	if got := copied.Bounds().Size(); got != image.Pt(50, 20) {
		t.Fatalf("copied %v, want 50x20", got)
	}
}

func TestConfigChangedSwitchesFormat(t *testing.T) {
	l, rep, cfg := startLoop(t, screenshot.NewStaticSource(solid(30, 30)))
	l.Post(messages.CaptureRequest{})
	wait(t, rep.captured, "capture")
	l.Post(messages.ModeChange{Mode: session.ModeMain})

	next := *cfg
	next.SaveFormat = export.FormatGIF
	l.Post(messages.ConfigChanged{Config: &next})
	l.Post(messages.ExportRequest{UseDefaultFormat: true})
	path := wait(t, rep.exported, "export")
	if filepath.Ext(path) != ".gif" {
		t.Fatalf("exported %q, want .gif", path)
	}
}

func TestDieNowStopsLoop(t *testing.T) {
	l := New(session.New(config.Default(), screenshot.NewStaticSource(solid(4, 4))), newFakeReporter())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	l.Post(messages.DIENOW{})
	if err := wait(t, errCh, "loop exit"); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if l.Post(messages.CaptureRequest{}) {
		t.Fatal("Post after stop should fail")
	}
}

func TestTimedOutCaptureKeepsLoopBusy(t *testing.T) {
	src := &countingSource{StaticSource: screenshot.NewStaticSource(solid(32, 32)), gate: make(chan struct{})}
	cfg := config.Default()
	cfg.SaveFolder = t.TempDir()
	cfg.TaskDeadlineSec = 1
	rep := newFakeReporter()
	l := New(session.New(cfg, src), rep)
	run(t, l)

	l.Post(messages.CaptureRequest{})
	if f := wait(t, rep.failures, "timeout"); f.Category != session.CategoryTimeout {
		t.Fatalf("category = %s, want timeout", f.Category)
	}

	// the timed-out capture is still blocked inside the source
	l.Post(messages.CaptureRequest{})
	if f := wait(t, rep.failures, "busy failure"); f.Category != session.CategoryBusy {
		t.Fatalf("category = %s, want busy", f.Category)
	}

	close(src.gate)
	captured := false
	for i := 0; i < 100 && !captured; i++ {
		l.Post(messages.CaptureRequest{})
		select {
		case <-rep.captured:
			captured = true
		case f := <-rep.failures:
			if f.Category != session.CategoryBusy {
				t.Fatalf("unexpected failure %+v", f)
			}
			time.Sleep(10 * time.Millisecond)
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for capture")
		}
	}
	if !captured {
		t.Fatal("loop never accepted a capture after the abandoned one returned")
	}
	if peak := src.peak.Load(); peak != 1 {
		t.Fatalf("peak concurrent captures = %d, want 1", peak)
	}
}

func TestPostKeepsPointerUpWhenQueueIsFull(t *testing.T) {
	cfg := config.Default()
	cfg.SaveFolder = t.TempDir()
	ctrl := session.New(cfg, screenshot.NewStaticSource(solid(200, 200)))
	if err := ctrl.EnterCropping(solid(200, 200)); err != nil {
		t.Fatal(err)
	}
	l := New(ctrl, newFakeReporter())

	if !l.Post(messages.PointerDown{X: 10, Y: 10}) {
		t.Fatal("PointerDown should be queued")
	}
	for i := 0; i < cap(l.events)-1; i++ {
		if !l.Post(messages.PointerMove{X: 50, Y: 50}) {
			t.Fatalf("move %d should be queued", i)
		}
	}
	if l.Post(messages.PointerMove{X: 70, Y: 70}) {
		t.Fatal("motion should be dropped when the queue is full")
	}

	upQueued := make(chan bool, 1)
	go func() { upQueued <- l.Post(messages.PointerUp{X: 110, Y: 60}) }()
	select {
	case <-upQueued:
		t.Fatal("PointerUp should wait for room instead of being dropped")
	case <-time.After(50 * time.Millisecond):
	}

	run(t, l)
	if !wait(t, upQueued, "PointerUp") {
		t.Fatal("PointerUp was dropped")
	}
	synced := make(chan struct{})
	l.Post(messages.Sync{Done: synced})
	wait(t, synced, "sync")

	r, ok := ctrl.Selection()
	if !ok || r != (selection.Rect{Left: 10, Top: 10, Right: 110, Bottom: 60}) {
		t.Fatalf("selection = %+v (%v), want 10,10,110,60", r, ok)
	}
	if ctrl.Handle() != selection.HandleNone {
		t.Fatalf("handle = %v, want none after release", ctrl.Handle())
	}
}
