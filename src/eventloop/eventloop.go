package eventloop

import (
	"context"
	"fmt"
	"image"
	"log"

	"screen-grab/src/clipboard"
	"screen-grab/src/messages"
	"screen-grab/src/selection"
	"screen-grab/src/session"
	"screen-grab/src/worker"
)

// Reporter receives the outcome of every request. Calls happen on the loop
// goroutine, one at a time.
type Reporter interface {
	OnCaptured(screen int, img *image.RGBA)
	OnExported(path string)
	OnCopied()
	OnFailure(f session.Failure)
}

// CopyFunc places an image on the clipboard.
type CopyFunc func(img image.Image) error

// Loop is the single-threaded coordinator between input events and the
// session. Captures, exports and clipboard copies run on a one-slot worker
// pool; a request while one is in flight is rejected with session.ErrBusy.
type Loop struct {
	ctrl     *session.Controller
	pool     *worker.Pool
	reporter Reporter
	copy     CopyFunc
	view     selection.Viewport

	events  chan messages.Message
	results chan result
	done    chan struct{}
	busy    bool
}

type jobKind int

const (
	jobCapture jobKind = iota
	jobExport
	jobCopy
)

func (k jobKind) String() string {
	switch k {
	case jobCapture:
		return "capture"
	case jobExport:
		return "export"
	default:
		return "copy"
	}
}

type result struct {
	kind   jobKind
	screen int
	img    *image.RGBA
	path   string
	err    error
	cancel context.CancelFunc

	// running marks a job given up on at its deadline; the loop stays busy
	// until the matching released result arrives.
	running  bool
	released bool
}

// New creates a loop driving ctrl. A nil reporter logs outcomes.
func New(ctrl *session.Controller, reporter Reporter) *Loop {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Loop{
		ctrl:     ctrl,
		pool:     worker.New(1),
		reporter: reporter,
		copy:     clipboard.WriteImage,
		view:     selection.Identity,
		events:   make(chan messages.Message, 64),
		results:  make(chan result, 1),
		done:     make(chan struct{}),
	}
}

// SetViewport sets the mapping from pointer coordinates to image pixels.
// Call before Run or from the loop goroutine.
func (l *Loop) SetViewport(v selection.Viewport) { l.view = v }

// SetCopier replaces the clipboard writer. Call before Run.
func (l *Loop) SetCopier(fn CopyFunc) {
	if fn != nil {
		l.copy = fn
	}
}

// Post queues msg. Pointer motion is dropped when the queue is full, since
// the next absolute position supersedes it; every other event waits for
// room. It returns false when msg was dropped or the loop has stopped.
func (l *Loop) Post(msg messages.Message) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	if droppable(msg) {
		select {
		case l.events <- msg:
			return true
		default:
			log.Printf("eventloop: queue full, dropping %s", msg.Type())
			return false
		}
	}
	select {
	case l.events <- msg:
		return true
	case <-l.done:
		return false
	}
}

func droppable(msg messages.Message) bool {
	switch msg.(type) {
	case messages.PointerMove, messages.PointerDrag:
		return true
	}
	return false
}

// Run processes events until ctx is cancelled or DIENOW arrives.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-l.events:
			if _, ok := msg.(messages.DIENOW); ok {
				log.Printf("eventloop: DIENOW received, stopping")
				return nil
			}
			l.handle(ctx, msg)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handle(ctx context.Context, msg messages.Message) {
	switch m := msg.(type) {
	case messages.PointerDown:
		l.ctrl.PointerDown(l.view.ToImage(selection.Point{X: m.X, Y: m.Y}))
	case messages.PointerMove:
		l.ctrl.PointerMove(l.view.ToImage(selection.Point{X: m.X, Y: m.Y}))
	case messages.PointerDrag:
		o := l.view.ToImage(selection.Point{})
		d := l.view.ToImage(selection.Point{X: m.DX, Y: m.DY})
		l.ctrl.PointerMoveBy(d.X-o.X, d.Y-o.Y)
	case messages.PointerUp:
		l.ctrl.PointerUp(l.view.ToImage(selection.Point{X: m.X, Y: m.Y}))
	case messages.ScreenChange:
		l.fail(l.ctrl.SelectScreen(m.Index))
	case messages.ModeChange:
		l.fail(l.ctrl.SetMode(m.Mode))
	case messages.ConfirmCrop:
		l.fail(l.ctrl.Confirm())
	case messages.CaptureRequest:
		l.startCapture(ctx)
	case messages.ExportRequest:
		l.startExport(ctx, m)
	case messages.CopyRequest:
		l.startCopy(ctx)
	case messages.Sync:
		if m.Done != nil {
			close(m.Done)
		}
	case messages.ConfigChanged:
		if m.Config != nil {
			l.ctrl.SetConfig(m.Config)
			log.Printf("eventloop: configuration reloaded (format=%s, folder=%s)", m.Config.SaveFormat, m.Config.SaveFolder)
		}
	default:
		log.Printf("eventloop: ignoring %s", msg.Type())
	}
}

func (l *Loop) startCapture(ctx context.Context) {
	screen := l.ctrl.Screen()
	capture := l.ctrl.CaptureFunc()
	var img *image.RGBA
	l.submit(ctx, jobCapture, func(context.Context) error {
		var err error
		img, err = capture()
		return err
	}, func(res *result) {
		res.screen = screen
		if res.err == nil {
			res.img = img
		}
	})
}

func (l *Loop) startExport(ctx context.Context, m messages.ExportRequest) {
	format := m.Format
	if m.UseDefaultFormat {
		format = l.ctrl.Config().SaveFormat
	}
	if l.busy {
		l.fail(session.ErrBusy)
		return
	}
	job, err := l.ctrl.ExportFunc(format, m.Path)
	if err != nil {
		l.fail(err)
		return
	}
	var path string
	l.submit(ctx, jobExport, func(ctx context.Context) error {
		var err error
		path, err = job(ctx)
		return err
	}, func(res *result) {
		if res.err == nil {
			res.path = path
		}
	})
}

func (l *Loop) startCopy(ctx context.Context) {
	if l.busy {
		l.fail(session.ErrBusy)
		return
	}
	img, err := l.ctrl.CroppedImage()
	if err != nil {
		l.fail(err)
		return
	}
	copyFn := l.copy
	l.submit(ctx, jobCopy, func(context.Context) error {
		return copyFn(img)
	}, nil)
}

// submit hands run to the worker pool. fill runs on the worker goroutine
// after run returned and copies its outputs into the result.
func (l *Loop) submit(ctx context.Context, kind jobKind, run func(context.Context) error, fill func(*result)) {
	if l.busy {
		l.fail(session.ErrBusy)
		return
	}
	jobCtx, cancel := context.WithTimeout(ctx, l.ctrl.Deadline())
	l.busy = true
	job := worker.Job{
		Name: kind.String(),
		Run:  run,
		Release: func() {
			l.deliver(result{kind: kind, released: true})
		},
	}
	ok := l.pool.Submit(jobCtx, job, func(err error, running bool) {
		res := result{kind: kind, err: err, cancel: cancel, running: running}
		if fill != nil && !running {
			fill(&res)
		}
		if !l.deliver(res) {
			cancel()
		}
	})
	if !ok {
		cancel()
		l.busy = false
		l.fail(session.ErrBusy)
	}
}

// deliver hands res to the loop from a worker goroutine.
func (l *Loop) deliver(res result) bool {
	select {
	case l.results <- res:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) handleResult(res result) {
	if res.released {
		log.Printf("eventloop: abandoned %s finished, accepting requests again", res.kind)
		l.busy = false
		return
	}
	if !res.running {
		l.busy = false
	}
	if res.cancel != nil {
		res.cancel()
	}
	if res.err != nil {
		l.fail(fmt.Errorf("%s: %w", res.kind, res.err))
		return
	}
	switch res.kind {
	case jobCapture:
		if err := l.ctrl.EnterCropping(res.img); err != nil {
			l.fail(err)
			return
		}
		l.reporter.OnCaptured(res.screen, res.img)
	case jobExport:
		l.reporter.OnExported(res.path)
	case jobCopy:
		l.reporter.OnCopied()
	}
}

func (l *Loop) fail(err error) {
	if err == nil {
		return
	}
	f := session.Describe(err)
	log.Printf("eventloop: %s error: %s", f.Category, f.Message)
	l.reporter.OnFailure(f)
}

// LogReporter writes outcomes to the log.
type LogReporter struct{}

func (LogReporter) OnCaptured(screen int, img *image.RGBA) {
	log.Printf("captured screen %d (%dx%d)", screen, img.Bounds().Dx(), img.Bounds().Dy())
}

func (LogReporter) OnExported(path string) { log.Printf("saved %s", path) }

func (LogReporter) OnCopied() { log.Printf("copied to clipboard") }

func (LogReporter) OnFailure(f session.Failure) {
	log.Printf("%s failed: %s", f.Category, f.Message)
}
