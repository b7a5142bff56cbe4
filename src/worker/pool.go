package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

// Job is a blocking unit of work such as a capture or an encode.
type Job struct {
	Name string
	Run  func(ctx context.Context) error

	// Release is called once Run has returned after its result was already
	// reported as abandoned. The slot stays taken until then.
	Release func()
}

// ResultCallback is invoked on job completion (from a worker goroutine).
// running is true when the job's context ended before Run returned; err is
// then the context error and Job.Release follows once Run is done.
// The event loop should pass a closure that posts back into the loop safely.
type ResultCallback func(err error, running bool)

// Pool is a fixed-size worker pool with strict back-pressure: at most size
// jobs are queued or running, further submissions are refused.
type Pool struct {
	jobs     chan job
	size     int32
	inflight atomic.Int32
	wg       sync.WaitGroup
}

type job struct {
	ctx context.Context
	job Job
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, size), size: int32(size)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: starting %s", j.job.Name)
				finished, err := runWithContext(j.ctx, j.job.Run)
				select {
				case <-finished:
					log.Printf("Worker: %s completed, err=%v", j.job.Name, err)
					// free the slot before the callback so the loop can accept
					// a new request as soon as it sees this result
					p.inflight.Add(-1)
					if j.cb != nil {
						j.cb(err, false)
					}
				default:
					log.Printf("Worker: %s abandoned, err=%v", j.job.Name, err)
					if j.cb != nil {
						j.cb(err, true)
					}
					<-finished
					log.Printf("Worker: abandoned %s returned", j.job.Name)
					p.inflight.Add(-1)
					if j.job.Release != nil {
						j.job.Release()
					}
				}
			}
		}()
	}
}

// Submit enqueues a job if a slot is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, j Job, cb ResultCallback) bool {
	if j.Run == nil {
		return false
	}
	if p.inflight.Add(1) > p.size {
		p.inflight.Add(-1)
		return false
	}
	p.jobs <- job{ctx: ctx, job: j, cb: cb}
	return true
}

// Busy reports whether every slot is taken.
func (p *Pool) Busy() bool { return p.inflight.Load() >= p.size }

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runWithContext runs fn and gives up waiting when ctx is done. fn keeps
// running in the background in that case; finished is closed once it returns.
func runWithContext(ctx context.Context, fn func(ctx context.Context) error) (<-chan struct{}, error) {
	finished := make(chan struct{})
	if _, ok := ctx.Deadline(); !ok && ctx.Done() == nil {
		err := fn(ctx)
		close(finished)
		return finished, err
	}
	resCh := make(chan error, 1)
	go func() {
		defer close(finished)
		resCh <- fn(ctx)
	}()
	select {
	case err := <-resCh:
		<-finished
		return finished, err
	case <-ctx.Done():
		return finished, ctx.Err()
	}
}
