package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of deferred work scheduled after an HTTP response has
// already been sent.
type Job func(ctx context.Context)

// Dispatcher schedules post-transition side effects. Implementations must
// never block the caller; the gateway's callback round-trip cannot be held
// open by slow downstream work.
type Dispatcher interface {
	Enqueue(name string, job Job)
}

type queuedJob struct {
	name string
	run  Job
}

// WorkerPool is the production Dispatcher: a buffered channel drained by a
// fixed set of workers. A full queue drops the job with a log line rather
// than blocking the request path.
type WorkerPool struct {
	jobs       chan queuedJob
	log        *zap.Logger
	wg         sync.WaitGroup
	jobTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func NewWorkerPool(workers, buffer int, log *zap.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	p := &WorkerPool{
		jobs:       make(chan queuedJob, buffer),
		log:        log,
		jobTimeout: 2 * time.Minute,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.runOne(j)
	}
}

func (p *WorkerPool) runOne(j queuedJob) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("background job panicked",
				zap.String("job", j.name), zap.Any("panic", r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()
	j.run(ctx)
}

func (p *WorkerPool) Enqueue(name string, job Job) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("dispatcher stopped, drop job", zap.String("job", name))
		return
	}
	select {
	case p.jobs <- queuedJob{name: name, run: job}:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.log.Warn("dispatcher queue full, drop job", zap.String("job", name))
	}
}

// Stop drains queued jobs and waits for in-flight ones.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// SyncDispatcher runs jobs inline; tests use it to assert side effects
// without timing games.
type SyncDispatcher struct {
	mu    sync.Mutex
	Names []string
}

func (d *SyncDispatcher) Enqueue(name string, job Job) {
	d.mu.Lock()
	d.Names = append(d.Names, name)
	d.mu.Unlock()
	job(context.Background())
}
