package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	ld "github.com/gofhir/jsonld"
)

// Pool manages a pool of worker goroutines for parallel expansion.
type Pool struct {
	workers  int
	jobs     chan Job
	results  chan *ld.Result
	expander Expander
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// mu guards the send side of jobs against close.
	mu      sync.RWMutex
	closing atomic.Bool

	// Metrics
	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	totalDuration atomic.Int64
}

// NewPool creates a new worker pool with the specified number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(exp Expander, workers int) *Pool {
	return NewPoolWithContext(context.Background(), exp, workers)
}

// NewPoolWithContext is NewPool with a parent context; cancelling it aborts
// the pool like Close.
func NewPoolWithContext(parent context.Context, exp Expander, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(parent)

	p := &Pool{
		workers:  workers,
		jobs:     make(chan Job, workers*2),
		results:  make(chan *ld.Result, workers*2),
		expander: exp,
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// Submit submits a job to the pool for processing, assigning it an ID when
// it has none. It blocks while the job queue is full and returns false once
// the pool is closing.
func (p *Pool) Submit(job Job) bool {
	return p.submit(job, true)
}

// SubmitAsync submits a job without blocking.
// Returns false if the job queue is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	return p.submit(job, false)
}

func (p *Pool) submit(job Job, wait bool) bool {
	if p.closing.Load() {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closing.Load() {
		return false
	}

	if job.ID == "" {
		job.ID = NewJobID()
	}

	if wait {
		select {
		case <-p.ctx.Done():
			return false
		case p.jobs <- job:
		}
	} else {
		select {
		case <-p.ctx.Done():
			return false
		case p.jobs <- job:
		default:
			return false
		}
	}
	p.jobsSubmitted.Add(1)
	return true
}

// Results returns the channel for receiving job results.
//
// Results are delivered in completion order. Callers that read this channel
// must not also call CloseAndWait, which drains it.
func (p *Pool) Results() <-chan *ld.Result {
	return p.results
}

// Close aborts the pool: queued jobs are discarded, running expansions are
// cancelled, and pending results are dropped. It waits for all workers.
func (p *Pool) Close() {
	if p.closing.Swap(true) {
		return
	}
	p.cancel()
	p.shutdown(func(*ld.Result) {})
}

// CloseAndWait stops accepting jobs, lets the workers finish everything
// already queued, and returns the collected results.
func (p *Pool) CloseAndWait() *BatchResult {
	batch := &BatchResult{}
	if p.closing.Swap(true) {
		return batch
	}
	p.shutdown(func(r *ld.Result) {
		batch.Results = append(batch.Results, r)
		batch.record(r)
	})
	p.cancel()
	batch.TotalJobs = int(p.jobsSubmitted.Load())
	return batch
}

// Finish stops accepting jobs without waiting. Queued jobs still run, and
// Results is closed once the last of them is delivered, so a reader can
// range over it.
func (p *Pool) Finish() {
	if p.closing.Swap(true) {
		return
	}
	p.mu.Lock()
	close(p.jobs)
	p.mu.Unlock()

	go func() {
		p.wg.Wait()
		close(p.results)
		p.cancel()
	}()
}

// shutdown closes the queue and feeds every remaining result to collect
// until all workers have exited.
func (p *Pool) shutdown(collect func(*ld.Result)) {
	done := make(chan struct{})
	go func() {
		for r := range p.results {
			collect(r)
		}
		close(done)
	}()

	p.mu.Lock()
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.results)
	<-done
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		JobsFailed:    p.jobsFailed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	AvgDuration   time.Duration
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		if p.ctx.Err() != nil {
			return
		}

		result := job.Run(p.ctx, p.expander)
		p.jobsCompleted.Add(1)
		p.totalDuration.Add(int64(result.Duration))
		if !result.OK() {
			p.jobsFailed.Add(1)
		}

		select {
		case <-p.ctx.Done():
			return
		case p.results <- result:
		}
	}
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / int64(completed))
}

// ErrNoExpander is returned when the pool has no expander configured.
var ErrNoExpander = poolError("no expander configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
