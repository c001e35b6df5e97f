package worker

import (
	"context"
	"runtime"
	"sync"
)

// Job represents a unit of work, usually one input file
type Job interface {
	Process(ctx context.Context) error
	ID() string
}

// Result contains the outcome of processing a job
type Result struct {
	JobID string
	Error error
}

// Observer is notified when workers pick up and finish jobs
type Observer interface {
	JobStarted(workerID int, jobID string)
	JobFinished(workerID int, jobID string, err error)
}

// Pool manages a pool of worker goroutines
type Pool struct {
	workerCount int
	jobs        chan Job
	results     chan Result
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	observer    Observer
}

// NewPool creates a new worker pool. Zero or negative workerCount means one
// worker per CPU.
func NewPool(ctx context.Context, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workerCount: workerCount,
		jobs:        make(chan Job, workerCount*2),
		results:     make(chan Result, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// WithObserver attaches a progress observer. It must be called before Start.
func (p *Pool) WithObserver(o Observer) *Pool {
	p.observer = o
	return p
}

// Start begins processing jobs
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue, waits for queued jobs and closes Results
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

// ForceStop cancels running jobs and drops queued ones
func (p *Pool) ForceStop() {
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
}

// Submit adds a job to the processing queue. It returns false once the pool
// is cancelled.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Results returns the results channel
func (p *Pool) Results() <-chan Result {
	return p.results
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			if p.observer != nil {
				p.observer.JobStarted(id, job.ID())
			}

			err := p.ctx.Err()
			if err == nil {
				err = job.Process(p.ctx)
			}

			if p.observer != nil {
				p.observer.JobFinished(id, job.ID(), err)
			}

			p.results <- Result{
				JobID: job.ID(),
				Error: err,
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// WorkerCount returns the number of workers in the pool
func (p *Pool) WorkerCount() int {
	return p.workerCount
}

// Run processes all jobs and returns their results in submission order.
// Job IDs must be unique.
func Run(ctx context.Context, workerCount int, observer Observer, jobs []Job) []Result {
	pool := NewPool(ctx, workerCount).WithObserver(observer)
	pool.Start()

	go func() {
		for _, job := range jobs {
			if !pool.Submit(job) {
				break
			}
		}
		pool.Stop()
	}()

	byID := make(map[string]Result, len(jobs))
	for result := range pool.Results() {
		byID[result.JobID] = result
	}

	results := make([]Result, len(jobs))
	for i, job := range jobs {
		result, ok := byID[job.ID()]
		if !ok {
			result = Result{JobID: job.ID(), Error: context.Cause(pool.ctx)}
			if result.Error == nil {
				result.Error = context.Canceled
			}
		}
		results[i] = result
	}
	return results
}
