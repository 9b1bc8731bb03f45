package services

import (
	"context"
	"errors"
	"sync"
)

// Errors of enqueuing a job
var (
	ErrJobQueueIsFull = errors.New("job queue is full")
	ErrJobQueueClosed = errors.New("job queue is closed")
)

// Job is a unit of work run by a worker of the queue
type Job func(ctx context.Context)

// JobQueueService runs jobs on a fixed set of workers. With a single worker jobs run in enqueue order.
type JobQueueService struct {
	jobs    chan Job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closing bool
}

// NewJobQueueService starts workers that run jobs with ctx until the queue is shut down or ctx is done.
func NewJobQueueService(ctx context.Context, capacity, workers int) *JobQueueService {
	service := &JobQueueService{
		jobs: make(chan Job, capacity),
	}
	service.start(ctx, workers)

	return service
}

// start launches workers that run jobs until the queue is closed and drained or ctx is done
func (jqs *JobQueueService) start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		jqs.wg.Add(1)

		go func() {
			defer jqs.wg.Done()

			for {
				select {
				case job, ok := <-jqs.jobs:
					if !ok {
						return
					}
					job(ctx)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

// Enqueue never blocks: a full or closed queue is reported as an error.
func (jqs *JobQueueService) Enqueue(job Job) error {
	jqs.mu.RLock()
	defer jqs.mu.RUnlock()

	if jqs.closing {
		return ErrJobQueueClosed
	}

	select {
	case jqs.jobs <- job:
		return nil
	default:
		return ErrJobQueueIsFull
	}
}

// Len returns the number of jobs waiting for a worker.
func (jqs *JobQueueService) Len() int {
	return len(jqs.jobs)
}

// Shutdown stops accepting jobs and waits until the workers drain the queue.
func (jqs *JobQueueService) Shutdown() {
	jqs.mu.Lock()
	if jqs.closing {
		jqs.mu.Unlock()
		return
	}
	// Workers exit once the closed queue is drained
	jqs.closing = true
	close(jqs.jobs)
	jqs.mu.Unlock()

	jqs.wg.Wait()
}
