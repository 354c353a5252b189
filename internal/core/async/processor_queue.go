package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// ResultHandler receives every finished job.
type ResultHandler func(job jobs.Job, res *core.Result, err error)

type ProcessorQueue struct {
	proc    *core.Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDone  ResultHandler

	ch   chan jobs.Job
	wg   sync.WaitGroup
	once sync.Once

	// stop aborts rate-limit waits once Shutdown gives up on draining.
	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	closed bool
}

var _ jobs.Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan jobs.Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithResultHandler(h ResultHandler) Option {
	return func(q *ProcessorQueue) { q.onDone = h }
}

func NewProcessorQueue(proc *core.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: time.Minute,
		ch:      make(chan jobs.Job, 256),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.handle(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// handle runs one job. A job denied by the rate limiter is held by its worker
// and retried once the limiter frees a slot.
func (q *ProcessorQueue) handle(workerID int, job jobs.Job) {
	res, err := q.process(job)
	for errors.Is(err, common.ErrRateLimited) {
		wait := q.proc.RetryAfter()
		q.logger.Warn("queue.process.rate_limited", "worker_id", workerID, "source", job.Source, "retry_in_ms", wait.Milliseconds())
		if !q.sleep(wait) {
			break
		}
		res, err = q.process(job)
	}

	if err != nil {
		q.logger.Error("queue.process.failed", "worker_id", workerID, "source", job.Source, "error", err)
	} else {
		q.logger.Info("queue.process.ok", "worker_id", workerID, "source", job.Source,
			"records", len(res.Records), "queued_ms", time.Since(job.SubmittedAt).Milliseconds())
	}
	if q.onDone != nil {
		q.onDone(job, res, err)
	}
}

func (q *ProcessorQueue) process(job jobs.Job) (*core.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	return q.proc.Process(ctx, core.Input{Source: job.Source, Format: job.Format, Force: job.Force})
}

// sleep waits for d and reports false when the queue was stopped first.
func (q *ProcessorQueue) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-q.stop:
		return false
	case <-t.C:
		return true
	}
}

// Enqueue blocks when the queue is full until a slot frees up or ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "source", job.Source)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued source for processing", "source", job.Source, "force", job.Force)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "source", job.Source)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to finish. When ctx ends
// first, jobs still waiting on the rate limiter are reported with their
// rate-limit error.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.stopOnce.Do(func() { close(q.stop) })
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
