package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
)

// Forward enqueues every watched path as a job until events closes or ctx
// ends. It returns the number of jobs enqueued.
func Forward(ctx context.Context, events <-chan string, errs <-chan error, q jobs.Queue, format string, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("ingest.watch.error", "error", err)
		case path, ok := <-events:
			if !ok {
				return n
			}
			job := jobs.Job{Source: path, Format: format, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Error("ingest.enqueue.failed", "path", path, "error", err)
				continue
			}
			n++
		}
	}
}
