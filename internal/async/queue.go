package async

import (
	"context"
	"time"
)

// Job is one source waiting to be processed.
type Job struct {
	Source      string
	Format      string
	Force       bool // process even when the content hash was seen before
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
