// Package ingest discovers run logs on disk, either in one pass over a
// directory tree or continuously through a drop-folder watcher.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/summary-extractor/constants"
)

// FileResult is the per-file ingest outcome.
type FileResult struct {
	SourcePath   string
	RunID        string
	Status       constants.RunStatus
	Records      int
	Deduplicated bool
	HashHex      string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the CLI and daemon depend on.
type Ingestor interface {
	// IngestPath processes a single path.
	IngestPath(ctx context.Context, path string) (FileResult, error)
	// IngestDirectory processes all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error)
}
