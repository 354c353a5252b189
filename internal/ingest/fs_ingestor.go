package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
)

// FSIngestor feeds local files to a Processor.
type FSIngestor struct {
	proc   *core.Processor
	format string
	logger *slog.Logger
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(proc *core.Processor, format string, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{proc: proc, format: format, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (FileResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileResult{SourcePath: path, Err: err.Error()}, err
	}
	res, err := i.proc.Process(ctx, core.Input{Source: abs, Format: i.format})
	return toFileResult(abs, res, err), err
}

// IngestDirectory walks root, skips hidden entries if requested, and processes
// every file with an allowed extension. Files whose content already appeared
// earlier in the same walk are reported as deduplicated without processing.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		results []FileResult
		stats   DirStats
		inputs  []core.Input
		slots   []int
	)
	seen := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		hash, err := hashFile(path)
		if err != nil {
			results = append(results, FileResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if first, dup := seen[hash]; dup {
			i.logger.Info("ingest.dedup", "path", path, "same_as", first)
			results = append(results, FileResult{SourcePath: path, HashHex: hash, Deduplicated: true, Status: constants.RunStatusDuplicate})
			stats.Succeeded++
			stats.Deduplicated++
			return nil
		}
		seen[hash] = path

		slots = append(slots, len(results))
		results = append(results, FileResult{SourcePath: path, HashHex: hash})
		inputs = append(inputs, core.Input{Source: path, Format: i.format})
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	for k, item := range i.proc.ProcessBatch(ctx, inputs) {
		fr := toFileResult(item.Input.Source, item.Result, item.Err)
		results[slots[k]] = fr
		switch {
		case item.Err != nil:
			stats.Failed++
		case fr.Deduplicated:
			stats.Succeeded++
			stats.Deduplicated++
		default:
			stats.Succeeded++
		}
	}

	i.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

func toFileResult(path string, res *core.Result, err error) FileResult {
	if err != nil {
		return FileResult{SourcePath: path, Status: constants.RunStatusFailed, Err: err.Error()}
	}
	return FileResult{
		SourcePath:   path,
		RunID:        res.ID.String(),
		Status:       res.Status,
		Records:      len(res.Records),
		Deduplicated: res.Status == constants.RunStatusDuplicate,
		HashHex:      res.ContentHash,
	}
}
