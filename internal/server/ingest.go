package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	qasync "github.com/joseph-ayodele/summary-extractor/internal/core/async"
)

// IngestFile processes one path on the daemon's filesystem.
func (s *ExtractionService) IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.ingestor == nil {
		return nil, status.Error(codes.FailedPrecondition, "ingest not configured")
	}
	path := strings.TrimSpace(stringField(req, "path"))
	if path == "" {
		s.logger.Error("ingest request missing path")
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}

	s.logger.Info("starting file ingest", "path", path)
	r, err := s.ingestor.IngestPath(ctx, path)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	s.logger.Info("file ingest succeeded", "path", path, "run_id", r.RunID, "deduplicated", r.Deduplicated)
	return respond(fileResultMap(r))
}

// IngestDirectory walks root_path; skip_hidden defaults to true.
func (s *ExtractionService) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.ingestor == nil {
		return nil, status.Error(codes.FailedPrecondition, "ingest not configured")
	}
	root := strings.TrimSpace(stringField(req, "root_path"))
	if root == "" {
		s.logger.Error("ingest directory request missing root_path")
		return nil, status.Error(codes.InvalidArgument, "root_path is required")
	}
	skipHidden := boolField(req, "skip_hidden", true)

	s.logger.Info("starting directory ingest", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "ingest directory: %v", err)
	}

	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, fileResultMap(r))
	}
	return respond(map[string]any{
		"scanned":      int(stats.Scanned),
		"matched":      int(stats.Matched),
		"succeeded":    int(stats.Succeeded),
		"deduplicated": int(stats.Deduplicated),
		"failed":       int(stats.Failed),
		"results":      items,
	})
}

// Enqueue hands a source to the worker queue and returns its trace id.
func (s *ExtractionService) Enqueue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.queue == nil {
		return nil, status.Error(codes.FailedPrecondition, "queue not configured")
	}
	src := strings.TrimSpace(stringField(req, "source"))
	if src == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}
	traceID := common.RequestIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	job := jobs.Job{
		Source:      src,
		Format:      stringField(req, "format"),
		Force:       boolField(req, "force", false),
		SubmittedAt: time.Now(),
		TraceID:     traceID,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if errors.Is(err, qasync.ErrQueueClosed) {
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		return nil, status.FromContextError(err).Err()
	}
	return respond(map[string]any{"trace_id": traceID})
}
