package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
	"github.com/joseph-ayodele/summary-extractor/internal/export"
	"github.com/joseph-ayodele/summary-extractor/internal/ingest"
	"github.com/joseph-ayodele/summary-extractor/internal/repository"
)

// InlineSourceName labels content sent directly in a Parse request.
const InlineSourceName = "inline"

// ExtractionService serves the extractor over gRPC. History, ingestor, queue
// and exporter are optional; the methods needing them answer
// FailedPrecondition when they are missing.
type ExtractionService struct {
	UnimplementedExtractionServiceServer
	proc     *core.Processor
	history  repository.HistoryRepository
	ingestor ingest.Ingestor
	queue    jobs.Queue
	exporter *export.Service
	logger   *slog.Logger
}

var _ ExtractionServiceServer = (*ExtractionService)(nil)

func NewExtractionService(proc *core.Processor, history repository.HistoryRepository, ing ingest.Ingestor, queue jobs.Queue, exporter *export.Service, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		proc:     proc,
		history:  history,
		ingestor: ing,
		queue:    queue,
		exporter: exporter,
		logger:   logger,
	}
}

// Parse: {content, format?, name?} -> {id, status, content_hash, records, warnings}.
func (s *ExtractionService) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, "name")
	if name == "" {
		name = InlineSourceName
	}
	res, err := s.proc.ProcessContent(ctx, name, stringField(req, "content"), stringField(req, "format"))
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Warn("parse request failed", "name", name, "error", err)
		return nil, common.ToStatus(err)
	}
	return respond(map[string]any{
		"id":           res.ID.String(),
		"status":       string(res.Status),
		"content_hash": res.ContentHash,
		"records":      documentList(res.Documents),
		"warnings":     stringList(res.Warnings),
	})
}

// Validate runs the sanitizer only. Rejected content is reported in the
// response, not as an RPC error.
func (s *ExtractionService) Validate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.proc.Sanitizer().ValidateAndSanitize(stringField(req, "content"))
	if err != nil {
		var ae *common.AppError
		if !errors.As(err, &ae) {
			return nil, common.ToStatus(err)
		}
		return respond(map[string]any{
			"is_valid":          false,
			"error":             ae.Message,
			"details":           stringList(ae.Details),
			"warnings":          stringList(ae.Warnings),
			"sanitized_content": "",
		})
	}
	return respond(map[string]any{
		"is_valid":          res.IsValid,
		"warnings":          stringList(res.Warnings),
		"sanitized_content": res.SanitizedContent,
	})
}

// History: {limit?} -> {runs}, newest first. {id} returns that one run.
func (s *ExtractionService) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.history == nil {
		return nil, status.Error(codes.FailedPrecondition, "history store not configured")
	}
	if id, ok := req.GetFields()["id"]; ok {
		return s.historyRun(ctx, id.GetStringValue())
	}
	runs, err := s.history.List(ctx, intField(req, "limit", repository.DefaultHistoryLimit))
	if err != nil {
		s.logger.Warn("list history failed", "error", err)
		return nil, status.Error(codes.Internal, "list history failed")
	}
	out := make([]any, 0, len(runs))
	for _, r := range runs {
		out = append(out, runMap(r))
	}
	return respond(map[string]any{"runs": out})
}

func (s *ExtractionService) historyRun(ctx context.Context, id string) (*structpb.Struct, error) {
	v := common.NewValidator().Field("id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	run, err := s.history.GetByID(ctx, uuid.MustParse(id))
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("get history run failed", "id", id, "error", err)
		}
		return nil, common.ToStatus(err)
	}
	return respond(map[string]any{"runs": []any{runMap(run)}})
}
