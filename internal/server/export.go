package server

import (
	"context"
	"encoding/base64"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/summary-extractor/internal/repository"
)

// ExportHistory: {limit?} -> {xlsx_base64}. Struct values carry no bytes,
// so the workbook travels base64-encoded.
func (s *ExtractionService) ExportHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.exporter == nil {
		return nil, status.Error(codes.FailedPrecondition, "export not configured")
	}
	limit := intField(req, "limit", repository.DefaultHistoryLimit)
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}

	xlsx, err := s.exporter.ExportHistoryXLSX(ctx, limit)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "limit", limit, "err", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return respond(map[string]any{"xlsx_base64": base64.StdEncoding.EncodeToString(xlsx)})
}
