package server

import (
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/summary-extractor/internal/document"
	"github.com/joseph-ayodele/summary-extractor/internal/ingest"
	"github.com/joseph-ayodele/summary-extractor/internal/repository"
)

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// intField returns def when key is absent or not a number.
func intField(s *structpb.Struct, key string, def int) int {
	v, ok := s.GetFields()[key]
	if !ok {
		return def
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return def
	}
	return int(v.GetNumberValue())
}

func boolField(s *structpb.Struct, key string, def bool) bool {
	v, ok := s.GetFields()[key]
	if !ok {
		return def
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return def
	}
	return v.GetBoolValue()
}

func respond(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func stringList(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func documentMap(d document.Document) map[string]any {
	return map[string]any{
		"remaining_file_count": d.RemainingFileCount,
		"workflow_id":          d.WorkflowID,
		"project_name":         d.ProjectName,
		"folder_number":        d.FolderNumber,
		"deposit_date":         d.DepositDate,
	}
}

func documentList(docs []document.Document) []any {
	out := make([]any, len(docs))
	for i, d := range docs {
		out[i] = documentMap(d)
	}
	return out
}

func runMap(r *repository.Run) map[string]any {
	return map[string]any{
		"id":            r.ID.String(),
		"source":        r.Source,
		"content_hash":  r.ContentHash,
		"status":        string(r.Status),
		"format":        r.Format,
		"record_count":  r.RecordCount,
		"error_message": r.ErrorMessage,
		"warnings":      stringList(r.Warnings),
		"processed_at":  r.ProcessedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fileResultMap(r ingest.FileResult) map[string]any {
	return map[string]any{
		"source_path":      r.SourcePath,
		"run_id":           r.RunID,
		"status":           string(r.Status),
		"records":          r.Records,
		"deduplicated":     r.Deduplicated,
		"content_hash_hex": r.HashHex,
		"error":            r.Err,
	}
}
