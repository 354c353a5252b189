package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/summary-extractor/internal/document"
	"github.com/joseph-ayodele/summary-extractor/internal/extract"
	"github.com/joseph-ayodele/summary-extractor/internal/repository"
)

const SheetName = "Summaries"

// Row is one exported summary with the source it came from.
type Row struct {
	Source string `json:"source"`
	document.Document
}

// Service turns summaries into XLSX workbooks or JSON.
type Service struct {
	history repository.HistoryRepository
	logger  *slog.Logger
}

// NewService accepts a nil history; ExportHistoryXLSX then fails.
func NewService(history repository.HistoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger}
}

// RowsFor pairs each document with source.
func RowsFor(source string, docs []document.Document) []Row {
	rows := make([]Row, len(docs))
	for i, d := range docs {
		rows[i] = Row{Source: source, Document: d}
	}
	return rows
}

// ExportXLSX returns a workbook (as bytes) with one row per summary.
func (s *Service) ExportXLSX(rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	headers := []string{
		"Source",
		"Remaining Files",
		"Workflow ID",
		"Project Name",
		"Folder Number",
		"Deposit Date",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, r.Source)
		write(2, r.RemainingFileCount)
		write(3, r.WorkflowID)
		write(4, r.ProjectName)
		write(5, r.FolderNumber)
		write(6, r.DepositDate)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 48) // source
	_ = f.SetColWidth(SheetName, "B", "B", 16)
	_ = f.SetColWidth(SheetName, "C", "C", 22)
	_ = f.SetColWidth(SheetName, "D", "D", 48) // project
	_ = f.SetColWidth(SheetName, "E", "F", 18)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportHistoryXLSX exports the records of the latest successful runs.
func (s *Service) ExportHistoryXLSX(ctx context.Context, limit int) ([]byte, error) {
	if s.history == nil {
		return nil, fmt.Errorf("export history: no history repository")
	}
	runs, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	var rows []Row
	for _, run := range runs {
		if run.RecordCount == 0 {
			continue
		}
		var records []extract.Record
		if err := json.Unmarshal(run.Records, &records); err != nil {
			s.logger.Warn("export.history.skip", "id", run.ID, "error", err)
			continue
		}
		rows = append(rows, RowsFor(run.Source, document.FromRecords(records))...)
	}
	return s.ExportXLSX(rows)
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
