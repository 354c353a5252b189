package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

// Run is one processed source as recorded in parse_history.
type Run struct {
	ID           uuid.UUID           `json:"id"`
	Source       string              `json:"source"`
	ContentHash  string              `json:"content_hash"`
	Status       constants.RunStatus `json:"status"`
	Format       string              `json:"format"`
	RecordCount  int                 `json:"record_count"`
	Records      json.RawMessage     `json:"records"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Warnings     []string            `json:"warnings"`
	ProcessedAt  time.Time           `json:"processed_at"`
}

type HistoryRepository interface {
	Create(ctx context.Context, run *Run) (*Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	// GetByHash returns the latest successful run for a content hash.
	GetByHash(ctx context.Context, hash string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
}

const DefaultHistoryLimit = 50

type historyRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewHistoryRepository(db *DB, log *slog.Logger) HistoryRepository {
	if log == nil {
		log = slog.Default()
	}
	return &historyRepo{db: db, log: log, now: time.Now}
}

const historyColumns = `id, source, content_hash, status, format, record_count, records, error_message, warnings, processed_at`

// Create inserts run, filling ID and ProcessedAt when unset.
func (r *historyRepo) Create(ctx context.Context, run *Run) (*Run, error) {
	row := *run
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ProcessedAt.IsZero() {
		row.ProcessedAt = r.now()
	}
	row.ProcessedAt = row.ProcessedAt.UTC().Truncate(time.Millisecond)
	if row.Format == "" {
		row.Format = "default"
	}
	if len(row.Records) == 0 {
		row.Records = json.RawMessage("[]")
	}
	if row.Warnings == nil {
		row.Warnings = []string{}
	}
	warnings, err := json.Marshal(row.Warnings)
	if err != nil {
		return nil, fmt.Errorf("encode warnings: %w", err)
	}

	q := r.db.rebind(`INSERT INTO parse_history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, q,
		row.ID.String(), row.Source, row.ContentHash, string(row.Status), row.Format,
		row.RecordCount, string(row.Records), row.ErrorMessage, string(warnings),
		row.ProcessedAt.UnixMilli(),
	)
	if err != nil {
		r.log.Error("history create failed", "source", row.Source, "error", err)
		return nil, err
	}
	r.log.Debug("history.created", "id", row.ID, "source", row.Source, "status", row.Status)
	return &row, nil
}

func (r *historyRepo) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	q := r.db.rebind(`SELECT ` + historyColumns + ` FROM parse_history WHERE id = ?`)
	return r.one(ctx, q, id.String())
}

func (r *historyRepo) GetByHash(ctx context.Context, hash string) (*Run, error) {
	q := r.db.rebind(`SELECT ` + historyColumns + ` FROM parse_history
		WHERE content_hash = ? AND status = ?
		ORDER BY processed_at DESC LIMIT 1`)
	return r.one(ctx, q, hash, string(constants.RunStatusSuccess))
}

// List returns the most recent runs first.
func (r *historyRepo) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	q := r.db.rebind(`SELECT ` + historyColumns + ` FROM parse_history ORDER BY processed_at DESC, id LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		r.log.Error("history list failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *historyRepo) one(ctx context.Context, q string, args ...any) (*Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run                 Run
		id, status, records string
		warnings            string
		processedAt         int64
	)
	err := s.Scan(&id, &run.Source, &run.ContentHash, &status, &run.Format,
		&run.RecordCount, &records, &run.ErrorMessage, &warnings, &processedAt)
	if err != nil {
		return nil, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("decode id: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	run.Status = constants.RunStatus(status)
	run.Records = json.RawMessage(records)
	run.ProcessedAt = time.UnixMilli(processedAt).UTC()
	return &run, nil
}
