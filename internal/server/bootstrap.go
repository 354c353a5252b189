package server

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
	"github.com/joseph-ayodele/summary-extractor/internal/export"
	"github.com/joseph-ayodele/summary-extractor/internal/ingest"
	"github.com/joseph-ayodele/summary-extractor/internal/ratelimit"
	repo "github.com/joseph-ayodele/summary-extractor/internal/repository"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
	"github.com/joseph-ayodele/summary-extractor/internal/source"
)

// Components is everything a binary needs, built from one Config.
type Components struct {
	DB        *repo.DB
	History   repo.HistoryRepository
	Limiter   *ratelimit.Limiter
	Processor *core.Processor
	Exporter  *export.Service
	Ingestor  *ingest.FSIngestor
	logger    *slog.Logger
}

// Bootstrap wires the processor stack. Close releases the database.
func Bootstrap(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	san, err := NewSanitizer(cfg.Limits)
	if err != nil {
		return nil, err
	}
	reader, err := NewReader(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	history := repo.NewHistoryRepository(db, logger)
	limiter := ratelimit.New(
		ratelimit.WithWindow(cfg.RateLimit.Window),
		ratelimit.WithMaxRequests(cfg.RateLimit.MaxRequests),
	)
	proc := core.NewProcessor(reader, san, nil,
		core.WithLogger(logger),
		core.WithLimiter(limiter),
		core.WithHistory(history),
		core.WithSkipDuplicates(cfg.Worker.SkipDuplicates),
		core.WithConcurrency(cfg.Worker.Workers),
	)
	return &Components{
		DB:        db,
		History:   history,
		Limiter:   limiter,
		Processor: proc,
		Exporter:  export.NewService(history, logger),
		Ingestor:  ingest.NewFSIngestor(proc, cfg.Watch.Format, logger),
		logger:    logger,
	}, nil
}

func (c *Components) Close() {
	repo.Close(c.DB, c.logger)
}

// NewSanitizer loads the sanitizer file when one is configured; otherwise the
// defaults are used with the configured ceilings.
func NewSanitizer(cfg common.LimitsConfig) (*sanitizer.Sanitizer, error) {
	if cfg.SanitizerFile != "" {
		sc, err := sanitizer.LoadConfigFile(cfg.SanitizerFile)
		if err != nil {
			return nil, err
		}
		return sanitizer.New(sc)
	}
	sc := sanitizer.DefaultConfig()
	sc.MaxLines = cfg.MaxLines
	sc.MaxLineLength = cfg.MaxLineLength
	sc.MaxFileSize = cfg.MaxFileSize
	return sanitizer.New(sc)
}

// NewReader reads local paths, plus s3:// URIs when an endpoint is set.
func NewReader(cfg *common.Config) (source.Reader, error) {
	opts := source.Options{MaxSize: cfg.Limits.MaxFileSize, Timeout: cfg.Limits.ReadTimeout}
	files := source.NewFileReader(opts)
	if cfg.Storage.Endpoint == "" {
		return source.NewMuxReader(files, nil), nil
	}
	store, err := source.NewMinioStore(source.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return source.NewMuxReader(files, source.NewObjectReader(store, opts)), nil
}
