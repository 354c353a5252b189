package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	repo "github.com/joseph-ayodele/summary-extractor/internal/repository"
)

// ConnectDB opens the history database, pings it and applies the schema.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		repo.Close(db, logger)
		return nil, err
	}
	if err := repo.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		repo.Close(db, logger)
		return nil, err
	}
	logger.Info("successfully connected to database", "driver", db.Driver())
	return db, nil
}
