package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
	"github.com/joseph-ayodele/summary-extractor/internal/core/async"
	"github.com/joseph-ayodele/summary-extractor/internal/ingest"
	svc "github.com/joseph-ayodele/summary-extractor/internal/server"
)

func main() {
	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := svc.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer comps.Close()

	queue := async.NewProcessorQueue(comps.Processor, logger,
		async.WithWorkers(cfg.Worker.Workers),
		async.WithQueueSize(cfg.Worker.QueueSize),
		async.WithProcessTimeout(cfg.Worker.ProcessTimeout),
		async.WithResultHandler(func(job jobs.Job, res *core.Result, err error) {
			if err != nil {
				logger.Warn("job.failed", "source", job.Source, "trace_id", job.TraceID, "kind", common.KindOf(err))
				return
			}
			logger.Info("job.done", "source", job.Source, "trace_id", job.TraceID, "status", res.Status, "records", len(res.Records))
		}),
	)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(svc.UnaryLogging(logger)))

	extraction := svc.NewExtractionService(comps.Processor, comps.History, comps.Ingestor, queue, comps.Exporter, logger)
	svc.RegisterExtractionServiceServer(grpcServer, extraction)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(svc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	watchDone := make(chan struct{})
	if cfg.Watch.Dir != "" {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:           []string{cfg.Watch.Dir},
			InitialScan:     true,
			SkipHidden:      true,
			Debounce:        cfg.Watch.Debounce,
			EventsPerSecond: cfg.WatchEventsPerSecond(),
			Burst:           cfg.Worker.Workers,
			Logger:          logger,
		})
		if err != nil {
			logger.Error("failed to start watcher", "dir", cfg.Watch.Dir, "error", err)
			os.Exit(1)
		}
		go func() {
			defer close(watchDone)
			n := ingest.Forward(ctx, events, errs, queue, cfg.Watch.Format, logger)
			logger.Info("watcher stopped", "enqueued", n)
		}()
		logger.Info("watching drop folder", "dir", cfg.Watch.Dir)
	} else {
		close(watchDone)
	}

	logger.Info("summaryd listening", "addr", addr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	<-watchDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
}
