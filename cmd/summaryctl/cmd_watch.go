package main

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spf13/cobra"

	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
	qasync "github.com/joseph-ayodele/summary-extractor/internal/core/async"
	"github.com/joseph-ayodele/summary-extractor/internal/ingest"
)

// watchEvent is printed, one JSON object per line, for every processed file.
type watchEvent struct {
	Source  string `json:"source"`
	TraceID string `json:"trace_id"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		format  string
		initial bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Process run logs as they land in a directory",
		Long: `Watch dir recursively and parse every .txt or .log file that is created
or written. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, comps, err := a.components(ctx)
			if err != nil {
				return err
			}
			defer comps.Close()
			if format == "" {
				format = cfg.Watch.Format
			}

			var mu sync.Mutex
			enc := json.NewEncoder(cmd.OutOrStdout())
			q := qasync.NewProcessorQueue(comps.Processor, a.logger,
				qasync.WithWorkers(cfg.Worker.Workers),
				qasync.WithQueueSize(cfg.Worker.QueueSize),
				qasync.WithProcessTimeout(cfg.Worker.ProcessTimeout),
				qasync.WithResultHandler(func(job jobs.Job, res *core.Result, err error) {
					ev := watchEvent{Source: job.Source, TraceID: job.TraceID}
					if err != nil {
						ev.Error = err.Error()
					} else {
						ev.Result = res
					}
					mu.Lock()
					defer mu.Unlock()
					_ = enc.Encode(ev)
				}),
			)

			events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:           []string{args[0]},
				InitialScan:     initial,
				SkipHidden:      true,
				Debounce:        cfg.Watch.Debounce,
				EventsPerSecond: cfg.WatchEventsPerSecond(),
				Burst:           cfg.Worker.Workers,
				Logger:          a.logger,
			})
			if err != nil {
				q.Shutdown(context.Background())
				return err
			}

			n := ingest.Forward(ctx, events, errs, q, format, a.logger)
			q.Shutdown(context.Background())
			a.logger.Info("watch.stopped", "dir", args[0], "enqueued", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "extraction strategy key (default: WATCH_FORMAT)")
	cmd.Flags().BoolVar(&initial, "initial-scan", true, "process files already present at start")
	return cmd
}
