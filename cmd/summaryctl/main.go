package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/server"
)

// app carries the persistent flags and the logger built from them.
type app struct {
	addr    string
	verbose bool
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "summaryctl",
		Short: "Extract test-runner summary blocks from run logs",
		Long: `summaryctl reads run logs, locates every summary block and prints the
extracted records.

Commands run in-process by default. With --addr they are sent to a running
summaryd instead.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.addr, "addr", "", "summaryd address (host:port); empty runs locally")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(newParseCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newWatchCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) remote() bool { return a.addr != "" }

// components builds the local processor stack from the environment.
func (a *app) components(ctx context.Context) (*common.Config, *server.Components, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	comps, err := server.Bootstrap(ctx, cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, comps, nil
}

func (a *app) client() (*server.ExtractionClient, func(), error) {
	conn, err := grpc.NewClient(a.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", a.addr, err)
	}
	return server.NewExtractionClient(conn), func() { _ = conn.Close() }, nil
}

func printStruct(w io.Writer, s *structpb.Struct) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
