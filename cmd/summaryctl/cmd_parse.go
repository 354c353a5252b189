package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/summary-extractor/internal/core"
	"github.com/joseph-ayodele/summary-extractor/internal/export"
	"github.com/joseph-ayodele/summary-extractor/internal/extract"
)

type parseOptions struct {
	format string
	last   bool
	force  bool
	out    string
	output string
}

func newParseCmd(a *app) *cobra.Command {
	o := &parseOptions{}
	cmd := &cobra.Command{
		Use:   "parse <files...>",
		Short: "Extract summary records from run logs",
		Long: `Parse every file and print one record per summary block.

Sources may be local paths or s3://bucket/key URIs when S3_ENDPOINT is set.
A failing source does not stop the others; the command exits non-zero when
any source failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.out != "json" && o.out != "xlsx" {
				return fmt.Errorf("--out must be json or xlsx, got %q", o.out)
			}
			if o.last {
				o.format = extract.LastKey
			}
			if a.remote() {
				return runParseRemote(cmd, a, o, args)
			}
			return runParseLocal(cmd, a, o, args)
		},
	}
	cmd.Flags().StringVar(&o.format, "format", "", "extraction strategy key (default: all blocks)")
	cmd.Flags().BoolVar(&o.last, "last", false, "extract only the last summary block")
	cmd.Flags().BoolVar(&o.force, "force", false, "reprocess content already seen")
	cmd.Flags().StringVar(&o.out, "out", "json", "output format: json or xlsx")
	cmd.Flags().StringVarP(&o.output, "output", "o", "summaries.xlsx", "workbook path for --out xlsx")
	return cmd
}

func runParseLocal(cmd *cobra.Command, a *app, o *parseOptions, files []string) error {
	ctx := cmd.Context()
	_, comps, err := a.components(ctx)
	if err != nil {
		return err
	}
	defer comps.Close()

	inputs := make([]core.Input, len(files))
	for i, f := range files {
		inputs[i] = core.Input{Source: f, Format: o.format, Force: o.force}
	}

	var rows []export.Row
	failed := 0
	for _, item := range comps.Processor.ProcessBatch(ctx, inputs) {
		if item.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", item.Input.Source, item.Err)
			continue
		}
		rows = append(rows, export.RowsFor(item.Input.Source, item.Result.Documents)...)
	}

	switch o.out {
	case "xlsx":
		b, err := comps.Exporter.ExportXLSX(rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.output, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.output, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d row(s) to %s\n", len(rows), o.output)
	default:
		if err := export.WriteJSON(cmd.OutOrStdout(), rows); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d source(s) failed", failed, len(files))
	}
	return nil
}

func runParseRemote(cmd *cobra.Command, a *app, o *parseOptions, files []string) error {
	if o.out != "json" {
		return fmt.Errorf("--out %s is only available locally", o.out)
	}
	client, done, err := a.client()
	if err != nil {
		return err
	}
	defer done()

	failed := 0
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
			continue
		}
		res, err := client.Parse(cmd.Context(), filepath.Base(f), string(b), o.format)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
			continue
		}
		if err := printStruct(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d source(s) failed", failed, len(files))
	}
	return nil
}
