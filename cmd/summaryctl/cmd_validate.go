package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
	"github.com/joseph-ayodele/summary-extractor/internal/server"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a run log against the sanitizer rules without parsing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if a.remote() {
				client, done, err := a.client()
				if err != nil {
					return err
				}
				defer done()
				res, err := client.Validate(cmd.Context(), string(b))
				if err != nil {
					return err
				}
				return printStruct(cmd.OutOrStdout(), res)
			}

			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			san, err := server.NewSanitizer(cfg.Limits)
			if err != nil {
				return err
			}
			res, verr := san.ValidateAndSanitize(string(b))
			if verr != nil {
				var ae *common.AppError
				if errors.As(verr, &ae) {
					res = sanitizer.ValidationResult{Errors: ae.Details, Warnings: append([]string{}, ae.Warnings...)}
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if verr != nil {
				return fmt.Errorf("%s is not valid: %w", args[0], verr)
			}
			return nil
		},
	}
}
