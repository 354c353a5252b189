package main

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/repository"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		id    string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List processed sources, newest first",
		Long: `List the parse history. Locally this reads the database named by
DB_DRIVER and DB_URL; an in-memory SQLite database starts empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.remote() {
				client, done, err := a.client()
				if err != nil {
					return err
				}
				defer done()
				var res *structpb.Struct
				if id != "" {
					res, err = client.Call(cmd.Context(), "History", map[string]any{"id": id})
				} else {
					res, err = client.History(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				return printStruct(cmd.OutOrStdout(), res)
			}

			_, comps, err := a.components(cmd.Context())
			if err != nil {
				return err
			}
			defer comps.Close()
			var runs []*repository.Run
			if id != "" {
				if err := common.ValidateAndReturnError(common.NewValidator().Field("id", id, common.UUID)); err != nil {
					return err
				}
				run, err := comps.History.GetByID(cmd.Context(), uuid.MustParse(id))
				if err != nil {
					return err
				}
				runs = append(runs, run)
			} else if runs, err = comps.History.List(cmd.Context(), limit); err != nil {
				return err
			}
			if runs == nil {
				runs = []*repository.Run{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultHistoryLimit, "maximum number of runs")
	cmd.Flags().StringVar(&id, "id", "", "show only the run with this id")
	return cmd
}
