package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ms-loyalty/app"
	"ms-loyalty/models"
)

func runsCmd(env *cliEnv) *cobra.Command {
	var docID, docType string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List processing journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !env.cfg.Database.Configured() {
				return fmt.Errorf("no database configured: set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
			}

			ctx := cmd.Context()
			repo, cleanup, err := app.InitJournal(ctx, env.cfg, env.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := models.RunFilter{Limit: limit}
			if docID != "" {
				filter.DocID = &docID
			}
			if docType != "" {
				filter.DocType = &docType
			}

			runs, err := repo.List(ctx, filter)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(models.RunListResponse{Runs: runs})
		},
	}

	cmd.Flags().StringVar(&docID, "doc-id", "", "Only runs for this document id")
	cmd.Flags().StringVar(&docType, "doc-type", "", "Only runs for this document type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum runs")
	return cmd
}
