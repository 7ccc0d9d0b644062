package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"ms-loyalty/app"
	"ms-loyalty/service"
)

func applyCmd(env *cliEnv) *cobra.Command {
	var docType, docID string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Process one document and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.cfg
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.DryRun = dryRun
			}

			ctx := cmd.Context()
			runs, cleanup, err := app.InitJournal(ctx, cfg, env.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			client := service.NewMoySkladService(cfg, env.logger)
			processor := service.NewLoyaltyService(client, runs, cfg, env.logger)

			result, err := processor.ProcessDocument(ctx, docType, docID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&docType, "type", "customerorder", "Document type (customerorder, demand, ...)")
	cmd.Flags().StringVar(&docID, "id", "", "Document id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan without writing back (overrides DRY_RUN)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
