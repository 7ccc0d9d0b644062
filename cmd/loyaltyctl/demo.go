package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ms-loyalty/loyalty"
	"ms-loyalty/models"
	"ms-loyalty/utils"
)

func demoCmd(env *cliEnv) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Plan discounts for a MoySklad document stored in a JSON file",
		Long: `Reads a document as returned by MoySklad with expand=agent and the
positions inline, plans the loyalty discounts and prints the positions that
would change. Nothing is sent upstream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), file, env.cfg.Loyalty)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "document.json", "JSON document file")
	return cmd
}

func runDemo(out io.Writer, path string, settings loyalty.Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	// Files saved by Windows tools often start with a BOM.
	data = trimBOM(data)

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	positions, err := doc.PositionRows()
	if err != nil {
		return err
	}

	snapshot := doc.Snapshot(positions)
	if loyalty.IsDocumentDisabled(snapshot, settings) {
		fmt.Fprintln(out, "Document has loyalty disabled; discounts will not be applied by the processor.")
		// Show what the plan would be without the opt-out.
		settings.DisableLoyaltyAttr = ""
	}

	plan := loyalty.PlanUpdate(snapshot, settings)
	fmt.Fprintf(out, "Discount percent: %s\n", plan.DiscountPercent.String())
	fmt.Fprintln(out, "Updated positions:")
	for _, pos := range plan.Changed {
		line, err := json.Marshal(pos)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(line))
	}
	fmt.Fprintf(out, "Loyalty discount sum: %d (%s)\n", plan.DiscountSum, utils.FormatRUB(plan.DiscountSum))
	return nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
