package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RefreshCmd returns the one-shot ingestion command.
func RefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one ingestion cycle and exit",
		Long: `Fetch every registered catalog once, upsert the normalized records,
run an enrichment pass, and print the per-catalog outcome.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			outcomes := app.orch.RefreshAll(cmd.Context())

			failed := 0
			for _, out := range outcomes {
				if out.Err != nil {
					failed++
					fmt.Printf("  %s %-14s %v\n", color.New(color.FgRed).Sprint("FAIL"), out.Origin, out.Err)
					continue
				}
				fmt.Printf("  %s %-14s %d records\n", color.New(color.FgGreen).Sprint("OK  "), out.Origin, out.Inserted)
			}
			if failed == len(outcomes) && len(outcomes) > 0 {
				return fmt.Errorf("all %d catalogs failed", failed)
			}
			return nil
		},
	}
}

// EnrichCmd returns the one-shot enrichment command.
func EnrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Recompute area risk rows and exit",
		Long: `Run one enrichment cycle over every area key currently observed in
the store, without fetching any catalogs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			return app.engine.RescoreAll(cmd.Context())
		},
	}
}
