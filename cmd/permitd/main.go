package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/permit-risk-etl/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "permitd",
		Short: "Municipal construction permit ingestion and risk service",
		Long: `permitd ingests construction permits from heterogeneous municipal open
data catalogs, normalizes them into one canonical schema, derives per
postal-area risk classifications from demographic indicators, and serves
the merged working set over HTTP.`,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.RefreshCmd())
	rootCmd.AddCommand(cli.EnrichCmd())
	rootCmd.AddCommand(cli.StatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
