package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/permit-risk-etl/internal/domain"
)

// StatsCmd returns the working-set summary command.
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print working-set counts from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.close()

			stats, err := app.store.QueryStats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Total records: %d\n", stats.TotalRecords)
			if stats.LastObservedAt != nil {
				fmt.Printf("Last observed: %s\n", stats.LastObservedAt.Format("2006-01-02 15:04:05 MST"))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nORIGIN\tRECORDS")
			for _, origin := range sortedKeys(stats.PerOriginCounts) {
				fmt.Fprintf(w, "%s\t%d\n", origin, stats.PerOriginCounts[origin])
			}
			fmt.Fprintln(w, "\nRISK LEVEL\tAREAS")
			for _, level := range []domain.RiskLevel{domain.RiskHigh, domain.RiskMedium, domain.RiskLow} {
				if n, ok := stats.RiskLevelCounts[string(level)]; ok {
					fmt.Fprintf(w, "%s\t%d\n", colorizeLevel(level), n)
				}
			}
			return w.Flush()
		},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func colorizeLevel(level domain.RiskLevel) string {
	switch level {
	case domain.RiskHigh:
		return color.New(color.FgRed).Sprint(level)
	case domain.RiskMedium:
		return color.New(color.FgYellow).Sprint(level)
	default:
		return color.New(color.FgGreen).Sprint(level)
	}
}
