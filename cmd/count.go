package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/citystats/internal/report"
)

var countCity string

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the OSM feature counts of one imported city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if countCity == "" {
			return eris.New("--city must name a city")
		}
		if err := cfg.Validate("count"); err != nil {
			return err
		}

		cities, err := selectCities(cfg.Main.Input, countCity)
		if err != nil {
			return err
		}
		city := cities[0]

		store, err := storeOpener(cfg)(ctx, city.OSM.DB)
		if err != nil {
			return eris.Wrapf(err, "open store for %s", city.Name)
		}
		defer store.Close(ctx) //nolint:errcheck

		counts, err := store.Counts(ctx)
		if err != nil {
			return eris.Wrapf(err, "count %s", city.Name)
		}
		return printCounts(cmd.OutOrStdout(), city.Name, counts)
	},
}

// printCounts writes one "<column>: <n>" line per OSM column.
func printCounts(w io.Writer, city string, counts []int64) error {
	cols := report.Columns()[1:]
	if len(counts) > len(cols) {
		return eris.Errorf("got %d counts for %s", len(counts), city)
	}
	if _, err := fmt.Fprintln(w, city); err != nil {
		return err
	}
	for i, n := range counts {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", cols[i], n); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	countCmd.Flags().StringVar(&countCity, "city", "", "city name from the input list (required)")
	_ = countCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(countCmd)
}
