package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/config"
)

var importCity string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download and load OSM extracts without building the report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}
		if err := config.EnsureDirs(cfg.OSM.DataDir); err != nil {
			return err
		}

		cities, err := selectCities(cfg.Main.Input, importCity)
		if err != nil {
			return err
		}

		if err := newImporter(cfg).ImportAll(ctx, cities); err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete", zap.Int("cities", len(cities)))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCity, "city", "", "import only this city")
	rootCmd.AddCommand(importCmd)
}
