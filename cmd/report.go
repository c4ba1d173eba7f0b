package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/config"
	"github.com/sells-group/citystats/internal/report"
)

var reportDumpData bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Import every city and write the statistics table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("report"); err != nil {
			return err
		}
		if err := config.EnsureDirs(cfg.DataDirs()...); err != nil {
			return err
		}

		cities, err := selectCities(cfg.Main.Input, "")
		if err != nil {
			return err
		}

		out, err := os.Create(cfg.Main.Output)
		if err != nil {
			return eris.Wrapf(err, "create output %s", cfg.Main.Output)
		}
		defer out.Close() //nolint:errcheck

		b := report.NewBuilder(newImporter(cfg), storeOpener(cfg), newAngelCo(cfg), newFactual(cfg), report.Options{
			DumpData: cfg.AngelCo.DumpData || reportDumpData,
			Progress: cmd.OutOrStdout(),
		})
		if err := b.Run(ctx, cities, out); err != nil {
			return err
		}
		if err := out.Close(); err != nil {
			return eris.Wrapf(err, "close output %s", cfg.Main.Output)
		}

		zap.L().Info("report complete",
			zap.Int("cities", len(cities)),
			zap.String("output", cfg.Main.Output),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportDumpData, "dump-data", false, "also dump every startup page (overrides angelco.dump_data)")
	rootCmd.AddCommand(reportCmd)
}
