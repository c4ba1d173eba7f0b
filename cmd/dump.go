package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/config"
)

var (
	dumpStartups  bool
	dumpInvestors bool
	dumpCity      string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump raw angel.co pages for each city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !dumpStartups && !dumpInvestors {
			return eris.New("nothing to dump: pass --startups and/or --investors")
		}
		if err := cfg.Validate("dump"); err != nil {
			return err
		}
		if err := config.EnsureDirs(
			cfg.AngelCo.DataDir,
			filepath.Join(cfg.AngelCo.DataDir, "cities"),
			filepath.Join(cfg.AngelCo.DataDir, "startups"),
		); err != nil {
			return err
		}

		cities, err := selectCities(cfg.Main.Input, dumpCity)
		if err != nil {
			return err
		}

		client := newAngelCo(cfg)
		for _, c := range cities {
			log := zap.L().With(zap.String("city", c.Name), zap.Int("tag_id", c.AngelCo.TagID))
			if dumpStartups {
				total, err := client.DumpAllStartups(ctx, c.AngelCo.TagID)
				if err != nil {
					return eris.Wrapf(err, "dump startups for %s", c.Name)
				}
				log.Info("startups dumped", zap.Int("total", total))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d startups\n", c.Name, total)
			}
			if dumpInvestors {
				total, err := client.DumpAllInvestors(ctx, c.AngelCo.TagID)
				if err != nil {
					return eris.Wrapf(err, "dump investors for %s", c.Name)
				}
				log.Info("investors dumped", zap.Int("total", total))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d investors\n", c.Name, total)
			}
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpStartups, "startups", false, "dump startup pages and founders")
	dumpCmd.Flags().BoolVar(&dumpInvestors, "investors", false, "dump investor pages")
	dumpCmd.Flags().StringVar(&dumpCity, "city", "", "dump only this city")
	rootCmd.AddCommand(dumpCmd)
}
