package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quakelab/etas/pkg/catalogio"
	"github.com/quakelab/etas/pkg/config"
	"github.com/quakelab/etas/pkg/inversion"
)

func init() {
	RootCmd.AddCommand(invertCmd)
}

var invertCmd = &cobra.Command{
	Use:   "invert",
	Short: "fit model parameters to an observed catalog",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		cat, err := catalogio.ReadCatalog(cfg.Catalog.Path, cfg.Catalog.Region, cfg.Catalog.Window, cfg.Catalog.Mc, cfg.Catalog.DeltaM)
		if err != nil {
			return err
		}
		log.Infof("catalog %s: %d events above mc=%.2f", cfg.Catalog.Path, cat.Len(), cat.Mc)

		invCfg := cfg.Inversion
		invCfg.DeltaM = cfg.Catalog.DeltaM

		res, err := inversion.New(invCfg).Run(cmd.Context(), cat)
		if err != nil {
			return err
		}
		if !cfg.Output.StoreProbs {
			res.BackgroundProbs = nil
		}

		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return err
		}
		outFile := filepath.Join(cfg.Output.Dir, fmt.Sprintf("parameters_%s.json", res.ID))
		if err := catalogio.WriteResult(outFile, res); err != nil {
			return err
		}

		log.Infof("state=%s iterations=%d logLik=%.2f eta=%.3f", res.State, res.Iterations, res.LogLik, res.BranchingRatio)
		log.Infof("parameters stored in %s", outFile)
		return nil
	},
}
