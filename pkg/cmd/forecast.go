package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quakelab/etas/pkg/catalogio"
	"github.com/quakelab/etas/pkg/config"
	"github.com/quakelab/etas/pkg/forecast"
	"github.com/quakelab/etas/pkg/inversion"
)

func init() {
	forecastCmd.Flags().String("params", "", "stored inversion result (json), skips the inversion when given")
	RootCmd.AddCommand(forecastCmd)
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "fit (or load) parameters and run an ensemble forecast",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		paramsFile, err := cmd.Flags().GetString("params")
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

		var fitted *inversion.Result
		if paramsFile != "" {
			fitted, err = catalogio.ReadResult(paramsFile)
			if err != nil {
				return err
			}
		}

		invCfg := cfg.Inversion
		invCfg.DeltaM = cfg.Catalog.DeltaM

		fcCfg := cfg.Forecast
		fcCfg.Simulation.DeltaM = cfg.Catalog.DeltaM

		ens, err := forecast.New(fcCfg).Run(cmd.Context(), cat, fitted, invCfg)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return err
		}
		outFile := filepath.Join(cfg.Output.Dir, fmt.Sprintf("forecast_%s.csv", ens.ID))
		if err := catalogio.WriteEnsemble(outFile, ens); err != nil {
			return err
		}
		if paramsFile == "" && ens.Inversion != nil {
			paramsOut := filepath.Join(cfg.Output.Dir, fmt.Sprintf("parameters_%s.json", ens.Inversion.ID))
			if err := catalogio.WriteResult(paramsOut, ens.Inversion); err != nil {
				return err
			}
			log.Infof("parameters stored in %s", paramsOut)
		}

		log.Infof("ensemble of %d realizations stored in %s (%d overflowed)", len(ens.Realizations), outFile, ens.Overflows)
		return nil
	},
}
