package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configFile string

// config holds the parsed configuration for the current invocation,
// populated by rootCmd's PersistentPreRunE, mirroring the teacher's
// package-global Config loaded by inmap/cmd's PersistentPreRunE.
var config *Config

var rootCmd = &cobra.Command{
	Use:   "zonalstats",
	Short: "Compute area-weighted zonal statistics over gridded rasters.",
	Long: `zonalstats computes per-zone summary statistics (mean, sum, min, max,
mode, count, variety, and weighted variants) over gridded rasters, in
which every raster cell's contribution is weighted by the exact
fraction of the cell's area covered by the zone polygon.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := ReadConfigFile(configFile)
		if err != nil {
			return err
		}
		config = c
		logrus.WithField("config", configFile).Info("zonalstats: configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, runCmd)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./zonalstats.toml", "configuration file location")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		logrus.Infof("zonalstats v%s", version)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
}
