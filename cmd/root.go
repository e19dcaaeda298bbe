package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/futuricity/livability/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "livability",
	Short: "Coordinate livability scoring pipeline",
	Long:  "Scores geographic coordinates by fetching nearby points of interest from the Overpass API, classifying them into facility categories, and reducing distance-decayed contributions into group and overall livability scores.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
