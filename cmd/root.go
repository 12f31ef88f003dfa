package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mapscene",
	Short: "Map-data to scene-entity generation pipeline",
	Long:  "Fetches real-world vector data (buildings, roads, land use) from Overpass-compatible services and turns it into a classified, spatially laid-out set of scene entities.",
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
