package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/store"
)

var (
	fetchLat    float64
	fetchLon    float64
	fetchRadius float64
	fetchProbe  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch raw map data for a region",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if fetchProbe {
			for _, st := range env.Service.Probe(ctx) {
				status := "ok"
				if !st.OK {
					status = fmt.Sprintf("failed: %v", st.Err)
				}
				fmt.Printf("%-60s %8s  %s\n", st.Endpoint, st.Latency.Round(time.Millisecond), status)
			}
			return nil
		}

		radius := fetchRadius
		if radius == 0 {
			radius = cfg.Generation.RadiusM
		}

		res, err := env.Service.Fetch(ctx, fetchLat, fetchLon, radius)
		if err != nil {
			return err
		}
		zap.L().Info("fetch complete",
			zap.String("source", res.Source),
			zap.Bool("cached", res.Cached),
			zap.Bool("synthetic", res.Synthetic),
			zap.String("key", store.NewCacheKey(fetchLat, fetchLon, radius).String()),
			zap.Int("bytes", len(res.Raw)),
		)
		fmt.Println(res.Raw)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Float64Var(&fetchLat, "lat", 0, "center latitude")
	fetchCmd.Flags().Float64Var(&fetchLon, "lon", 0, "center longitude")
	fetchCmd.Flags().Float64Var(&fetchRadius, "radius", 0, "radius in meters (default from config)")
	fetchCmd.Flags().BoolVar(&fetchProbe, "probe", false, "probe endpoint reachability instead of fetching")
	rootCmd.AddCommand(fetchCmd)
}
