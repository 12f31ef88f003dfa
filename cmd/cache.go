package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the fetch cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mem := env.Service.CacheStats()
		fmt.Printf("memory: %d/%d entries, %d hits, %d misses, %.0f%% hit rate\n",
			mem.Entries, mem.MaxEntries, mem.Hits, mem.Misses, mem.HitRate*100)

		if env.Store != nil {
			st, err := env.Store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("store:  %d records", st.Records)
			if !st.Oldest.IsZero() {
				fmt.Printf(", oldest %s", st.Oldest.Format("2006-01-02 15:04"))
			}
			fmt.Println()
		}
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired records from the persistent cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Store == nil {
			fmt.Println("no persistent store configured")
			return nil
		}
		n, err := env.Store.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("cache pruned", zap.Int("deleted", n))
		fmt.Printf("deleted %d expired records\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Service.ClearCache(ctx); err != nil {
			return err
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
