package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the domain analysis cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete domain analyses older than the configured TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		ttl := time.Duration(cfg.Website.CacheTTLDays) * 24 * time.Hour
		deleted, err := env.Store.DeleteExpiredDomains(cmd.Context(), ttl)
		if err != nil {
			return err
		}

		zap.L().Info("cache purge complete", zap.Int("deleted", deleted))
		fmt.Printf("deleted %d expired domain entries\n", deleted)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show domain cache counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		ttl := time.Duration(cfg.Website.CacheTTLDays) * 24 * time.Hour
		stats, err := env.Store.DomainCacheStats(cmd.Context(), ttl)
		if err != nil {
			return err
		}

		fmt.Printf("domains: %d total, %d stale (ttl %dd)\n", stats.Total, stats.Stale, cfg.Website.CacheTTLDays)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
