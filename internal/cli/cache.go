package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	clearBelow   float64
	clearExpired bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the category cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size, validity and sources",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop low-confidence or expired cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().Float64Var(&clearBelow, "below", 0, "drop entries with confidence below this value")
	cacheClearCmd.Flags().BoolVar(&clearExpired, "expired", false, "drop entries past their TTL")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer closeApp(logger, application)

	stats, err := application.CacheStats(ctx)
	if err != nil {
		logger.Error("load cache", "error", err)
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ENTRIES\t%d\n", stats.Entries)
	fmt.Fprintf(w, "VALID\t%d\n", stats.Valid)

	tiers := make([]time.Duration, 0, len(stats.ByTier))
	for ttl := range stats.ByTier {
		tiers = append(tiers, ttl)
	}
	slices.Sort(tiers)
	for _, ttl := range tiers {
		fmt.Fprintf(w, "TTL %s\t%d\n", ttl, stats.ByTier[ttl])
	}

	sources := make([]string, 0, len(stats.BySource))
	for src := range stats.BySource {
		sources = append(sources, src)
	}
	slices.Sort(sources)
	for _, src := range sources {
		fmt.Fprintf(w, "SOURCE %s\t%d\n", src, stats.BySource[src])
	}
	return w.Flush()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if clearBelow <= 0 && !clearExpired {
		return fmt.Errorf("nothing to clear: pass --below and/or --expired")
	}

	ctx := cmd.Context()
	application, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer closeApp(logger, application)

	removed, err := application.ClearCache(ctx, clearBelow, clearExpired)
	if err != nil {
		logger.Error("clear cache", "error", err)
		return err
	}
	logger.Info("cache cleared", "removed", removed, "below", clearBelow, "expired", clearExpired)
	return nil
}
