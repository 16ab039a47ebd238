package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/vdup/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the signature cache",
	Long: `Manage the on-disk signature cache.

Scans cache each video's signature keyed by path, size, modification
time, and scan parameters, so unchanged files are not re-hashed on the
next run.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache location and entry count",
	Run:   runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached signatures",
	Run:   runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) {
	path, err := config.CachePath()
	if err != nil {
		exitError("%v", err)
	}

	st, err := openCacheStore()
	if err != nil {
		exitError("failed to open cache: %v", err)
	}
	defer st.Close()

	n, err := st.Count()
	if err != nil {
		exitError("failed to read cache: %v", err)
	}

	fmt.Printf("Cache: %s\n", path)
	fmt.Printf("Cached signatures: %d\n", n)
}

func runCacheClear(cmd *cobra.Command, args []string) {
	st, err := openCacheStore()
	if err != nil {
		exitError("failed to open cache: %v", err)
	}
	defer st.Close()

	n, err := st.Clear()
	if err != nil {
		exitError("%v", err)
	}

	color.New(color.FgGreen).Printf("Removed %d cached signature(s)\n", n)
}
