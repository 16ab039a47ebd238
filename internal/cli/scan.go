package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/vdup/internal/config"
	"github.com/kilupskalvis/vdup/internal/core"
	"github.com/kilupskalvis/vdup/internal/ffmpeg"
	"github.com/kilupskalvis/vdup/internal/models"
	"github.com/kilupskalvis/vdup/internal/store"
)

var (
	scanHashSize  int
	scanThreshold float64
	scanWorkers   int
	scanSeconds   string
	scanRecursive bool
	scanOutput    string
	scanDelete    bool
	scanMinMatch  float64
	scanNoCache   bool
	scanYes       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Scan a directory for duplicate videos",
	Long: `Scan a directory for near-duplicate video files.

Each video is sampled at the configured timestamps, every frame is
hashed with a perceptual difference hash, and files whose average
Hamming distance stays within the threshold are grouped as duplicates
of the first matching original. Results are always saved as JSON so a
later 'vdup delete' can work from them.

Examples:
  vdup scan ~/Videos                      Scan with defaults
  vdup scan -r --seconds 5,30 ~/Videos    Recursive, two sample points
  vdup scan -t 3 ~/Videos                 Stricter distance threshold
  vdup scan --delete --min-match 95 ~/Videos`,
	Args: cobra.ExactArgs(1),
	Run:  runScan,
}

func init() {
	scanCmd.Flags().IntVarP(&scanHashSize, "hash-size", "s", config.DefaultHashSize, "dHash size in bits per side")
	scanCmd.Flags().Float64VarP(&scanThreshold, "threshold", "t", config.DefaultThreshold, "Maximum average Hamming distance for a match")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", config.DefaultWorkers, "Number of parallel hashing workers")
	scanCmd.Flags().StringVar(&scanSeconds, "seconds", "5", "Comma-separated timestamps to sample, e.g. 5,30.5")
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", false, "Include subdirectories")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", config.DefaultOutput, "Where to save the duplicate graph JSON")
	scanCmd.Flags().BoolVar(&scanDelete, "delete", false, "Delete duplicates after scanning")
	scanCmd.Flags().Float64Var(&scanMinMatch, "min-match", config.DefaultMinMatch, "Minimum match percentage for deletion")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "Skip the signature cache")
	scanCmd.Flags().BoolVarP(&scanYes, "yes", "y", false, "Skip the deletion confirmation prompt")
}

// applyScanConfig overlays config-file values onto flags the user did
// not set explicitly
func applyScanConfig(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if !f.Changed("hash-size") {
		scanHashSize = cfg.HashSize
	}
	if !f.Changed("threshold") {
		scanThreshold = cfg.Threshold
	}
	if !f.Changed("workers") {
		scanWorkers = cfg.Workers
	}
	if !f.Changed("seconds") && len(cfg.Timestamps) > 0 {
		scanSeconds = formatSeconds(cfg.Timestamps)
	}
	if !f.Changed("recursive") {
		scanRecursive = cfg.Recursive
	}
	if !f.Changed("output") {
		scanOutput = cfg.Output
	}
	if !f.Changed("min-match") {
		scanMinMatch = cfg.MinMatch
	}
	if !f.Changed("no-cache") {
		scanNoCache = !cfg.Cache
	}
}

func runScan(cmd *cobra.Command, args []string) {
	dir := args[0]
	applyScanConfig(cmd, loadConfig())

	if err := ffmpeg.Available(); err != nil {
		exitError("ffmpeg is not installed or not in PATH")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		exitError("not a valid directory: %s", dir)
	}

	timestamps, err := parseSeconds(scanSeconds)
	if err != nil {
		exitError("%v", err)
	}

	var sigCache *store.Store
	if !scanNoCache {
		sigCache = openCache()
	}
	if sigCache != nil {
		defer sigCache.Close()
	}

	yellow := color.New(color.FgYellow)
	var bar *progressbar.ProgressBar

	fmt.Printf("Scanning %s for video files...\n", dir)

	graph, res, err := core.Scan(context.Background(), ffmpeg.CLI{}, sigCache, core.ScanOptions{
		Dir:        dir,
		Recursive:  scanRecursive,
		HashSize:   scanHashSize,
		Threshold:  scanThreshold,
		Workers:    scanWorkers,
		Timestamps: timestamps,
		OnProgress: func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Hashing videos"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		},
		OnSkip: func(path string, err error) {
			yellow.Fprintf(os.Stderr, "skipping %s: %v\n", filepath.Base(path), err)
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		exitError("scan failed: %v", err)
	}

	printScanSummary(res)

	if len(graph) == 0 {
		fmt.Println("\nNo duplicate videos found.")
		return
	}

	printGraph(graph, scanRecursive)

	if err := graph.Save(scanOutput); err != nil {
		exitError("failed to save results: %v", err)
	}
	fmt.Printf("\nResults saved to %s\n", scanOutput)

	if scanDelete {
		fmt.Printf("\nDeleting duplicates with match percentage >= %.1f%%\n", scanMinMatch)
		runDeleteFlow(graph, scanMinMatch, scanRecursive, scanYes)
	}
}

func printScanSummary(res *core.ScanResult) {
	fmt.Printf("Analyzed %d videos (%d hashed, %d from cache, %d skipped): %d originals, %d duplicates\n",
		res.Found, res.Built, res.CacheHits, res.Skipped, res.Originals, res.Duplicates)
}

func printGraph(graph models.DuplicateGraph, fullPaths bool) {
	green := color.New(color.FgGreen)

	fmt.Println("\n--- Duplicate videos found ---")
	for _, orig := range graph.Originals() {
		green.Printf("\nOriginal: %s\n", displayPath(orig, fullPaths))
		for _, dup := range graph[orig] {
			fmt.Printf("  - Duplicate: %s (match: %.2f%%)\n", displayPath(dup.Path, fullPaths), dup.MatchPercentage)
		}
	}
}

// parseSeconds parses a comma-separated timestamp list; values may be
// fractional
func parseSeconds(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("seconds must be a comma-separated list of non-negative numbers, got %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatSeconds(ts []float64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
