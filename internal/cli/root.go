// Package cli implements the command-line interface for vdup.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/vdup/internal/config"
	"github.com/kilupskalvis/vdup/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "vdup",
	Short: "Find duplicate video files",
	Long: `vdup finds near-duplicate video files in a directory by sampling
frames at fixed timestamps, hashing each frame with a perceptual
difference hash (dHash), and clustering files whose signatures fall
within a Hamming distance threshold. Detected duplicates can then be
deleted to reclaim storage.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(cacheCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the user config file, falling back to defaults
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}
	return cfg
}

// openCache opens the signature cache, or returns nil with a warning
// when it cannot be opened. A broken cache never blocks a scan.
func openCache() *store.Store {
	st, err := openCacheStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: signature cache disabled: %v\n", err)
		return nil
	}
	return st
}

func openCacheStore() (*store.Store, error) {
	path, err := config.CachePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	st, err := store.New(path)
	if err != nil {
		return nil, err
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// displayPath shows the basename for flat scans and the full path when
// subdirectories are involved, matching the scan report style
func displayPath(path string, full bool) string {
	if full {
		return path
	}
	return filepath.Base(path)
}
