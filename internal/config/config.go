// Package config manages vdup's optional TOML configuration file and
// the built-in scan defaults. Command-line flags override anything
// loaded from the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultHashSize  = 8
	DefaultThreshold = 5.0
	DefaultWorkers   = 4
	DefaultMinMatch  = 90.0
	DefaultOutput    = "duplicate_videos.json"

	configDirName = "vdup"
	configFile    = "config.toml"
	cacheFile     = "signatures.db"
)

// Config represents the vdup configuration
type Config struct {
	HashSize   int       `toml:"hash_size"`
	Threshold  float64   `toml:"threshold"`
	Workers    int       `toml:"workers"`
	Timestamps []float64 `toml:"timestamps"`
	Recursive  bool      `toml:"recursive"`
	MinMatch   float64   `toml:"min_match"`
	Output     string    `toml:"output"`
	Cache      bool      `toml:"cache"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		HashSize:   DefaultHashSize,
		Threshold:  DefaultThreshold,
		Workers:    DefaultWorkers,
		Timestamps: []float64{5},
		MinMatch:   DefaultMinMatch,
		Output:     DefaultOutput,
		Cache:      true,
	}
}

// Path returns the config file location under the user config dir
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configDirName, configFile), nil
}

// CachePath returns the signature cache location under the user cache dir
func CachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configDirName, cacheFile), nil
}

// Load reads the user config file, overlaying it on the defaults.
// A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file at an explicit path
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
