package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "nixscope"

// Config holds user-level defaults, loaded from
// $XDG_CONFIG_HOME/nixscope/config.toml. Command-line flags override it.
type Config struct {
	// Store is the store URL passed to nix, empty for the local daemon.
	Store string `toml:"store"`

	// Sort is the initial sort mode: "name", "closure", or "added".
	Sort string `toml:"sort"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig controls the on-disk metadata cache.
type CacheConfig struct {
	// Disabled turns the cache off entirely.
	Disabled bool `toml:"disabled"`

	// TTL is how long cached batches stay valid, as a Go duration
	// string. Zero means the default of one hour.
	TTL duration `toml:"ttl"`
}

// duration lets TOML carry values like "30m" or "2h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

const defaultCacheTTL = time.Hour

// configPath returns the config file location, honoring XDG conventions.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// cacheDir returns the cache directory location.
func cacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// loadConfig reads the config file, returning zero-value defaults when
// the file does not exist.
func loadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, nil
	}
	return loadConfigFile(path)
}

func loadConfigFile(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// cacheTTL returns the configured TTL or the default.
func (c Config) cacheTTL() time.Duration {
	if c.Cache.TTL.Duration > 0 {
		return c.Cache.TTL.Duration
	}
	return defaultCacheTTL
}
