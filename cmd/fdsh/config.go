package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds fdsh configuration options.
type Config struct {
	// HistoryFile is where REPL history is persisted. Empty disables history.
	HistoryFile string `json:"history_file"` //nolint:tagliatelle // snake_case for config file

	// LockTries is the default retry budget for the lock command.
	LockTries int `json:"lock_tries"` //nolint:tagliatelle // snake_case for config file

	// Mode is the octal permission string used when open creates files.
	Mode string `json:"mode,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		HistoryFile: defaultHistoryFile(),
		LockTries:   10,
		Mode:        "0644",
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".fdsh_history")
}

// configPath returns the config file location:
// $XDG_CONFIG_HOME/fdsh/config.json, falling back to ~/.config/fdsh/config.json.
func configPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fdsh", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "fdsh", "config.json")
}

// LoadConfig loads configuration from path (or the default location when
// path is empty). A missing file yields the defaults. The file is HuJSON:
// JSON with comments and trailing commas allowed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = configPath()
	}

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %q: %w", path, err)
	}

	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %q: %w", path, err)
	}

	if cfg.LockTries <= 0 {
		return Config{}, fmt.Errorf("config %q: lock_tries must be positive, got %d", path, cfg.LockTries)
	}

	return cfg, nil
}

// FileMode parses the configured octal permission string.
func (c Config) FileMode() (fs.FileMode, error) {
	if c.Mode == "" {
		return 0o644, nil
	}

	var mode uint32
	if _, err := fmt.Sscanf(c.Mode, "%o", &mode); err != nil {
		return 0, fmt.Errorf("config mode %q is not octal: %w", c.Mode, err)
	}

	return fs.FileMode(mode), nil
}
