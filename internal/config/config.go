// Package config loads the optional per-workspace .multiedit.toml file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Preview styles accepted by preview_style.
const (
	PreviewUnified    = "unified"
	PreviewSideBySide = "side-by-side"
)

// DefaultContextLines is the number of unchanged lines shown around each hunk.
const DefaultContextLines = 3

// Config holds workspace-level engine settings.
type Config struct {
	// BackupDir overrides the default .multiedit/backups location.
	BackupDir string `toml:"backup_dir"`
	// AutoApprove skips the confirmation gate for every call.
	AutoApprove bool `toml:"auto_approve"`
	// ContextLines is the unified diff context size.
	ContextLines int `toml:"context_lines"`
	// PreviewStyle is "unified" or "side-by-side".
	PreviewStyle string `toml:"preview_style"`
	// GitCheckpoint commits each edited file after a successful write.
	GitCheckpoint bool `toml:"git_checkpoint"`
	// TUI uses the full-screen confirmation view instead of a y/N prompt.
	TUI bool `toml:"tui"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ContextLines: DefaultContextLines,
		PreviewStyle: PreviewUnified,
	}
}

// Load reads path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Default(), fmt.Errorf("parse %s: unknown key %q", path, undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must be >= 0, got %d", c.ContextLines)
	}
	switch c.PreviewStyle {
	case PreviewUnified, PreviewSideBySide:
	default:
		return fmt.Errorf("preview_style must be %q or %q, got %q", PreviewUnified, PreviewSideBySide, c.PreviewStyle)
	}
	return nil
}
