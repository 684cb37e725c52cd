package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".multiedit.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Values(t *testing.T) {
	path := writeConfig(t, `
backup_dir = "var/backups"
auto_approve = true
context_lines = 5
preview_style = "side-by-side"
git_checkpoint = true
tui = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		BackupDir:     "var/backups",
		AutoApprove:   true,
		ContextLines:  5,
		PreviewStyle:  PreviewSideBySide,
		GitCheckpoint: true,
		TUI:           true,
	}, cfg)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "auto_approve = true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.AutoApprove)
	assert.Equal(t, DefaultContextLines, cfg.ContextLines)
	assert.Equal(t, PreviewUnified, cfg.PreviewStyle)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"syntax", "auto_approve = ", "parse"},
		{"unknown key", "colour = true\n", "unknown key"},
		{"negative context", "context_lines = -1\n", "context_lines"},
		{"bad preview", "preview_style = \"fancy\"\n", "preview_style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Equal(t, Default(), cfg)
		})
	}
}
