package project

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	root := canonical(t.TempDir())

	p := NewPaths(root)

	assert.Equal(t, root, p.Root)
	assert.Equal(t, filepath.Join(root, ".multiedit"), p.StateDir)
	assert.Equal(t, filepath.Join(root, ".multiedit", "backups"), p.BackupDir)
	assert.Equal(t, filepath.Join(root, ".multiedit", "logs"), p.LogDir)
	assert.Equal(t, filepath.Join(root, ".multiedit", "ledger.db"), p.LedgerDB)
	assert.Equal(t, filepath.Join(root, ".multiedit.toml"), p.ConfigFile)
}

func TestWithBackupDir(t *testing.T) {
	p := NewPaths(t.TempDir())

	t.Run("relative", func(t *testing.T) {
		got := p.WithBackupDir("bak")
		assert.Equal(t, filepath.Join(p.Root, "bak"), got.BackupDir)
		assert.Equal(t, p.StateDir, got.StateDir)
	})

	t.Run("absolute", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "elsewhere")
		assert.Equal(t, abs, p.WithBackupDir(abs).BackupDir)
	})

	t.Run("empty keeps default", func(t *testing.T) {
		assert.Equal(t, p.BackupDir, p.WithBackupDir("").BackupDir)
	})
}

func TestResolve(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(p.Root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p.Root, "src", "main.go"), []byte("package main\n"), 0o644))

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "relative file", in: "src/main.go", want: filepath.Join(p.Root, "src", "main.go")},
		{name: "missing file is allowed", in: "src/new.go", want: filepath.Join(p.Root, "src", "new.go")},
		{name: "absolute inside root", in: filepath.Join(p.Root, "src", "main.go"), want: filepath.Join(p.Root, "src", "main.go")},
		{name: "dot-dot escape", in: "../outside.txt", wantErr: ErrOutsideWorkspace},
		{name: "absolute outside", in: "/etc/passwd", wantErr: ErrOutsideWorkspace},
		{name: "root itself", in: ".", wantErr: ErrOutsideWorkspace},
		{name: "state dir", in: ".multiedit/ledger.db", wantErr: ErrReservedPath},
		{name: "empty", in: "  ", wantErr: fs.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Resolve(tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var pe *PathError
				assert.True(t, errors.As(err, &pe))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_SymlinkEscape(t *testing.T) {
	p := NewPaths(t.TempDir())
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))
	if err := os.Symlink(outside, filepath.Join(p.Root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := p.Resolve("link/secret.txt")
	assert.ErrorIs(t, err, ErrOutsideWorkspace)
}

func TestResolveExisting(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(p.Root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(p.Root, "dir"), 0o755))

	got, err := p.ResolveExisting("a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Root, "a.txt"), got)

	_, err = p.ResolveExisting("missing.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = p.ResolveExisting("dir")
	assert.Error(t, err)
}

func TestRel(t *testing.T) {
	p := NewPaths(t.TempDir())
	assert.Equal(t, "src/main.go", p.Rel(filepath.Join(p.Root, "src", "main.go")))
}

func TestIsInitialized(t *testing.T) {
	t.Run("initialized", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, StateDirName), 0o755))
		assert.True(t, IsInitialized(root))
	})

	t.Run("not_initialized", func(t *testing.T) {
		assert.False(t, IsInitialized(t.TempDir()))
	})
}

func TestFindRoot(t *testing.T) {
	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv("MULTIEDIT_ROOT", "/from/env")
		got, err := FindRoot("/explicit")
		require.NoError(t, err)
		assert.Equal(t, "/explicit", got)
	})

	t.Run("env var", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("MULTIEDIT_ROOT", dir)
		got, err := FindRoot("")
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("fallback is a directory", func(t *testing.T) {
		t.Setenv("MULTIEDIT_ROOT", "")
		got, err := FindRoot("")
		require.NoError(t, err)
		info, err := os.Stat(got)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}
