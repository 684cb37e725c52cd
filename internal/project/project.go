package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jensroland/multiedit/internal/git"
)

// StateDirName is the per-workspace directory holding backups, logs and the ledger.
const StateDirName = ".multiedit"

// ConfigFileName is the optional workspace configuration file.
const ConfigFileName = ".multiedit.toml"

var (
	// ErrOutsideWorkspace is returned for paths that escape the workspace root.
	ErrOutsideWorkspace = errors.New("path is outside the workspace")
	// ErrReservedPath is returned for paths inside the engine's own state directory.
	ErrReservedPath = errors.New("path is reserved for multiedit state")
)

// PathError reports a path that could not be resolved inside the workspace.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Paths holds all relevant locations for one workspace.
type Paths struct {
	Root       string // canonical workspace root
	StateDir   string // .multiedit/
	BackupDir  string // .multiedit/backups/
	LogDir     string // .multiedit/logs/
	LedgerDB   string // .multiedit/ledger.db
	ConfigFile string // .multiedit.toml
}

// FindRoot returns the workspace root. An explicit dir wins, then
// MULTIEDIT_ROOT, then the enclosing git repository, then the working directory.
func FindRoot(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if dir := os.Getenv("MULTIEDIT_ROOT"); dir != "" {
		return dir, nil
	}
	if top, err := git.RevParseTopLevel(); err == nil {
		return top, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not determine workspace root: %w", err)
	}
	return wd, nil
}

// NewPaths constructs all path constants from a workspace root.
func NewPaths(root string) Paths {
	root = canonical(root)
	state := filepath.Join(root, StateDirName)
	return Paths{
		Root:       root,
		StateDir:   state,
		BackupDir:  filepath.Join(state, "backups"),
		LogDir:     filepath.Join(state, "logs"),
		LedgerDB:   filepath.Join(state, "ledger.db"),
		ConfigFile: filepath.Join(root, ConfigFileName),
	}
}

// WithBackupDir returns a copy of p using dir for backups. Relative dirs
// are taken relative to the root.
func (p Paths) WithBackupDir(dir string) Paths {
	if dir == "" {
		return p
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Root, dir)
	}
	p.BackupDir = filepath.Clean(dir)
	return p
}

// Resolve maps a workspace-relative (or absolute) path to a canonical
// absolute path, following symlinks of the existing prefix. The file itself
// need not exist.
func (p Paths) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &PathError{Path: path, Err: fs.ErrInvalid}
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.Root, abs)
	}
	abs = resolveExistingPrefix(filepath.Clean(abs))

	if !within(p.Root, abs) || abs == p.Root {
		return "", &PathError{Path: path, Err: ErrOutsideWorkspace}
	}
	if within(p.StateDir, abs) || within(p.BackupDir, abs) {
		return "", &PathError{Path: path, Err: ErrReservedPath}
	}
	return abs, nil
}

// ResolveExisting is Resolve plus a check that the path is an existing
// regular file.
func (p Paths) ResolveExisting(path string) (string, error) {
	abs, err := p.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &PathError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &PathError{Path: path, Err: fmt.Errorf("not a regular file")}
	}
	return abs, nil
}

// Rel converts an absolute path to a root-relative slash path.
func (p Paths) Rel(abs string) string {
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// IsInitialized returns true if the state directory exists.
func IsInitialized(root string) bool {
	info, err := os.Stat(filepath.Join(canonical(root), StateDirName))
	return err == nil && info.IsDir()
}

func canonical(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// resolveExistingPrefix evaluates symlinks on the longest existing prefix
// of path and re-appends the missing tail.
func resolveExistingPrefix(path string) string {
	var tail []string
	cur := path
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
