// Package backup writes pre-edit copies of files into the workspace's
// backup directory. Backups are write-once and never restored
// automatically.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jensroland/multiedit/internal/textbuf"
)

// Suffix ends every backup file name.
const Suffix = ".backup"

const stampLayout = "20060102_150405"

// ErrBackupExists is logged, never returned, when a backup name is taken.
var ErrBackupExists = errors.New("backup already exists")

// Backup describes one backup file on disk.
type Backup struct {
	Path string    `json:"path"`
	File string    `json:"file"` // base name of the original file
	Time time.Time `json:"time"`
	Size int64     `json:"size"`
}

// Manager creates at most one backup per file for its lifetime.
type Manager struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	session map[string]string // original path -> backup path
}

type Option func(*Manager)

// WithClock replaces time.Now for naming backups.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(dir string, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		dir:     dir,
		logger:  logger,
		now:     time.Now,
		session: make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Dir returns the backup directory.
func (m *Manager) Dir() string { return m.dir }

// Name returns the backup file name for filename taken at t.
func Name(filename string, t time.Time) string {
	return fmt.Sprintf("%s.%s_%06d%s", filename, t.Format(stampLayout), t.Nanosecond()/1000, Suffix)
}

// Ensure backs up snap, the content of path as it was loaded, unless this
// manager already did so. It returns the backup path either way.
func (m *Manager) Ensure(path string, snap *textbuf.Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.session[path]; ok {
		return p, nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	target := filepath.Join(m.dir, Name(filepath.Base(path), m.now()))
	if err := writeOnce(target, snap.Bytes()); err != nil {
		if !errors.Is(err, ErrBackupExists) {
			return "", err
		}
		m.logger.Warn("backup name already taken, keeping existing file",
			"file", path, "backup", target)
	} else {
		m.logger.Info("backup written", "file", path, "backup", target, "bytes", len(snap.Bytes()))
	}
	m.session[path] = target
	return target, nil
}

func writeOnce(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrBackupExists
		}
		return fmt.Errorf("creating backup: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing backup: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("syncing backup: %w", err)
	}
	return f.Close()
}

// List returns the backups in dir, newest first. An empty filename lists
// backups of every file.
func List(dir, filename string) ([]Backup, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Backup
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file, ts, ok := parseName(entry.Name())
		if !ok || (filename != "" && file != filename) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			Path: filepath.Join(dir, entry.Name()),
			File: file,
			Time: ts,
			Size: info.Size(),
		})
	}

	slices.SortFunc(backups, func(a, b Backup) int {
		if c := b.Time.Compare(a.Time); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return backups, nil
}

// parseName splits "<file>.<YYYYMMDD_HHMMSS_micro>.backup".
func parseName(name string) (string, time.Time, bool) {
	rest, ok := strings.CutSuffix(name, Suffix)
	if !ok {
		return "", time.Time{}, false
	}
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return "", time.Time{}, false
	}
	file, stamp := rest[:dot], rest[dot+1:]

	if len(stamp) != len(stampLayout)+7 || stamp[len(stampLayout)] != '_' {
		return "", time.Time{}, false
	}
	frac := stamp[len(stampLayout)+1:]
	t, err := time.ParseInLocation(stampLayout, stamp[:len(stampLayout)], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	us, err := strconv.Atoi(frac)
	if err != nil {
		return "", time.Time{}, false
	}
	return file, t.Add(time.Duration(us) * time.Microsecond), true
}
