package backup

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jensroland/multiedit/internal/textbuf"
)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func loadSnapshot(t *testing.T, dir, name, content string) (string, *textbuf.Snapshot) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	snap, err := textbuf.Load(path)
	require.NoError(t, err)
	return path, snap
}

func TestName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.Local)
	assert.Equal(t, "main.go.20240309_140507_123456.backup", Name("main.go", ts))
}

func TestEnsure_WritesExactBytes(t *testing.T) {
	root := t.TempDir()
	path, snap := loadSnapshot(t, root, "a.txt", "one\r\ntwo\r\n")

	m := New(filepath.Join(root, "backups"), slog.New(slog.DiscardHandler))
	got, err := m.Ensure(path, snap)
	require.NoError(t, err)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("one\r\ntwo\r\n"), data)
	assert.Equal(t, filepath.Join(root, "backups"), filepath.Dir(got))
}

func TestEnsure_LogsByteSize(t *testing.T) {
	root := t.TempDir()
	path, snap := loadSnapshot(t, root, "a.txt", "one\ntwo\n")

	var logs bytes.Buffer
	m := New(filepath.Join(root, "backups"), slog.New(slog.NewJSONHandler(&logs, nil)))
	_, err := m.Ensure(path, snap)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &rec))
	assert.Equal(t, "backup written", rec["msg"])
	assert.EqualValues(t, 8, rec["bytes"])
}

func TestEnsure_OncePerSession(t *testing.T) {
	root := t.TempDir()
	path, snap := loadSnapshot(t, root, "a.txt", "v1\n")

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	m := New(root+"/backups", slog.New(slog.DiscardHandler), WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))

	first, err := m.Ensure(path, snap)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2\n"), 0o644))
	snap2, err := textbuf.Load(path)
	require.NoError(t, err)
	second, err := m.Ensure(path, snap2)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "v1\n", string(data))

	backups, err := List(m.Dir(), "a.txt")
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// A new session takes a fresh backup.
	other := New(m.Dir(), slog.New(slog.DiscardHandler), fixedClock(tick.Add(time.Hour)))
	third, err := other.Ensure(path, snap2)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestEnsure_CollisionIsWarningOnly(t *testing.T) {
	root := t.TempDir()
	path, snap := loadSnapshot(t, root, "a.txt", "new\n")
	dir := filepath.Join(root, "backups")
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	existing := filepath.Join(dir, Name("a.txt", ts))
	require.NoError(t, os.WriteFile(existing, []byte("old\n"), 0o644))

	var logs bytes.Buffer
	m := New(dir, slog.New(slog.NewTextHandler(&logs, nil)), fixedClock(ts))
	got, err := m.Ensure(path, snap)
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Contains(t, logs.String(), "level=WARN")

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data), "existing backup must not be overwritten")
}

func TestEnsure_UnwritableDir(t *testing.T) {
	root := t.TempDir()
	path, snap := loadSnapshot(t, root, "a.txt", "x\n")
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	m := New(filepath.Join(blocker, "backups"), slog.New(slog.DiscardHandler))
	_, err := m.Ensure(path, snap)
	assert.Error(t, err)

	// A failed attempt is not remembered; the next call tries again.
	_, err = m.Ensure(path, snap)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 8, 30, 0, 0, time.Local)
	names := []string{
		Name("a.txt", base),
		Name("a.txt", base.Add(2*time.Minute)),
		Name("b.txt", base.Add(time.Minute)),
		Name("a.txt.v2", base.Add(3*time.Minute)),
		"a.txt.notastamp.backup",
		"readme.md",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}

	got, err := List(dir, "a.txt")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Time.After(got[1].Time))
	assert.True(t, base.Add(2*time.Minute).Equal(got[0].Time))
	assert.Equal(t, int64(1), got[0].Size)

	all, err := List(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "a.txt.v2", all[0].File)

	none, err := List(filepath.Join(dir, "missing"), "a.txt")
	require.NoError(t, err)
	assert.Empty(t, none)
}
