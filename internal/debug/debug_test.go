package debug

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("writes_json_lines", func(t *testing.T) {
		logDir := filepath.Join(t.TempDir(), "logs")

		log := NewLogger(logDir, "test.log", slog.LevelInfo)
		log.Info("hello world", "file", "a.go", "edits", 2)

		data, err := os.ReadFile(filepath.Join(logDir, "test.log"))
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}

		var entry map[string]any
		if err := json.Unmarshal(data, &entry); err != nil {
			t.Fatalf("log line is not JSON: %v\n%s", err, data)
		}
		if entry["msg"] != "hello world" {
			t.Errorf("msg = %v, want %q", entry["msg"], "hello world")
		}
		if entry["file"] != "a.go" {
			t.Errorf("file = %v, want %q", entry["file"], "a.go")
		}
		if _, ok := entry["time"]; !ok {
			t.Error("log entry should carry a timestamp")
		}
	})

	t.Run("appends_across_loggers", func(t *testing.T) {
		logDir := t.TempDir()

		NewLogger(logDir, "test.log", slog.LevelInfo).Info("first")
		NewLogger(logDir, "test.log", slog.LevelInfo).Info("second")

		data, err := os.ReadFile(filepath.Join(logDir, "test.log"))
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %s", len(lines), data)
		}
	})

	t.Run("respects_level", func(t *testing.T) {
		logDir := t.TempDir()

		NewLogger(logDir, "test.log", slog.LevelWarn).Info("quiet")

		if _, err := os.Stat(filepath.Join(logDir, "test.log")); !os.IsNotExist(err) {
			t.Errorf("info entry should not be written at warn level")
		}
	})
}

func TestDiscard(t *testing.T) {
	// Must not panic or write anywhere.
	Discard().Info("nothing", "k", "v")
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Tail(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"line 8", "line 9", "line 10"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Tail() = %v, want %v", got, want)
	}

	all, err := Tail(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 10 {
		t.Errorf("Tail(0) returned %d lines, want 10", len(all))
	}

	if _, err := Tail(filepath.Join(t.TempDir(), "missing"), 5); !os.IsNotExist(err) {
		t.Errorf("Tail(missing) error = %v, want not-exist", err)
	}
}
