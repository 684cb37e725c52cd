package debug

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// EngineLog is the default log file name inside the log directory.
const EngineLog = "engine.log"

// fileAppender opens, appends and closes the log file on every write so
// that short-lived CLI invocations never hold a handle open.
type fileAppender struct {
	mu   sync.Mutex
	path string
}

func (a *fileAppender) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Write(p)
}

// NewLogger returns a JSON slog logger appending to logDir/logName.
func NewLogger(logDir, logName string, level slog.Level) *slog.Logger {
	w := &fileAppender{path: filepath.Join(logDir, logName)}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Tail returns the last n lines of the file at path.
func Tail(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
