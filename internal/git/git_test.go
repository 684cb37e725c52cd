package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupGitRepo(t *testing.T, filename, content string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run(t, dir, "init")
	run(t, dir, "config", "user.email", "test@test.com")
	run(t, dir, "config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	run(t, dir, "add", filename)
	run(t, dir, "commit", "-m", "init")
	return dir
}

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

func TestIsRepo(t *testing.T) {
	dir := setupGitRepo(t, "a.txt", "a\n")
	if !IsRepo(dir) {
		t.Error("IsRepo(repo) = false, want true")
	}
	if IsRepo(t.TempDir()) {
		t.Error("IsRepo(plain dir) = true, want false")
	}
}

func TestAuthor(t *testing.T) {
	dir := setupGitRepo(t, "a.txt", "a\n")
	if got := Author(dir); got != "Test" {
		t.Errorf("Author() = %q, want %q", got, "Test")
	}
}

func TestCheckpointMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"explicit", "fix imports", "[checkpoint] fix imports (2026-03-01 09:30)"},
		{"fallback", "", "[checkpoint] auto-checkpoint: apply_edits src/a.go (2026-03-01 09:30)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckpointMessage(tt.message, "apply_edits", "src/a.go", now)
			if got != tt.want {
				t.Errorf("CheckpointMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckpoint(t *testing.T) {
	dir := setupGitRepo(t, "a.txt", "a\n")
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Unrelated work must not be swept into the checkpoint.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("wip\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sha, err := Checkpoint(dir, "a.txt", "[checkpoint] edit a")
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("expected 40-char SHA, got %q", sha)
	}

	subject := strings.TrimSpace(run(t, dir, "log", "-1", "--format=%s"))
	if subject != "[checkpoint] edit a" {
		t.Errorf("commit subject = %q", subject)
	}
	files := strings.TrimSpace(run(t, dir, "show", "--name-only", "--format=", "HEAD"))
	if files != "a.txt" {
		t.Errorf("checkpoint committed %q, want only a.txt", files)
	}
}

func TestCheckpoint_NotARepo(t *testing.T) {
	if _, err := Checkpoint(t.TempDir(), "a.txt", "x"); err == nil {
		t.Error("expected error outside a git repository")
	}
}
