package git

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RevParseTopLevel returns the git repo root.
func RevParseTopLevel() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", fmt.Errorf("not inside a git repository")
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// Author returns the git user.name config value.
func Author(dir string) string {
	cmd := exec.Command("git", "config", "user.name")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "unknown"
	}
	return name
}

// StageFile runs git add for a file.
func StageFile(projectRoot, relPath string) error {
	cmd := exec.Command("git", "add", "--", relPath)
	cmd.Dir = projectRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git add %s: %w: %s", relPath, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CheckpointMessage formats the commit subject used for checkpoints. An
// empty message falls back to "auto-checkpoint: <operation> <file>".
func CheckpointMessage(message, operation, relPath string, now time.Time) string {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("auto-checkpoint: %s %s", operation, relPath)
	}
	return fmt.Sprintf("[checkpoint] %s (%s)", message, now.Format("2006-01-02 15:04"))
}

// Checkpoint stages relPath and commits it with subject. Only the edited
// file is committed; unrelated staged or unstaged work is left alone.
// Returns the new commit SHA.
func Checkpoint(projectRoot, relPath, subject string) (string, error) {
	if !IsRepo(projectRoot) {
		return "", fmt.Errorf("not inside a git repository")
	}
	if err := StageFile(projectRoot, relPath); err != nil {
		return "", err
	}

	cmd := exec.Command("git", "commit", "--no-verify", "-m", subject, "--", relPath)
	cmd.Dir = projectRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(string(out)))
	}

	cmd = exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = projectRoot
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
