package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jensroland/multiedit/internal/debug"
	"github.com/jensroland/multiedit/internal/format"
)

// RunLog prints the tail of the engine log.
func RunLog(args []string) error {
	var g globalFlags
	flags := newFlagSet("log", &g)
	n := flags.IntP("lines", "n", 100, "Number of lines to show")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	logFile := filepath.Join(ws.paths.LogDir, debug.EngineLog)
	tail, err := debug.Tail(logFile, *n)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stdout, "No log file at %s\n", logFile)
		return nil
	}
	if err != nil {
		return err
	}

	if g.jsonOutput {
		// Lines are already JSON objects.
		fmt.Fprintln(stdout, strings.Join(tail, "\n"))
		return nil
	}
	fmt.Fprintf(stdout, "%s--- %s (last %d lines) ---%s\n\n", format.Dim, logFile, len(tail), format.Reset)
	fmt.Fprintln(stdout, strings.Join(tail, "\n"))
	return nil
}
