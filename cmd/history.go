package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/jensroland/multiedit/internal/format"
	"github.com/jensroland/multiedit/internal/ledger"
)

// RunHistory prints committed changes from the ledger, newest first.
func RunHistory(args []string) error {
	var g globalFlags
	fs := newFlagSet("history", &g)
	limit := fs.IntP("limit", "n", 20, "Maximum number of entries (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("usage: multiedit history [file] [-n N]")
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	file := ""
	if fs.NArg() == 1 {
		abs, err := ws.paths.Resolve(fs.Arg(0))
		if err != nil {
			return err
		}
		file = ws.paths.Rel(abs)
	}

	entries, err := ws.ledger.ForFile(context.Background(), file, *limit)
	if err != nil {
		return err
	}
	if g.jsonOutput {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		return printJSON(stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(stdout, "%sNo recorded changes.%s\n", format.Dim, format.Reset)
		return nil
	}
	for _, e := range entries {
		printEntry(e)
	}
	return nil
}

func printEntry(e ledger.Entry) {
	fmt.Fprintf(stdout, "%s%s%s %s%s%s %s(+%d -%d)%s",
		format.Cyan, e.File, format.Reset,
		format.Bold, e.Operation, format.Reset,
		format.Green, e.Added, e.Removed, format.Reset)
	if !e.ChangedLines.IsEmpty() {
		fmt.Fprintf(stdout, " L%s", e.ChangedLines)
	}
	fmt.Fprintf(stdout, "  %s%s%s\n", format.Dim, humanize.Time(e.Ts), format.Reset)
	if e.Description != "" {
		fmt.Fprintf(stdout, "  %s\n", e.Description)
	}
	if e.Checkpoint != "" {
		fmt.Fprintf(stdout, "  %scheckpoint %s%s\n", format.Dim, shortSHA(e.Checkpoint), format.Reset)
	}
}

// RunStats summarises the ledger.
func RunStats(args []string) error {
	var g globalFlags
	fs := newFlagSet("stats", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	st, err := ws.ledger.Stats(context.Background())
	if err != nil {
		return err
	}
	if g.jsonOutput {
		return printJSON(stdout, st)
	}

	last := "n/a"
	if !st.Last.IsZero() {
		last = humanize.Time(st.Last)
	}
	fmt.Fprintf(stdout, "%smultiedit statistics%s\n\n", format.Bold, format.Reset)
	fmt.Fprintf(stdout, "  Commits:        %s\n", humanize.Comma(int64(st.Commits)))
	fmt.Fprintf(stdout, "  Files touched:  %s\n", humanize.Comma(int64(st.Files)))
	fmt.Fprintf(stdout, "  Lines added:    %s\n", humanize.Comma(int64(st.Added)))
	fmt.Fprintf(stdout, "  Lines removed:  %s\n", humanize.Comma(int64(st.Removed)))
	fmt.Fprintf(stdout, "  Last commit:    %s\n", last)

	if len(st.ByOperation) > 0 {
		fmt.Fprintf(stdout, "\n  %sBy operation:%s\n", format.Bold, format.Reset)
		for _, op := range slices.Sorted(maps.Keys(st.ByOperation)) {
			fmt.Fprintf(stdout, "    %4d  %s\n", st.ByOperation[op], op)
		}
	}
	return nil
}
