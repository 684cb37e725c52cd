package cmd

import (
	"context"
	"fmt"

	"github.com/jensroland/multiedit/internal/lineset"
)

// RunInsert inserts content after a line (0 inserts at the top).
func RunInsert(args []string) error {
	var g globalFlags
	fs := newFlagSet("insert", &g)
	after := fs.IntP("after", "a", 0, "Insert after this line; 0 inserts before the first line")
	content := fs.StringP("content", "c", "", "Text to insert")
	contentFile := fs.String("content-file", "", "Read the text from a file (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "insert <file> --after N (--content TEXT | --content-file F)"); err != nil {
		return err
	}
	text, err := readContent(*content, *contentFile, fs.Changed("content"))
	if err != nil {
		return err
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	res, err := ws.engine.InsertLines(context.Background(), fs.Arg(0), *after, text, ws.callOptions(""))
	return ws.report(res, err)
}

// RunDelete removes the given lines, e.g. "3,5-7".
func RunDelete(args []string) error {
	var g globalFlags
	fs := newFlagSet("delete", &g)
	spec := fs.StringP("lines", "l", "", "Lines to delete, e.g. 3,5-7")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "delete <file> --lines 3,5-7"); err != nil {
		return err
	}
	lines, err := lineset.FromString(*spec)
	if err != nil {
		return fmt.Errorf("--lines: %w", err)
	}
	if lines.IsEmpty() {
		return fmt.Errorf("--lines is required")
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	res, err := ws.engine.DeleteLines(context.Background(), fs.Arg(0), lines, ws.callOptions(""))
	return ws.report(res, err)
}

// RunEnsure appends lines the file does not already contain.
func RunEnsure(args []string) error {
	var g globalFlags
	fs := newFlagSet("ensure", &g)
	content := fs.StringP("content", "c", "", "Lines that must be present")
	contentFile := fs.String("content-file", "", "Read the lines from a file (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "ensure <file> (--content TEXT | --content-file F)"); err != nil {
		return err
	}
	text, err := readContent(*content, *contentFile, fs.Changed("content"))
	if err != nil {
		return err
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	res, err := ws.engine.EnsureLines(context.Background(), fs.Arg(0), text, ws.callOptions(""))
	return ws.report(res, err)
}
