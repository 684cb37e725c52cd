package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jensroland/multiedit/internal/lineset"
)

// RunRead prints a workspace file verbatim.
func RunRead(args []string) error {
	var g globalFlags
	fs := newFlagSet("read", &g)
	numbered := fs.BoolP("number", "n", false, "Prefix each line with its number")
	only := fs.StringP("lines", "l", "", "Print only these lines, e.g. 3,5-7 (implies -n)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "read <file> [-n] [--lines 3,5-7]"); err != nil {
		return err
	}
	selected, err := lineset.FromString(*only)
	if err != nil {
		return fmt.Errorf("--lines: %w", err)
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	text, err := ws.engine.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if g.jsonOutput {
		return printJSON(stdout, map[string]string{"path": fs.Arg(0), "content": text})
	}
	if !*numbered && selected.IsEmpty() {
		fmt.Fprint(stdout, text)
		return nil
	}
	i := 0
	last := ""
	for line := range strings.Lines(text) {
		i++
		if !selected.IsEmpty() && !selected.Contains(i) {
			continue
		}
		fmt.Fprintf(stdout, "%6d\t%s", i, line)
		last = line
	}
	if last != "" && !strings.HasSuffix(last, "\n") {
		fmt.Fprintln(stdout)
	}
	return nil
}

// RunWrite replaces or creates a file with the given content.
func RunWrite(args []string) error {
	var g globalFlags
	fs := newFlagSet("write", &g)
	content := fs.StringP("content", "c", "", "New file content")
	contentFile := fs.String("content-file", "", "Read the content from a file (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "write <file> (--content TEXT | --content-file F)"); err != nil {
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

	res, err := ws.engine.WriteFile(context.Background(), fs.Arg(0), text, ws.callOptions(""))
	return ws.report(res, err)
}
