package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jensroland/multiedit/internal/edit"
	"github.com/jensroland/multiedit/internal/format"
)

// RunApply applies a batch of edits read from a JSON or YAML file.
func RunApply(args []string) error {
	var g globalFlags
	fs := newFlagSet("apply", &g)
	batchFile := fs.StringP("batch", "b", "-", "Batch file (JSON or YAML); - reads stdin")
	dryRun := fs.Bool("dry-run", false, "Validate and show each edit's diff without writing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "apply <file> [--batch FILE]"); err != nil {
		return err
	}

	data, err := readBatch(*batchFile)
	if err != nil {
		return err
	}
	batch, err := edit.ParseBatch(data)
	if err != nil {
		return fmt.Errorf("parsing batch %s: %w", *batchFile, err)
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	if *dryRun {
		return ws.printPreviews(fs.Arg(0), batch)
	}
	res, err := ws.engine.ApplyEdits(context.Background(), fs.Arg(0), batch, ws.callOptions(""))
	return ws.report(res, err)
}

func (ws *workspace) printPreviews(path string, batch edit.Batch) error {
	previews, err := ws.engine.PreviewEdits(path, batch)
	if err != nil {
		return err
	}
	if ws.flags.jsonOutput {
		return printJSON(stdout, previews)
	}
	for _, p := range previews {
		fmt.Fprintf(stdout, "%s#%d %s%s\n", format.Bold, p.Index, p.Edit, format.Reset)
		fmt.Fprint(stdout, format.ColorizeUnified(p.Diff))
	}
	return nil
}

func readBatch(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// RunEdit replaces a single line range.
func RunEdit(args []string) error {
	var g globalFlags
	fs := newFlagSet("edit", &g)
	start := fs.IntP("start", "s", 0, "First line to replace (1-indexed)")
	end := fs.IntP("end", "e", 0, "Last line to replace (defaults to --start)")
	content := fs.StringP("content", "c", "", "Replacement text (empty deletes the range)")
	contentFile := fs.String("content-file", "", "Read the replacement from a file (- for stdin)")
	desc := fs.StringP("message", "m", "", "Description recorded with the edit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1, "edit <file> -s N [-e M] (--content TEXT | --content-file F)"); err != nil {
		return err
	}
	if *end == 0 {
		*end = *start
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

	res, err := ws.engine.EditLines(context.Background(), fs.Arg(0), *start, *end, text, *desc, ws.callOptions(*desc))
	return ws.report(res, err)
}
