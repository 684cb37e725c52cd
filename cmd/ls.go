package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/jensroland/multiedit/internal/backup"
	"github.com/jensroland/multiedit/internal/format"
)

// RunLs lists workspace files matching an optional pattern.
func RunLs(args []string) error {
	var g globalFlags
	fs := newFlagSet("ls", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("usage: multiedit ls [pattern]")
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	files, err := ws.engine.ListFiles(fs.Arg(0))
	if err != nil {
		return err
	}
	if g.jsonOutput {
		return printJSON(stdout, files)
	}
	for _, f := range files {
		fmt.Fprintf(stdout, "%8s %6d  %s%s%s\n", humanize.Bytes(uint64(f.Size)), f.Lines, format.Cyan, f.Path, format.Reset)
	}
	if len(files) == 0 {
		fmt.Fprintf(stdout, "%sNo matching files.%s\n", format.Dim, format.Reset)
	}
	return nil
}

// RunBackups lists backups, newest first, optionally for one file.
func RunBackups(args []string) error {
	var g globalFlags
	fs := newFlagSet("backups", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("usage: multiedit backups [file]")
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	name := ""
	if fs.NArg() == 1 {
		name = filepath.Base(fs.Arg(0))
	}
	backups, err := backup.List(ws.paths.BackupDir, name)
	if err != nil {
		return err
	}
	if g.jsonOutput {
		if backups == nil {
			backups = []backup.Backup{}
		}
		return printJSON(stdout, backups)
	}
	if len(backups) == 0 {
		fmt.Fprintf(stdout, "%sNo backups in %s%s\n", format.Dim, ws.paths.Rel(ws.paths.BackupDir), format.Reset)
		return nil
	}
	for _, b := range backups {
		fmt.Fprintf(stdout, "%s%-14s%s %8s  %s\n",
			format.Dim, humanize.Time(b.Time), format.Reset, humanize.Bytes(uint64(b.Size)), ws.paths.Rel(b.Path))
	}
	return nil
}
