package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jensroland/multiedit/cmd"
)

var version = "dev"

var commands = map[string]func([]string) error{
	"apply":   cmd.RunApply,
	"edit":    cmd.RunEdit,
	"replace": cmd.RunReplace,
	"read":    cmd.RunRead,
	"write":   cmd.RunWrite,
	"insert":  cmd.RunInsert,
	"delete":  cmd.RunDelete,
	"ensure":  cmd.RunEnsure,
	"ls":      cmd.RunLs,
	"backups": cmd.RunBackups,
	"history": cmd.RunHistory,
	"stats":   cmd.RunStats,
	"log":     cmd.RunLog,
	"schema":  cmd.RunSchema,
}

func main() {
	if len(os.Args) < 2 {
		cmd.Usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "version":
		fmt.Println("multiedit", version)
		return
	case "-h", "--help", "help":
		cmd.Usage(os.Stdout)
		return
	}

	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", os.Args[1])
		cmd.Usage(os.Stderr)
		os.Exit(2)
	}
	if err := run(os.Args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
