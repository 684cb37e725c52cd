package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jensroland/multiedit/internal/config"
	"github.com/jensroland/multiedit/internal/confirm"
	"github.com/jensroland/multiedit/internal/debug"
	"github.com/jensroland/multiedit/internal/engine"
	"github.com/jensroland/multiedit/internal/format"
	"github.com/jensroland/multiedit/internal/ledger"
	"github.com/jensroland/multiedit/internal/project"
	"github.com/jensroland/multiedit/internal/tui"
)

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

var errNoTerminal = errors.New("stdin is not a terminal; pass --yes to apply without confirmation")

// globalFlags are accepted by every command.
type globalFlags struct {
	yes        bool
	noPreview  bool
	tui        bool
	jsonOutput bool
	checkpoint string
	root       string
}

func newFlagSet(name string, g *globalFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.BoolVarP(&g.yes, "yes", "y", false, "Apply without asking for confirmation")
	fs.BoolVar(&g.noPreview, "no-preview", false, "Skip the preview and the confirmation")
	fs.BoolVar(&g.tui, "tui", false, "Confirm in a full-screen diff viewer")
	fs.BoolVar(&g.jsonOutput, "json", false, "Output results as JSON")
	fs.StringVar(&g.checkpoint, "checkpoint", "", "Create a git checkpoint commit with this message after writing")
	fs.StringVar(&g.root, "root", "", "Workspace root (default: $MULTIEDIT_ROOT, the git repository, or the current directory)")
	fs.SortFlags = false
	return fs
}

// workspace bundles everything a command needs for one invocation.
type workspace struct {
	paths  project.Paths
	cfg    config.Config
	logger *slog.Logger
	ledger *ledger.Ledger
	engine *engine.Engine
	flags  globalFlags
}

func openWorkspace(g globalFlags) (*workspace, error) {
	root, err := project.FindRoot(g.root)
	if err != nil {
		return nil, err
	}
	paths := project.NewPaths(root)

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	paths = paths.WithBackupDir(cfg.BackupDir)

	fresh := !project.IsInitialized(paths.Root)
	logger := debug.NewLogger(paths.LogDir, debug.EngineLog, slog.LevelInfo)
	if fresh {
		logger.Info("workspace initialized", "root", paths.Root, "state_dir", paths.StateDir)
	}

	l, err := ledger.Open(paths.LedgerDB)
	if err != nil {
		return nil, fmt.Errorf("opening ledger at %s: %w", paths.LedgerDB, err)
	}

	ws := &workspace{paths: paths, cfg: cfg, logger: logger, ledger: l, flags: g}
	ws.engine = engine.New(engine.Options{
		Paths:  paths,
		Config: cfg,
		Gate:   ws.gate(),
		Logger: logger,
		Ledger: l,
	})
	return ws, nil
}

func (ws *workspace) Close() {
	ws.ledger.Close()
}

func (ws *workspace) gate() confirm.Gate {
	if !confirm.Interactive(os.Stdin) {
		return confirm.Func(func(_ context.Context, _ confirm.Preview) (confirm.Decision, error) {
			return confirm.Rejected, errNoTerminal
		})
	}
	if ws.flags.tui || ws.cfg.TUI {
		return tui.Gate{}
	}
	return &confirm.Prompt{In: os.Stdin, Out: os.Stdout, Style: ws.cfg.PreviewStyle}
}

func (ws *workspace) callOptions(description string) engine.CallOptions {
	return engine.CallOptions{
		AutoApprove: ws.flags.yes,
		NoPreview:   ws.flags.noPreview,
		Checkpoint:  ws.flags.checkpoint,
		Description: description,
	}
}

// report prints the outcome of a mutating command.
func (ws *workspace) report(res engine.Result, err error) error {
	if ws.flags.jsonOutput {
		out := struct {
			engine.Result
			Error string `json:"error,omitempty"`
		}{Result: res}
		if err != nil {
			out.Error = err.Error()
		}
		if jerr := printJSON(stdout, out); jerr != nil {
			return jerr
		}
		return err
	}
	if err != nil {
		return err
	}

	switch res.State {
	case engine.StateUnchanged:
		fmt.Fprintf(stdout, "%s%s: no changes%s\n", format.Dim, res.Path, format.Reset)
	case engine.StateRejectedByUser:
		fmt.Fprintf(stdout, "%s%s: rejected, nothing written%s\n", format.Yellow, res.Path, format.Reset)
	case engine.StateCommitted:
		if ws.flags.yes && !ws.flags.noPreview && res.Diff != "" {
			fmt.Fprint(stdout, format.ColorizeUnified(res.Diff))
		}
		fmt.Fprintf(stdout, "%s✓%s %s: %s (+%d -%d)\n", format.Green, format.Reset, res.Path, describe(res), res.Added, res.Removed)
		if res.BackupPath != "" {
			fmt.Fprintf(stdout, "  %sbackup:%s %s\n", format.Dim, format.Reset, ws.paths.Rel(res.BackupPath))
		}
		if res.Checkpoint != "" {
			fmt.Fprintf(stdout, "  %scheckpoint:%s %s\n", format.Dim, format.Reset, shortSHA(res.Checkpoint))
		}
	default:
		fmt.Fprintf(stdout, "%s: %s\n", res.Path, res.State)
	}
	return nil
}

func describe(res engine.Result) string {
	if res.Replacements > 0 {
		return fmt.Sprintf("%d replacement(s)", res.Replacements)
	}
	return fmt.Sprintf("%d edit(s) applied", res.Applied)
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// readContent returns the inline value, or the named file's content ("-"
// reads stdin).
func readContent(inline, file string, inlineSet bool) (string, error) {
	switch {
	case inlineSet && file != "":
		return "", errors.New("use either --content or --content-file, not both")
	case inlineSet:
		return inline, nil
	case file == "-":
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		return string(b), err
	default:
		return "", errors.New("no content given (use --content or --content-file)")
	}
}

func needArgs(fs *pflag.FlagSet, n int, usage string) error {
	if fs.NArg() != n {
		return fmt.Errorf("usage: multiedit %s", usage)
	}
	return nil
}

// Usage prints the top-level help.
func Usage(w io.Writer) {
	fmt.Fprint(w, strings.TrimLeft(`
multiedit: apply line-range edits to files safely and atomically.

Usage:
    multiedit apply <file> [--batch edits.json|edits.yaml|-] [--dry-run]
    multiedit edit <file> -s N -e M (--content TEXT | --content-file F) [-m desc]
    multiedit replace <file> <old> <new>
    multiedit read <file> [-n] [--lines 3,5-7]
    multiedit write <file> (--content TEXT | --content-file F|-)
    multiedit insert <file> --after N (--content TEXT | --content-file F)
    multiedit delete <file> --lines 3,5-7
    multiedit ensure <file> (--content TEXT | --content-file F)
    multiedit ls [pattern]                 # files in the workspace
    multiedit backups [file]               # backups, newest first
    multiedit history [file]               # committed changes from the ledger
    multiedit stats                        # ledger summary
    multiedit log [-n N]                   # engine log
    multiedit schema                       # JSON Schema for batch files
    multiedit --version

Flags for every command:
    -y, --yes            apply without asking
        --no-preview     skip preview and confirmation
        --tui            confirm in a full-screen diff viewer
        --checkpoint M   git checkpoint commit after writing
        --root DIR       workspace root
        --json           machine-readable output
`, "\n"))
}
