package cmd

import "context"

// RunReplace substitutes every occurrence of a string.
func RunReplace(args []string) error {
	var g globalFlags
	fs := newFlagSet("replace", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 3, "replace <file> <old> <new>"); err != nil {
		return err
	}

	ws, err := openWorkspace(g)
	if err != nil {
		return err
	}
	defer ws.Close()

	res, err := ws.engine.SearchReplace(context.Background(), fs.Arg(0), fs.Arg(1), fs.Arg(2), ws.callOptions(""))
	return ws.report(res, err)
}
