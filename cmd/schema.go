package cmd

import (
	"fmt"

	"github.com/jensroland/multiedit/internal/edit"
)

// RunSchema prints the JSON Schema that batch files must satisfy.
func RunSchema(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("usage: multiedit schema")
	}
	b, err := edit.SchemaJSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(b))
	return nil
}
