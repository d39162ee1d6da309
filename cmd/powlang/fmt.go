package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/formatter"
	"github.com/powlang/powlang/pkg/runtime"
)

func newFmtCmd(c *cli) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Print a program in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			if write && file == "-" {
				return &exitError{code: exitUsage, err: fmt.Errorf("--write needs a file, not stdin")}
			}
			source, filename, err := c.readSource(file, false)
			if err != nil {
				return err
			}

			out, err := runtime.New(runtime.WithFilename(filename)).Format(source)
			if err != nil {
				cerr := runtime.AsCompileError(err)
				fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(cerr.Diag, false))
				return &exitError{code: exitCompile}
			}

			if formatter.HasComments(source) {
				fmt.Fprintln(c.stderr, "warning: comments are not preserved by the formatter")
			}

			if write {
				if err := os.WriteFile(file, []byte(out), 0o644); err != nil {
					return &exitError{code: exitUsage, err: fmt.Errorf("writing file: %w", err)}
				}
				return nil
			}
			fmt.Fprint(c.stdout, out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "overwrite the file with the formatted program")
	return cmd
}
