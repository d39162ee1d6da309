package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/runtime"
)

func newCheckCmd(c *cli) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "check <file|->",
		Short: "Report problems in a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(args[0], pretty)
			if err != nil {
				return err
			}

			diags := runtime.New(runtime.WithFilename(filename)).Check(source)
			if len(diags) > 0 {
				fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, pretty))
				return &exitError{code: exitCompile}
			}

			if pretty {
				fmt.Fprintln(c.stdout, "No errors found.")
			} else {
				fmt.Fprintln(c.stdout, "[]")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "human-readable diagnostics")
	return cmd
}
