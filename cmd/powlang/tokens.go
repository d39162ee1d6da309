package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/lexer"
)

// tokenLine is the --json shape of one token.
type tokenLine struct {
	Category lexer.Kind `json:"category"`
	Lexeme   string     `json:"lexeme"`
	Line     int        `json:"line"`
	Col      int        `json:"col"`
}

func newTokensCmd(c *cli) *cobra.Command {
	var comments, recoverInvalid, asJSON bool
	cmd := &cobra.Command{
		Use:   "tokens <file|->",
		Short: "Print the token stream of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(args[0], false)
			if err != nil {
				return err
			}

			toks, err := lexer.Scan(source, filename, lexer.ScanOptions{KeepComments: comments, Recover: recoverInvalid})
			if err != nil {
				lerr, ok := err.(*lexer.LexError)
				if !ok {
					return &exitError{code: exitCompile, err: err}
				}
				fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(lerr.Diag, false))
				return &exitError{code: exitCompile}
			}

			if asJSON {
				lines := make([]tokenLine, len(toks))
				for i, tok := range toks {
					lines[i] = tokenLine{
						Category: tok.Category(),
						Lexeme:   lexer.Lexeme(source, tok),
						Line:     tok.Span.StartLine,
						Col:      tok.Span.StartCol,
					}
				}
				data, err := sonic.Marshal(lines)
				if err != nil {
					return &exitError{code: exitUsage, err: err}
				}
				fmt.Fprintln(c.stdout, string(data))
				return nil
			}

			for _, tok := range toks {
				fmt.Fprintf(c.stdout, "%d:%d\t%s\t%s\n",
					tok.Span.StartLine, tok.Span.StartCol, tok.Category(), lexer.Lexeme(source, tok))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&comments, "comments", false, "include comment tokens")
	cmd.Flags().BoolVar(&recoverInvalid, "recover", false, "emit invalid tokens instead of failing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tokens as JSON")
	return cmd
}
