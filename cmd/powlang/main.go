// Command powlang is the PowLang CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1 // bad arguments or unreadable input
	exitCompile = 2 // lex or parse error, or check diagnostics
	exitRuntime = 4 // evaluation error
)

// exitError carries the process exit code out of a command. A nil err means
// the command already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(&cli{stdin: stdin, stdout: stdout, stderr: stderr})
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return exitOK
	}

	var xerr *exitError
	if errors.As(err, &xerr) {
		if xerr.err != nil {
			fmt.Fprintln(stderr, "error:", xerr.err)
		}
		return xerr.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return exitUsage
}
