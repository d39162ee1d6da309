package main

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/evaluator"
	"github.com/powlang/powlang/pkg/runtime"
)

type runOptions struct {
	logs          bool
	pretty        bool
	json          bool
	maxIterations int64
}

// runOutput is the --json shape of a successful run.
type runOutput struct {
	Output string               `json:"output"`
	Time   string               `json:"time"`
	RunID  string               `json:"runId"`
	Logs   []evaluator.LogEntry `json:"logs,omitempty"`
}

func newRunCmd(c *cli) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Run a PowLang program",
		Example: `  powlang run demo.pow
  echo 'show("hi")' | powlang run -
  powlang run --logs --pretty demo.pow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(args[0], opts)
		},
	}
	cmd.Flags().BoolVar(&opts.logs, "logs", false, "record and print the per-statement execution log")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "human-readable diagnostics")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().Int64Var(&opts.maxIterations, "max-iterations", 0, "stop after this many loop iterations (0 = unbounded)")
	return cmd
}

func (c *cli) run(file string, opts *runOptions) error {
	source, filename, err := c.readSource(file, opts.pretty)
	if err != nil {
		return err
	}

	rt := runtime.New(
		runtime.WithLogger(c.log),
		runtime.WithFilename(filename),
		runtime.WithMaxIterations(opts.maxIterations),
	)
	res, err := rt.Run(source, opts.logs)
	if err != nil {
		var cerr *runtime.CompileError
		if !errors.As(err, &cerr) {
			return &exitError{code: exitRuntime, err: err}
		}
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(cerr.Diag, opts.pretty))
		if cerr.Stage == diagnostics.StageEvaluate {
			return &exitError{code: exitRuntime}
		}
		return &exitError{code: exitCompile}
	}

	if opts.json {
		out := runOutput{Output: res.Output, Time: res.Elapsed.String(), RunID: res.RunID, Logs: res.Logs}
		data, err := sonic.Marshal(out)
		if err != nil {
			return &exitError{code: exitRuntime, err: fmt.Errorf("serializing result: %w", err)}
		}
		fmt.Fprintln(c.stdout, string(data))
		return nil
	}

	if res.Output != "" {
		fmt.Fprintln(c.stdout, res.Output)
	}
	if opts.logs {
		if len(res.Logs) > 0 {
			fmt.Fprintln(c.stderr, evaluator.FormatLogs(res.Logs))
		}
		fmt.Fprintf(c.stderr, "time: %s\n", res.Elapsed)
	}
	return nil
}
