// Package runtime provides the top-level PowLang execution harness.
package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/evaluator"
	"github.com/powlang/powlang/pkg/formatter"
	"github.com/powlang/powlang/pkg/lexer"
	"github.com/powlang/powlang/pkg/parser"
	"github.com/powlang/powlang/pkg/validator"
)

// Result holds the outcome of a successful run.
type Result struct {
	Output  string
	Elapsed time.Duration
	// Logs is nil unless the run was started with enableLogs.
	Logs  []evaluator.LogEntry
	Env   evaluator.Snapshot
	RunID string
}

// Runtime wires together all PowLang components for program execution.
type Runtime struct {
	logger        *zap.Logger
	filename      string
	runID         string
	maxIterations int64
	trace         func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for run summaries.
func WithLogger(l *zap.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithFilename sets the file name recorded in diagnostic spans.
func WithFilename(name string) Option {
	return func(rt *Runtime) {
		rt.filename = name
	}
}

// WithRunID fixes the run ID instead of generating one per run.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithMaxIterations caps the total number of loop iterations per run.
// Zero leaves loops unbounded.
func WithMaxIterations(n int64) Option {
	return func(rt *Runtime) {
		rt.maxIterations = n
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default nothing is logged and loops are unbounded.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:   zap.NewNop(),
		filename: "main.pow",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run lexes, parses and evaluates a program. Elapsed covers all three stages.
// On failure the error is a *CompileError and no output is returned.
func (rt *Runtime) Run(source string, enableLogs bool) (*Result, error) {
	return rt.RunContext(context.Background(), source, enableLogs)
}

// RunContext is Run with a context that stops loops once it is done.
func (rt *Runtime) RunContext(ctx context.Context, source string, enableLogs bool) (*Result, error) {
	runID := rt.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	start := time.Now()

	program, err := parser.Parse(source, rt.filename)
	if err != nil {
		return nil, rt.fail(runID, err, time.Since(start))
	}

	opts := rt.buildExecOptions(runID, enableLogs)
	opts.Context = ctx
	res, err := evaluator.Execute(program, opts)
	if err != nil {
		return nil, rt.fail(runID, err, time.Since(start))
	}
	elapsed := time.Since(start)

	rt.logger.Debug("run finished",
		zap.String("run_id", runID),
		zap.Int("lines", len(res.Lines)),
		zap.Duration("elapsed", elapsed),
	)
	return &Result{
		Output:  res.Output(),
		Elapsed: elapsed,
		Logs:    res.Logs,
		Env:     res.Env,
		RunID:   runID,
	}, nil
}

func (rt *Runtime) fail(runID string, err error, elapsed time.Duration) error {
	cerr := AsCompileError(err)
	rt.logger.Debug("run failed",
		zap.String("run_id", runID),
		zap.String("stage", string(cerr.Stage)),
		zap.String("code", cerr.Diag.Code),
		zap.Duration("elapsed", elapsed),
	)
	return cerr
}

// Check lexes, parses and statically validates a program without running
// it. A lex or parse failure is the only diagnostic returned.
func (rt *Runtime) Check(source string) []diagnostics.Diagnostic {
	program, err := parser.Parse(source, rt.filename)
	if err != nil {
		return []diagnostics.Diagnostic{AsCompileError(err).Diag}
	}
	return validator.Validate(program)
}

// Format parses a program and returns its canonical source text.
func (rt *Runtime) Format(source string) (string, error) {
	program, err := parser.Parse(source, rt.filename)
	if err != nil {
		return "", AsCompileError(err)
	}
	return formatter.Format(program), nil
}

func (rt *Runtime) buildExecOptions(runID string, enableLogs bool) evaluator.ExecOptions {
	return evaluator.ExecOptions{
		EnableLogs:    enableLogs,
		RunID:         runID,
		Trace:         rt.trace,
		MaxIterations: rt.maxIterations,
	}
}

// CompileError is the single error shape of a failed run: the stage that
// failed and the diagnostic it produced.
type CompileError struct {
	Stage diagnostics.Stage
	Diag  diagnostics.Diagnostic
	err   error
}

// Error returns "<stage> error at <line>:<col>: <message>".
func (e *CompileError) Error() string {
	return diagnostics.Summary(e.Diag)
}

func (e *CompileError) Unwrap() error {
	return e.err
}

// AsCompileError attributes a lexer, parser or evaluator error to its stage.
// Errors of any other kind are reported against the evaluate stage.
func AsCompileError(err error) *CompileError {
	var (
		cerr *CompileError
		lerr *lexer.LexError
		serr *parser.SyntaxError
		rerr *evaluator.RuntimeError
	)
	switch {
	case errors.As(err, &cerr):
		return cerr
	case errors.As(err, &lerr):
		return &CompileError{Stage: diagnostics.StageLex, Diag: lerr.Diag, err: err}
	case errors.As(err, &serr):
		return &CompileError{Stage: diagnostics.StageParse, Diag: serr.Diag, err: err}
	case errors.As(err, &rerr):
		return &CompileError{Stage: diagnostics.StageEvaluate, Diag: rerr.Diagnostic(), err: err}
	}
	return &CompileError{
		Stage: diagnostics.StageEvaluate,
		Diag:  diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""),
		err:   err,
	}
}
