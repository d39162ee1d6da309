package runtime_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/evaluator"
	"github.com/powlang/powlang/pkg/lexer"
	"github.com/powlang/powlang/pkg/parser"
	"github.com/powlang/powlang/pkg/runtime"
)

const demo = `define number cats as 3
when cats < 5 :: cats++ => {
  show("cats:", cats)
}
ala cats =e 5 -> { show("last litter") } otw -> { show("more") }
show(cats)`

func TestRunDemo(t *testing.T) {
	res, err := runtime.New().Run(demo, false)
	require.NoError(t, err)
	assert.Equal(t, "cats: 4\ncats: 5\nlast litter\n5", res.Output)
	assert.Nil(t, res.Logs)
	assert.Greater(t, int64(res.Elapsed), int64(0))
	_, perr := uuid.Parse(res.RunID)
	assert.NoError(t, perr, "run id should be a uuid")
}

func TestRunWithLogs(t *testing.T) {
	res, err := runtime.New().Run("define number x as 1\nshow(x)", true)
	require.NoError(t, err)
	require.Len(t, res.Logs, 2)
	assert.Equal(t, "VarDecl", res.Logs[0].Stmt)
	assert.Equal(t, "ShowStmt", res.Logs[1].Stmt)
	v, ok := res.Env.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, evaluator.NewNumber(1), v)
}

func TestRunFixedRunID(t *testing.T) {
	var events []evaluator.TraceEvent
	rt := runtime.New(
		runtime.WithRunID("run-1"),
		runtime.WithTrace(func(ev evaluator.TraceEvent) { events = append(events, ev) }),
	)
	res, err := rt.Run("show(1)", false)
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, "run-1", ev.RunID)
	}
	assert.Equal(t, evaluator.TraceRunStart, events[0].Event)
	assert.Equal(t, evaluator.TraceRunEnd, events[len(events)-1].Event)
}

func TestRunErrorStages(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		stage   diagnostics.Stage
		code    string
		summary string
	}{
		{"lex", "show(@)", diagnostics.StageLex, diagnostics.ELex, "lex error at 1:6: unexpected character '@'"},
		{"parse", "when x > 0 => { }", diagnostics.StageParse, diagnostics.EParse, "parse error at 1:12: expected '::'"},
		{"evaluate", "show(1 / 0)", diagnostics.StageEvaluate, diagnostics.EDivZero, "evaluate error at 1:6: division by zero"},
		{"undeclared", "show(y)", diagnostics.StageEvaluate, diagnostics.EUndeclared, "evaluate error at 1:6: undeclared identifier 'y'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := runtime.New().Run(tt.source, false)
			require.Error(t, err)
			assert.Nil(t, res, "no partial result on failure")

			var cerr *runtime.CompileError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.stage, cerr.Stage)
			assert.Equal(t, tt.code, cerr.Diag.Code)
			assert.True(t, strings.HasPrefix(err.Error(), tt.summary), "got %q", err.Error())
		})
	}
}

func TestCompileErrorUnwraps(t *testing.T) {
	_, err := runtime.New().Run("show(\"open", false)
	var lerr *lexer.LexError
	assert.True(t, errors.As(err, &lerr))

	_, err = runtime.New().Run("show(", false)
	var serr *parser.SyntaxError
	assert.True(t, errors.As(err, &serr))

	_, err = runtime.New().Run(`show("a" + 1)`, false)
	var rerr *evaluator.RuntimeError
	assert.True(t, errors.As(err, &rerr))
}

func TestAsCompileErrorUnknown(t *testing.T) {
	cerr := runtime.AsCompileError(errors.New("boom"))
	assert.Equal(t, diagnostics.StageEvaluate, cerr.Stage)
	assert.Equal(t, diagnostics.EIO, cerr.Diag.Code)
	assert.Same(t, cerr, runtime.AsCompileError(cerr))
}

func TestRunBudget(t *testing.T) {
	rt := runtime.New(runtime.WithMaxIterations(10))
	_, err := rt.Run("define number x as 0\nwhen true :: x++ => { }", false)
	var cerr *runtime.CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, diagnostics.EBudget, cerr.Diag.Code)

	res, err := rt.Run("define number x as 5\nwhen x > 0 :: x-- => { }\nshow(x)", false)
	require.NoError(t, err)
	assert.Equal(t, "0", res.Output)
}

func TestRunContextStopsUnboundedLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := runtime.New().RunContext(ctx, "define number x as 0\nwhen true :: x++ => { }", false)
	var cerr *runtime.CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, diagnostics.ECanceled, cerr.Diag.Code)
	assert.Equal(t, diagnostics.StageEvaluate, cerr.Stage)
}

func TestRunFilenameInSpans(t *testing.T) {
	_, err := runtime.New(runtime.WithFilename("demo.pow")).Run("show(z)", false)
	var cerr *runtime.CompileError
	require.True(t, errors.As(err, &cerr))
	require.NotNil(t, cerr.Diag.Span)
	assert.Equal(t, "demo.pow", cerr.Diag.Span.File)
}

func TestRunLogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rt := runtime.New(runtime.WithLogger(zap.New(core)), runtime.WithRunID("abc"))

	_, err := rt.Run("show(1)", false)
	require.NoError(t, err)
	_, err = rt.Run("show(1 / 0)", false)
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "run finished", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["run_id"])
	assert.Equal(t, "run failed", entries[1].Message)
	assert.Equal(t, "evaluate", entries[1].ContextMap()["stage"])
	assert.Equal(t, diagnostics.EDivZero, entries[1].ContextMap()["code"])
}

func TestWithNilLoggerKeepsDefault(t *testing.T) {
	rt := runtime.New(runtime.WithLogger(nil))
	_, err := rt.Run("show(1)", false)
	assert.NoError(t, err)
}

func TestCheck(t *testing.T) {
	rt := runtime.New()
	assert.Empty(t, rt.Check("define number x as 1\nshow(x)"))

	diags := rt.Check("show(a)\nshow(b)")
	require.Len(t, diags, 2)
	assert.Equal(t, diagnostics.EUndeclared, diags[0].Code)

	diags = rt.Check("show(")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.EParse, diags[0].Code)
}

func TestFormat(t *testing.T) {
	rt := runtime.New()
	out, err := rt.Format("define number x as 3 when x>0::x-- => {show(x)}")
	require.NoError(t, err)
	assert.Equal(t, "define number x as 3\nwhen x > 0 :: x-- => {\n  show(x)\n}\n", out)

	_, err = rt.Format("define x")
	var cerr *runtime.CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, diagnostics.StageParse, cerr.Stage)
}
