package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/powlang/powlang/pkg/ast"
	"github.com/powlang/powlang/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceStmtStart      TraceEventType = "stmt_start"
	TraceStmtEnd        TraceEventType = "stmt_end"
	TraceLoopIteration  TraceEventType = "loop_iteration"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Stmt      string         `json:"stmt,omitempty"`
	Span      *ast.Span      `json:"span,omitempty"`
}

// LogEntry is one step of the execution log kept when EnableLogs is set:
// the statement that just ran and the environment it left behind.
type LogEntry struct {
	Step int      `json:"step"`
	Stmt string   `json:"stmt"`
	Span ast.Span `json:"span"`
	Env  Snapshot `json:"env"`
}

// String renders the entry on one line, e.g. `#3 ShowStmt 2:1 {x=5}`.
func (l LogEntry) String() string {
	return fmt.Sprintf("#%d %s %d:%d %s", l.Step, l.Stmt, l.Span.StartLine, l.Span.StartCol, l.Env)
}

// FormatLogs renders log entries one per line.
func FormatLogs(entries []LogEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// ExecOptions configures program execution.
type ExecOptions struct {
	// EnableLogs records a LogEntry after every executed statement.
	EnableLogs bool
	RunID      string
	Trace      func(event TraceEvent)
	// MaxIterations caps the total number of when-loop iterations.
	// Zero leaves loops unbounded.
	MaxIterations int64
	// Context, when set, is checked on every loop iteration; a done
	// context stops the run with E_CANCELED.
	Context context.Context
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	// Lines holds one entry per executed show statement.
	Lines []string
	Logs  []LogEntry
	Env   Snapshot
}

// Output joins the shown lines with newlines.
func (r *ExecResult) Output() string {
	return strings.Join(r.Lines, "\n")
}

// RuntimeError represents an error raised while evaluating a program.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	Hint    string
}

func (e *RuntimeError) Error() string {
	if e.Span == nil {
		return e.Message
	}
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Span.StartLine, e.Span.StartCol)
}

// Diagnostic converts the error into a diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, e.Hint)
}

type evaluator struct {
	opts    ExecOptions
	env     *Env
	lines   []string
	logs    []LogEntry
	budget  Budget
	tracker BudgetTracker
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span) {
	ev.emitStmt(event, "", span)
}

func (ev *evaluator) emitStmt(event TraceEventType, stmt string, span *ast.Span) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Stmt:      stmt,
			Span:      span,
		})
	}
}

// Execute runs a program to completion. On error no output is returned.
func Execute(program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	ev := &evaluator{
		opts:   opts,
		env:    NewEnv(),
		budget: Budget{MaxIterations: opts.MaxIterations},
	}

	span := program.Span
	ev.emit(TraceRunStart, &span)

	err := ev.executeBlock(program.Statements)

	ev.emit(TraceRunEnd, &span)

	if err != nil {
		return nil, err
	}

	return &ExecResult{
		Lines: ev.lines,
		Logs:  ev.logs,
		Env:   ev.env.Snapshot(),
	}, nil
}

func (ev *evaluator) executeBlock(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := ev.executeStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) executeStmt(stmt ast.Stmt) error {
	span := stmt.NodeSpan()
	ev.emitStmt(TraceStmtStart, stmt.Kind(), &span)

	var err error
	switch s := stmt.(type) {
	case *ast.VarDecl:
		err = ev.execVarDecl(s)
	case *ast.ShowStmt:
		err = ev.execShow(s)
	case *ast.WhenStmt:
		err = ev.execWhen(s)
	case *ast.AlaStmt:
		err = ev.execAla(s)
	case *ast.ExprStmt:
		_, err = ev.evalExpr(s.Expr)
	default:
		err = &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unsupported statement type: %T", stmt),
			Span:    &span,
		}
	}
	if err != nil {
		return err
	}

	ev.emitStmt(TraceStmtEnd, stmt.Kind(), &span)
	if ev.opts.EnableLogs {
		ev.logs = append(ev.logs, LogEntry{
			Step: len(ev.logs) + 1,
			Stmt: stmt.Kind(),
			Span: span,
			Env:  ev.env.Snapshot(),
		})
	}
	return nil
}

func (ev *evaluator) execVarDecl(s *ast.VarDecl) error {
	val, err := ev.evalExpr(s.Init)
	if err != nil {
		return err
	}

	span := s.Span
	if ev.env.Has(s.Name) {
		return &RuntimeError{
			Code:    diagnostics.ERedeclared,
			Message: fmt.Sprintf("variable '%s' is already declared", s.Name),
			Span:    &span,
			Hint:    fmt.Sprintf("assign to it with %s = ... instead of defining it again", s.Name),
		}
	}
	if got := TypeName(val); got != s.Type {
		return &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("cannot initialize %s variable '%s' with a %s value", s.Type, s.Name, got),
			Span:    &span,
		}
	}

	ev.env.Declare(s.Name, s.Type, val)
	return nil
}

func (ev *evaluator) execShow(s *ast.ShowStmt) error {
	parts := make([]string, len(s.Args))
	for i, arg := range s.Args {
		val, err := ev.evalExpr(arg)
		if err != nil {
			return err
		}
		parts[i] = Render(val)
	}
	ev.lines = append(ev.lines, strings.Join(parts, " "))
	return nil
}

// execWhen runs `when cond :: step => { body }`. Each iteration checks the
// condition, applies the step, then runs the body; a condition that is false
// on entry runs neither.
func (ev *evaluator) execWhen(s *ast.WhenStmt) error {
	span := s.Span
	for {
		cond, err := ev.evalExpr(s.Cond)
		if err != nil {
			return err
		}
		if !Truthiness(cond) {
			return nil
		}

		if err := ev.tick(span); err != nil {
			return err
		}
		ev.emit(TraceLoopIteration, &span)

		if _, err := ev.evalExpr(s.Step); err != nil {
			return err
		}
		if err := ev.executeBlock(s.Body); err != nil {
			return err
		}
	}
}

func (ev *evaluator) execAla(s *ast.AlaStmt) error {
	cond, err := ev.evalExpr(s.Cond)
	if err != nil {
		return err
	}
	if Truthiness(cond) {
		return ev.executeBlock(s.Then)
	}
	return ev.executeBlock(s.Else)
}

func (ev *evaluator) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NewNumber(e.Value), nil

	case *ast.StringLiteral:
		return NewString(e.Value), nil

	case *ast.BoolLiteral:
		return NewBool(e.Value), nil

	case *ast.Identifier:
		return ev.evalIdentifier(e)

	case *ast.BinaryExpr:
		return ev.evalBinaryOp(e)

	case *ast.UnaryExpr:
		return ev.evalUnary(e)

	case *ast.TernaryExpr:
		cond, err := ev.evalExpr(e.Cond)
		if err != nil {
			return nil, err
		}
		if Truthiness(cond) {
			return ev.evalExpr(e.IfTrue)
		}
		return ev.evalExpr(e.IfFalse)

	case *ast.AssignExpr:
		return ev.evalAssign(e)

	case *ast.TypeExpr:
		val, err := ev.evalExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return NewString(string(TypeName(val))), nil

	default:
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unsupported expression type: %T", expr),
		}
	}
}

func undeclared(name string, span ast.Span) error {
	return &RuntimeError{
		Code:    diagnostics.EUndeclared,
		Message: fmt.Sprintf("undeclared identifier '%s'", name),
		Span:    &span,
		Hint:    fmt.Sprintf("declare it first, e.g. define number %s as 0", name),
	}
}

func (ev *evaluator) evalIdentifier(e *ast.Identifier) (Value, error) {
	val, ok := ev.env.Get(e.Name)
	if !ok {
		return nil, undeclared(e.Name, e.Span)
	}
	return val, nil
}

func (ev *evaluator) evalAssign(e *ast.AssignExpr) (Value, error) {
	declared, ok := ev.env.DeclaredType(e.Target.Name)
	if !ok {
		return nil, undeclared(e.Target.Name, e.Target.Span)
	}
	val, err := ev.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	if got := TypeName(val); got != declared {
		span := e.Span
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("cannot assign a %s value to %s variable '%s'", got, declared, e.Target.Name),
			Span:    &span,
		}
	}
	ev.env.Set(e.Target.Name, val)
	return val, nil
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr) (Value, error) {
	span := e.Span
	ident, ok := e.Operand.(*ast.Identifier)
	if !ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EOperator,
			Message: fmt.Sprintf("'%s' needs a variable operand", e.Op),
			Span:    &span,
		}
	}

	val, ok := ev.env.Get(ident.Name)
	if !ok {
		return nil, undeclared(ident.Name, ident.Span)
	}
	num, ok := val.(Number)
	if !ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("'%s' requires a number variable, '%s' is %s", e.Op, ident.Name, TypeName(val)),
			Span:    &span,
		}
	}

	delta := 1.0
	if e.Op == ast.OpDecr {
		delta = -1
	}
	next := NewNumber(num.Value + delta)
	ev.env.Set(ident.Name, next)
	return next, nil
}

func (ev *evaluator) evalBinaryOp(e *ast.BinaryExpr) (Value, error) {
	left, err := ev.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	span := e.Span

	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		lNum, lOk := left.(Number)
		rNum, rOk := right.(Number)
		if !lOk || !rOk {
			return nil, &RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("'%s' requires two numbers, got %s and %s", e.Op, TypeName(left), TypeName(right)),
				Span:    &span,
			}
		}
		var result float64
		switch e.Op {
		case ast.OpAdd:
			result = lNum.Value + rNum.Value
		case ast.OpSub:
			result = lNum.Value - rNum.Value
		case ast.OpMul:
			result = lNum.Value * rNum.Value
		default:
			if rNum.Value == 0 {
				return nil, &RuntimeError{Code: diagnostics.EDivZero, Message: "division by zero", Span: &span}
			}
			result = lNum.Value / rNum.Value
		}
		if math.IsInf(result, 0) {
			return nil, &RuntimeError{
				Code:    diagnostics.EOverflow,
				Message: fmt.Sprintf("'%s' overflows the number range", e.Op),
				Span:    &span,
			}
		}
		return NewNumber(result), nil

	case ast.OpGt, ast.OpLt:
		if lNum, ok := left.(Number); ok {
			if rNum, ok := right.(Number); ok {
				if e.Op == ast.OpGt {
					return NewBool(lNum.Value > rNum.Value), nil
				}
				return NewBool(lNum.Value < rNum.Value), nil
			}
		}
		if lStr, ok := left.(String); ok {
			if rStr, ok := right.(String); ok {
				if e.Op == ast.OpGt {
					return NewBool(lStr.Value > rStr.Value), nil
				}
				return NewBool(lStr.Value < rStr.Value), nil
			}
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EOperator,
			Message: fmt.Sprintf("'%s' requires two numbers or two strings, got %s and %s", e.Op, TypeName(left), TypeName(right)),
			Span:    &span,
		}

	case ast.OpEq:
		if TypeName(left) != TypeName(right) {
			return nil, &RuntimeError{
				Code:    diagnostics.EOperator,
				Message: fmt.Sprintf("'=e' cannot compare %s with %s", TypeName(left), TypeName(right)),
				Span:    &span,
				Hint:    "use =i to test type and value together",
			}
		}
		return NewBool(Identical(left, right)), nil

	case ast.OpStrEq:
		lStr, lOk := left.(String)
		rStr, rOk := right.(String)
		if !lOk || !rOk {
			return nil, &RuntimeError{
				Code:    diagnostics.EOperator,
				Message: fmt.Sprintf("'=s' compares strings, got %s and %s", TypeName(left), TypeName(right)),
				Span:    &span,
				Hint:    "use =e for numbers and booleans",
			}
		}
		return NewBool(lStr.Value == rStr.Value), nil

	case ast.OpIdentical:
		return NewBool(Identical(left, right)), nil
	}

	return nil, &RuntimeError{
		Code:    diagnostics.EOperator,
		Message: fmt.Sprintf("unknown operator '%s'", e.Op),
		Span:    &span,
	}
}
