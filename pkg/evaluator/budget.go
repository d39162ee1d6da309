package evaluator

import (
	"fmt"

	"github.com/powlang/powlang/pkg/ast"
	"github.com/powlang/powlang/pkg/diagnostics"
)

// Budget holds the resource limits for a program execution.
// A zero MaxIterations means loops are unbounded.
type Budget struct {
	MaxIterations int64
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	Iterations int64
}

// tick charges one loop iteration against the budget. The count is shared
// by every when loop in the program, nested ones included. It also stops the
// run once the caller's context is done.
func (ev *evaluator) tick(span ast.Span) error {
	if ctx := ev.opts.Context; ctx != nil {
		if err := ctx.Err(); err != nil {
			return &RuntimeError{
				Code:    diagnostics.ECanceled,
				Message: fmt.Sprintf("run canceled: %v", err),
				Span:    &span,
			}
		}
	}
	ev.tracker.Iterations++
	if ev.budget.MaxIterations > 0 && ev.tracker.Iterations > ev.budget.MaxIterations {
		ev.emit(TraceBudgetExceeded, &span)
		return &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("loop iteration budget exceeded (max %d)", ev.budget.MaxIterations),
			Span:    &span,
			Hint:    "check that the loop condition eventually becomes false",
		}
	}
	return nil
}
