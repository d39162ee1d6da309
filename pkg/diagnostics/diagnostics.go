// Package diagnostics defines PowLang diagnostic types for lex, parse and runtime errors.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/powlang/powlang/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex        = "E_LEX"
	EParse      = "E_PARSE"
	EType       = "E_TYPE"
	EUndeclared = "E_UNDECLARED"
	ERedeclared = "E_REDECLARED"
	EDivZero    = "E_DIV_ZERO"
	EOperator   = "E_OPERATOR"
	EBudget     = "E_BUDGET"
	EOverflow   = "E_OVERFLOW"
	ECanceled   = "E_CANCELED"
	EIO         = "E_IO"
)

// Stage names the pipeline stage an error is attributed to.
type Stage string

const (
	StageLex      Stage = "lex"
	StageParse    Stage = "parse"
	StageEvaluate Stage = "evaluate"
)

// StageOf maps a diagnostic code to the stage that produces it.
func StageOf(code string) Stage {
	switch code {
	case ELex:
		return StageLex
	case EParse:
		return StageParse
	default:
		return StageEvaluate
	}
}

// Diagnostic represents a lex, parse, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Location renders the diagnostic position as line:col, or "<unknown>".
func (d Diagnostic) Location() string {
	if d.Span == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d", d.Span.StartLine, d.Span.StartCol)
}

// Summary is the one-line form used by the HTTP boundary:
// "<stage> error at <line>:<col>: <message>".
func Summary(d Diagnostic) string {
	return fmt.Sprintf("%s error at %s: %s", StageOf(d.Code), d.Location(), d.Message)
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := sonic.Marshal(d)
		return string(b)
	}
	loc := d.Location()
	if d.Span != nil && d.Span.File != "" {
		loc = d.Span.File + ":" + loc
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		if diags == nil {
			diags = []Diagnostic{}
		}
		b, _ := sonic.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
