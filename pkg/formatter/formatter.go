// Package formatter implements the PowLang source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/powlang/powlang/pkg/ast"
)

const indent = "  "

// Binding strength of each expression form, loosest first.
const (
	precAssign = iota + 1
	precTernary
	precComparison
	precAdditive
	precMultiplicative
	precPostfix
	precAtom
)

var binaryPrecedence = map[ast.BinaryOp]int{
	ast.OpEq: precComparison, ast.OpStrEq: precComparison, ast.OpIdentical: precComparison,
	ast.OpGt: precComparison, ast.OpLt: precComparison,
	ast.OpAdd: precAdditive, ast.OpSub: precAdditive,
	ast.OpMul: precMultiplicative, ast.OpDiv: precMultiplicative,
}

// Format pretty-prints a PowLang AST back to source code. Comments are
// not part of the AST and are therefore dropped.
func Format(program *ast.Program) string {
	lines := make([]string, len(program.Statements))
	for i, s := range program.Statements {
		lines[i] = formatStmt(s, 0)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains PowLang comments (# prefix).
func HasComments(source string) bool {
	inString := false
	escaped := false
	for i := 0; i < len(source); i++ {
		ch := source[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '#':
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.VarDecl:
		return prefix + "define " + string(stmt.Type) + " " + stmt.Name + " as " + formatExpr(stmt.Init, precAssign)
	case *ast.ShowStmt:
		args := make([]string, len(stmt.Args))
		for i, a := range stmt.Args {
			args[i] = formatExpr(a, precAssign)
		}
		return prefix + "show(" + strings.Join(args, ", ") + ")"
	case *ast.WhenStmt:
		return prefix + "when " + formatExpr(stmt.Cond, precAssign) +
			" :: " + formatExpr(stmt.Step, precAssign) +
			" => " + formatBlock(stmt.Body, depth)
	case *ast.AlaStmt:
		out := prefix + "ala " + formatExpr(stmt.Cond, precAssign) + " -> " + formatBlock(stmt.Then, depth)
		if stmt.Else != nil {
			out += " otw -> " + formatBlock(stmt.Else, depth)
		}
		return out
	case *ast.ExprStmt:
		return prefix + formatExpr(stmt.Expr, precAssign)
	}
	return ""
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{ }"
	}
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

// formatExpr renders e, parenthesized when it binds looser than min.
func formatExpr(e ast.Expr, min int) string {
	out, prec := render(e)
	if prec < min {
		return "(" + out + ")"
	}
	return out
}

func render(e ast.Expr) (string, int) {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		return strconv.FormatFloat(expr.Value, 'f', -1, 64), precAtom
	case *ast.StringLiteral:
		return quote(expr.Value), precAtom
	case *ast.BoolLiteral:
		if expr.Value {
			return "true", precAtom
		}
		return "false", precAtom
	case *ast.Identifier:
		return expr.Name, precAtom
	case *ast.TypeExpr:
		return "type(" + formatExpr(expr.Operand, precAssign) + ")", precAtom
	case *ast.UnaryExpr:
		return formatExpr(expr.Operand, precPostfix) + string(expr.Op), precPostfix
	case *ast.BinaryExpr:
		prec := binaryPrecedence[expr.Op]
		// Left associative: an equal-precedence right operand needs parens.
		return formatExpr(expr.Left, prec) + " " + string(expr.Op) + " " + formatExpr(expr.Right, prec+1), prec
	case *ast.TernaryExpr:
		return formatExpr(expr.Cond, precComparison) + " ? " +
			formatExpr(expr.IfTrue, precTernary) + " : " +
			formatExpr(expr.IfFalse, precTernary), precTernary
	case *ast.AssignExpr:
		return expr.Target.Name + " = " + formatExpr(expr.Value, precAssign), precAssign
	}
	return "", precAtom
}

// quote writes s as a string literal using only the escapes the lexer decodes.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
