// Package validator implements static checking of PowLang programs.
//
// The checks predict runtime failures that are visible without running the
// program: use before declaration, duplicate declarations, and operand or
// initializer types that can be inferred from the source alone. Unlike the
// evaluator it reports every problem it finds, in source order.
package validator

import (
	"fmt"
	"maps"

	"github.com/powlang/powlang/pkg/ast"
	"github.com/powlang/powlang/pkg/diagnostics"
)

type validator struct {
	diags    []diagnostics.Diagnostic
	declared map[string]ast.DeclType
	// maybe holds names defined on only one branch of an ala. Using them is
	// not reported and neither is defining them again. An empty type means
	// the branches disagree.
	maybe map[string]ast.DeclType
	// loopDepth counts the when bodies enclosing the current statement.
	loopDepth int
}

// Validate performs static analysis on a program and returns diagnostics.
// A nil result means no problem was found.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{
		declared: make(map[string]ast.DeclType),
		maybe:    make(map[string]ast.DeclType),
	}
	v.validateStatements(program.Statements)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) validateStatements(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		v.validateStmt(stmt)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		initType, known := v.inferExpr(s.Init)
		if _, dup := v.declared[s.Name]; dup {
			v.addDiag(diagnostics.ERedeclared,
				fmt.Sprintf("variable '%s' is already declared", s.Name), s.Span,
				fmt.Sprintf("assign to it with %s = ... instead of defining it again", s.Name))
			return
		}
		if known && initType != s.Type {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("cannot initialize %s variable '%s' with a %s value", s.Type, s.Name, initType), s.Span, "")
		}
		if v.loopDepth > 0 {
			v.addDiag(diagnostics.ERedeclared,
				fmt.Sprintf("variable '%s' is defined inside a when loop and is redeclared on its second iteration", s.Name), s.Span,
				"define it before the loop")
		}
		v.declared[s.Name] = s.Type
		delete(v.maybe, s.Name)

	case *ast.ShowStmt:
		for _, arg := range s.Args {
			v.inferExpr(arg)
		}

	case *ast.WhenStmt:
		v.inferExpr(s.Cond)
		v.inferExpr(s.Step)
		v.loopDepth++
		v.validateStatements(s.Body)
		v.loopDepth--

	case *ast.AlaStmt:
		v.inferExpr(s.Cond)
		before := v.declared
		v.declared = maps.Clone(before)
		v.validateStatements(s.Then)
		thenDeclared := v.declared
		v.declared = maps.Clone(before)
		v.validateStatements(s.Else)
		v.declared = v.mergeBranches(before, thenDeclared, v.declared)

	case *ast.ExprStmt:
		v.inferExpr(s.Expr)
	}
}

// inferExpr checks an expression and returns its static type when it can be
// determined.
func (v *validator) inferExpr(expr ast.Expr) (ast.DeclType, bool) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return ast.TypeNumber, true

	case *ast.StringLiteral:
		return ast.TypeString, true

	case *ast.BoolLiteral:
		return ast.TypeBoolean, true

	case *ast.Identifier:
		typ, ok := v.lookup(e.Name)
		if !ok {
			v.undeclared(e.Name, e.Span)
			return "", false
		}
		return typ, typ != ""

	case *ast.BinaryExpr:
		return v.inferBinary(e)

	case *ast.UnaryExpr:
		ident, ok := e.Operand.(*ast.Identifier)
		if !ok {
			v.inferExpr(e.Operand)
			v.addDiag(diagnostics.EOperator, fmt.Sprintf("'%s' needs a variable operand", e.Op), e.Span, "")
			return ast.TypeNumber, true
		}
		typ, ok := v.lookup(ident.Name)
		if !ok {
			v.undeclared(ident.Name, ident.Span)
		} else if typ != "" && typ != ast.TypeNumber {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("'%s' requires a number variable, '%s' is %s", e.Op, ident.Name, typ), e.Span, "")
		}
		return ast.TypeNumber, true

	case *ast.TernaryExpr:
		v.inferExpr(e.Cond)
		tTrue, okTrue := v.inferExpr(e.IfTrue)
		tFalse, okFalse := v.inferExpr(e.IfFalse)
		if okTrue && okFalse && tTrue == tFalse {
			return tTrue, true
		}
		return "", false

	case *ast.AssignExpr:
		valType, known := v.inferExpr(e.Value)
		declared, ok := v.lookup(e.Target.Name)
		if !ok {
			v.undeclared(e.Target.Name, e.Target.Span)
			return valType, known
		}
		if declared == "" {
			return valType, known
		}
		if known && valType != declared {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("cannot assign a %s value to %s variable '%s'", valType, declared, e.Target.Name), e.Span, "")
		}
		return declared, true

	case *ast.TypeExpr:
		v.inferExpr(e.Operand)
		return ast.TypeString, true
	}
	return "", false
}

func (v *validator) inferBinary(e *ast.BinaryExpr) (ast.DeclType, bool) {
	lt, lok := v.inferExpr(e.Left)
	rt, rok := v.inferExpr(e.Right)

	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		if (lok && lt != ast.TypeNumber) || (rok && rt != ast.TypeNumber) {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("'%s' requires two numbers", e.Op), e.Span, "")
		}
		if lit, ok := e.Right.(*ast.NumberLiteral); ok && e.Op == ast.OpDiv && lit.Value == 0 {
			v.addDiag(diagnostics.EDivZero, "division by zero", e.Span, "")
		}
		return ast.TypeNumber, true

	case ast.OpGt, ast.OpLt:
		bothKnown := lok && rok
		if bothKnown && (lt != rt || lt == ast.TypeBoolean) {
			v.addDiag(diagnostics.EOperator,
				fmt.Sprintf("'%s' requires two numbers or two strings, got %s and %s", e.Op, lt, rt), e.Span, "")
		}
		return ast.TypeBoolean, true

	case ast.OpEq:
		if lok && rok && lt != rt {
			v.addDiag(diagnostics.EOperator,
				fmt.Sprintf("'=e' cannot compare %s with %s", lt, rt), e.Span,
				"use =i to test type and value together")
		}
		return ast.TypeBoolean, true

	case ast.OpStrEq:
		if (lok && lt != ast.TypeString) || (rok && rt != ast.TypeString) {
			v.addDiag(diagnostics.EOperator, "'=s' compares strings", e.Span, "use =e for numbers and booleans")
		}
		return ast.TypeBoolean, true

	case ast.OpIdentical:
		return ast.TypeBoolean, true
	}
	return "", false
}

// lookup finds a name defined on every path so far or on some branch.
func (v *validator) lookup(name string) (ast.DeclType, bool) {
	if typ, ok := v.declared[name]; ok {
		return typ, true
	}
	typ, ok := v.maybe[name]
	return typ, ok
}

// mergeBranches returns the names defined after an ala: those defined before
// it plus those both branches define with the same type. Names only one
// branch defines move to maybe.
func (v *validator) mergeBranches(before, thenDeclared, elseDeclared map[string]ast.DeclType) map[string]ast.DeclType {
	merged := maps.Clone(before)
	for name, typ := range thenDeclared {
		if _, ok := before[name]; ok {
			continue
		}
		other, inElse := elseDeclared[name]
		switch {
		case inElse && other == typ:
			merged[name] = typ
		case inElse:
			v.maybe[name] = ""
		default:
			v.maybe[name] = typ
		}
	}
	for name, typ := range elseDeclared {
		if _, ok := before[name]; ok {
			continue
		}
		if _, ok := thenDeclared[name]; !ok {
			v.maybe[name] = typ
		}
	}
	return merged
}

func (v *validator) undeclared(name string, span ast.Span) {
	v.addDiag(diagnostics.EUndeclared,
		fmt.Sprintf("undeclared identifier '%s'", name), span,
		fmt.Sprintf("declare it first, e.g. define number %s as 0", name))
}
