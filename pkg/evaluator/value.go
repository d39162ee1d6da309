// Package evaluator implements the PowLang tree-walking evaluator.
package evaluator

import (
	"strconv"

	"github.com/powlang/powlang/pkg/ast"
)

// Value is the interface for all PowLang runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	powValue() // sealed marker
}

// Number represents a numeric value.
type Number struct {
	Value float64
}

func (Number) powValue() {}

// String represents a string value.
type String struct {
	Value string
}

func (String) powValue() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) powValue() {}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// Truthiness returns the boolean interpretation of a value.
// false, 0, and "" are falsy; everything else is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return val.Value
	case Number:
		return val.Value != 0
	case String:
		return val.Value != ""
	default:
		return false
	}
}

// TypeName returns the declared-type spelling of a value's type.
func TypeName(v Value) ast.DeclType {
	switch v.(type) {
	case Number:
		return ast.TypeNumber
	case String:
		return ast.TypeString
	case Bool:
		return ast.TypeBoolean
	default:
		return "unknown"
	}
}

// Render converts a value to the text show prints: shortest decimal form
// for numbers, true/false for booleans, strings unquoted.
func Render(v Value) string {
	switch val := v.(type) {
	case Number:
		if val.Value == 0 {
			return "0"
		}
		return strconv.FormatFloat(val.Value, 'f', -1, 64)
	case String:
		return val.Value
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Identical reports whether a and b share both type and value.
func Identical(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}
