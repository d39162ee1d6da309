package evaluator

import (
	"sort"

	"github.com/powlang/powlang/pkg/ast"
)

type binding struct {
	declared ast.DeclType
	value    Value
}

// Env is the single flat environment of a program execution. Loop and
// conditional bodies share it with the top level; there is no block scope.
type Env struct {
	bindings map[string]*binding
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{
		bindings: make(map[string]*binding),
	}
}

// Declare binds name with its declared type. It reports false, and leaves
// the environment untouched, when name is already bound.
func (e *Env) Declare(name string, declared ast.DeclType, val Value) bool {
	if _, ok := e.bindings[name]; ok {
		return false
	}
	e.bindings[name] = &binding{declared: declared, value: val}
	return true
}

// Get looks up a variable by name.
func (e *Env) Get(name string) (Value, bool) {
	b, ok := e.bindings[name]
	if !ok {
		return nil, false
	}
	return b.value, true
}

// DeclaredType returns the type a variable was declared with.
func (e *Env) DeclaredType(name string) (ast.DeclType, bool) {
	b, ok := e.bindings[name]
	if !ok {
		return "", false
	}
	return b.declared, true
}

// Set rebinds an existing variable. Callers check the declared type first.
func (e *Env) Set(name string, val Value) {
	if b, ok := e.bindings[name]; ok {
		b.value = val
	}
}

// Has checks whether a variable is declared.
func (e *Env) Has(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Len returns the number of declared variables.
func (e *Env) Len() int {
	return len(e.bindings)
}

// Snapshot copies the current bindings, sorted by name.
func (e *Env) Snapshot() Snapshot {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	snap := make(Snapshot, len(names))
	for i, name := range names {
		b := e.bindings[name]
		snap[i] = Binding{Name: name, Type: b.declared, Value: b.value}
	}
	return snap
}
