package evaluator

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/powlang/powlang/pkg/ast"
)

// Binding is one variable in an environment snapshot.
type Binding struct {
	Name  string
	Type  ast.DeclType
	Value Value
}

// Snapshot is a point-in-time copy of the environment, sorted by name.
type Snapshot []Binding

// ValueToJSON marshals a Value to JSON bytes.
func ValueToJSON(v Value) ([]byte, error) {
	return sonic.Marshal(valueToRaw(v))
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Number:
		return val.Value
	case String:
		return val.Value
	case Bool:
		return val.Value
	}
	return nil
}

// MarshalJSON renders the snapshot as an object whose keys keep the
// snapshot's sorted order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("{}"), nil
	}

	buf := []byte{'{'}
	for i, b := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := sonic.Marshal(b.Name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		valBytes, err := ValueToJSON(b.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// String renders the snapshot as `name=value` pairs with strings quoted.
func (s Snapshot) String() string {
	parts := make([]string, len(s))
	for i, b := range s {
		val := Render(b.Value)
		if _, ok := b.Value.(String); ok {
			val = strconv.Quote(val)
		}
		parts[i] = b.Name + "=" + val
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Lookup returns the value bound to name in the snapshot.
func (s Snapshot) Lookup(name string) (Value, bool) {
	for _, b := range s {
		if b.Name == name {
			return b.Value, true
		}
	}
	return nil, false
}
