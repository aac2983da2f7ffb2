package directive

import (
	"encoding/json"
	"fmt"
	"os"
)

// Value is either a scalar string or an ordered list of strings. The zero
// Value is an empty scalar.
type Value struct {
	scalar string
	list   []string
	isList bool
}

// Scalar wraps a plain string value.
func Scalar(s string) Value {
	return Value{scalar: s}
}

// List wraps an ordered list value.
func List(items ...string) Value {
	return Value{list: items, isList: true}
}

// IsList reports whether the value is a list.
func (v Value) IsList() bool { return v.isList }

// Scalar returns the string for a scalar value, or "" for a list.
func (v Value) Scalar() string { return v.scalar }

// List returns the elements of a list value, or nil for a scalar.
func (v Value) List() []string { return v.list }

// Context is the external data a template is rendered against. It maps
// directive arguments (variable and loopover names) to values and is never
// mutated during a render.
type Context map[string]Value

// ParseContext decodes a JSON object whose values are each either a string
// or an array of strings. Any other value shape is rejected.
func ParseContext(data []byte) (Context, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("context is not a JSON object: %w", err)
	}

	ctx := make(Context, len(raw))
	for name, msg := range raw {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			ctx[name] = Scalar(s)
			continue
		}
		var list []string
		if err := json.Unmarshal(msg, &list); err == nil {
			ctx[name] = List(list...)
			continue
		}
		return nil, fmt.Errorf("context value %q must be a string or an array of strings", name)
	}
	return ctx, nil
}

// LoadContext reads and parses a JSON context file.
func LoadContext(path string) (Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}
	return ParseContext(data)
}
