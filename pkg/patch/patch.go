// Package patch provides tri-state JSON fields for partial updates.
// A PATCH body must distinguish a field that is absent (leave the stored
// value untouched), explicitly null (clear it), and present with a value.
package patch

import "encoding/json"

// Field is a JSON value that records whether the key appeared in the
// request body and whether it was an explicit null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON is only invoked for keys present in the body, so Set
// flags presence and Null flags an explicit JSON null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

// Valid reports whether the field carries a usable value
func (f Field[T]) Valid() bool {
	return f.Set && !f.Null
}
