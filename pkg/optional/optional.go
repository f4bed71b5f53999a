// Package optional provides a JSON field wrapper that tells an absent key
// apart from an explicit null, for partial-update request bodies.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is one field of a patch. Set is true when the key was present in
// the request body; Null is true when its value was JSON null.
type Value[T any] struct {
	Set  bool
	Null bool
	V    T
}

// Of returns a present, non-null value.
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, V: v}
}

// Null returns a present null value.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

func (o *Value[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.V = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.V)
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

// Present reports whether the field carries a non-null value.
func (o Value[T]) Present() bool {
	return o.Set && !o.Null
}

// Apply overwrites dst when the field carries a non-null value.
func (o Value[T]) Apply(dst *T) {
	if o.Present() {
		*dst = o.V
	}
}

// ApplyPtr handles nullable columns: a present value is stored, an explicit
// null clears dst, an absent field leaves it alone.
func (o Value[T]) ApplyPtr(dst **T) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = nil
		return
	}
	v := o.V
	*dst = &v
}
