package models

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an omitted field from an explicit null in partial updates.
// Set is true when the field was provided; Null is true when it was provided as null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a provided, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Cleared returns a provided, explicitly null value.
func Cleared[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked when the key is present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON renders null for omitted or cleared values.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// HasValue reports whether a non-null value was provided.
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// Ptr returns nil for cleared values and a pointer to the value otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.HasValue() {
		return nil
	}
	v := o.Value
	return &v
}
