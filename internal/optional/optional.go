// Package optional carries patch fields that distinguish "absent", "explicit null"
// and "set to a value" when decoded from JSON.
package optional

import (
	"bytes"
	"encoding/json"
)

var null = []byte("null")

// Value is a three-state JSON field. The zero Value is absent.
type Value[T any] struct {
	set   bool
	null  bool
	value T
}

// Some returns a Value set to v.
func Some[T any](v T) Value[T] {
	return Value[T]{set: true, value: v}
}

// Null returns a Value that was present in the payload as null.
func Null[T any]() Value[T] {
	return Value[T]{set: true, null: true}
}

// IsSet reports whether the field appeared in the payload at all.
func (v Value[T]) IsSet() bool { return v.set }

// IsNull reports whether the field appeared as an explicit null.
func (v Value[T]) IsNull() bool { return v.set && v.null }

// HasValue reports whether the field carries a concrete value.
func (v Value[T]) HasValue() bool { return v.set && !v.null }

// Get returns the carried value and whether there is one.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.HasValue()
}

// Apply overwrites *dst only when v carries a concrete value.
func (v Value[T]) Apply(dst *T) {
	if v.HasValue() {
		*dst = v.value
	}
}

// ApplyPtr is Apply for nullable destinations. Null does not clear *dst.
func (v Value[T]) ApplyPtr(dst **T) {
	if v.HasValue() {
		val := v.value
		*dst = &val
	}
}

func (v *Value[T]) UnmarshalJSON(b []byte) error {
	v.set = true
	if bytes.Equal(bytes.TrimSpace(b), null) {
		v.null = true
		var zero T
		v.value = zero
		return nil
	}
	v.null = false
	return json.Unmarshal(b, &v.value)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.HasValue() {
		return null, nil
	}
	return json.Marshal(v.value)
}

// Underlying exposes the carried value to reflection-based validators.
// It returns nil unless the field is set to a concrete value.
func (v Value[T]) Underlying() any {
	if !v.HasValue() {
		return nil
	}
	return v.value
}
