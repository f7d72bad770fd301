package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Optional records whether a JSON field was present, and whether it was an
// explicit null, in addition to its value.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null returns an Optional that is present but explicitly null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only called for keys present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	err := json.Unmarshal(data, &o.Value)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		// The offset is relative to data, not to the enclosing document.
		typeErr.Offset = 0
	}
	return err
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
