// Package wamas encodes and decodes WAMAS fixed-width records, as
// exchanged with warehouse management systems. A record is a sequence
// of fields laid out by a Grammar, with no delimiters and no escaping.
package wamas

import (
	"errors"
	"fmt"
)

var (
	ErrFieldOverflow  = errors.New("formatted value exceeds field length")
	ErrMissingField   = errors.New("no value for field")
	ErrInvalidValue   = errors.New("invalid value for field type")
	ErrRecordLength   = errors.New("record length does not match grammar")
	ErrInvalidGrammar = errors.New("invalid grammar")
	ErrUnknownGrammar = errors.New("unknown grammar")
	ErrUnknownType    = errors.New("unknown field type")
)

// FieldOverflowError is returned when a formatted value is longer than
// its field. Values are never truncated.
type FieldOverflowError struct {
	Field  string
	Length int
	Value  string
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf(
		"field '%s': %s (length %d, got %q)",
		e.Field, ErrFieldOverflow, e.Length, e.Value,
	)
}

func (e *FieldOverflowError) Unwrap() error {
	return ErrFieldOverflow
}

// MissingFieldError is returned when a field has no value, no default
// function and no default value, or when its default function is not
// registered
type MissingFieldError struct {
	Field string
	Func  string
}

func (e *MissingFieldError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf(
			"field '%s': %s (default function '%s' not registered)",
			e.Field, ErrMissingField, e.Func,
		)
	}
	return fmt.Sprintf("field '%s': %s", e.Field, ErrMissingField)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// Type is the type of a grammar field, which decides how its value is
// formatted
type Type uint

const (
	Str Type = iota
	Int
	Float
	Datetime
	Bool
)

var typeNames = [...]string{"str", "int", "float", "datetime", "bool"}

func (t Type) String() string {
	if int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", uint(t))
	}
	return typeNames[t]
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	for ind, name := range typeNames {
		if name == string(b) {
			*t = Type(ind)
			return nil
		}
	}
	return fmt.Errorf("%w: '%s'", ErrUnknownType, b)
}
