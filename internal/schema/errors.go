package schema

import (
	"fmt"
	"strings"
)

const rootField = "(root)"

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// TypeMismatchError is returned when a value does not satisfy its declaration.
type TypeMismatchError struct {
	Schema string
	Fields []FieldError
}

func (e *TypeMismatchError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s does not match schema:", e.Schema))
	for i, f := range e.Fields {
		sb.WriteString(fmt.Sprintf(" %d. %s: %s;", i+1, f.Field, f.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// LoadError represents errors compiling the declaration itself
type LoadError struct {
	Schema string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to compile schema %s: %v", e.Schema, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
