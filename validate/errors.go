// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"fmt"
)

// Message kinds. Every Message unwraps to exactly one of these.
var (
	// ErrTypeCoercion indicates a label or value that the type registry
	// could not coerce.
	ErrTypeCoercion = errors.New("validate: type coercion failed")

	// ErrStructuralShape indicates a value whose nesting depth differs from
	// the parameter's number_dims.
	ErrStructuralShape = errors.New("validate: wrong value shape")

	// ErrRangeViolation indicates a value outside a range or date_range bound.
	ErrRangeViolation = errors.New("validate: value out of range")

	// ErrChoiceViolation indicates a value outside the allowed choices.
	ErrChoiceViolation = errors.New("validate: value not in choices")

	// ErrUnknownLabel indicates a candidate label the schema does not declare.
	ErrUnknownLabel = errors.New("validate: unknown label")

	// ErrUnknownParameter indicates an adjustment for an undeclared parameter.
	ErrUnknownParameter = errors.New("validate: unknown parameter")

	// ErrUnresolvedSchema indicates a schema used before Resolve.
	ErrUnresolvedSchema = errors.New("validate: schema is not resolved")
)

// Message is one validation failure.
type Message struct {
	Kind  error
	Param string
	Text  string
	// Labels are the candidate's labels, coerced where possible.
	Labels map[string]any
	// Cause is the underlying error, e.g. a *registry.CoercionError.
	Cause error
}

// Error implements error; it returns Text.
func (m Message) Error() string { return m.Text }

// Unwrap exposes Kind and Cause to errors.Is and errors.As.
func (m Message) Unwrap() []error {
	if m.Cause == nil {
		return []error{m.Kind}
	}

	return []error{m.Kind, m.Cause}
}

func newMessage(kind error, param string, labels map[string]any, format string, args ...any) Message {
	return Message{Kind: kind, Param: param, Labels: labels, Text: fmt.Sprintf(format, args...)}
}
