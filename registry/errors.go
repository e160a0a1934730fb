// SPDX-License-Identifier: MIT

package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
// Match with errors.Is; wrap with fmt.Errorf("ctx: %w", ErrX) for context.
var (
	// ErrTypeCoercion indicates a raw value could not be coerced to the requested type.
	ErrTypeCoercion = errors.New("registry: type coercion failed")

	// ErrUnknownType indicates a type name that was never registered.
	ErrUnknownType = errors.New("registry: unknown type")

	// ErrDuplicateType indicates an attempt to register a name twice
	// (built-in names included).
	ErrDuplicateType = errors.New("registry: type already registered")

	// ErrFrozen indicates a registration after Freeze.
	ErrFrozen = errors.New("registry: registry is frozen")

	// ErrPartialType indicates a partial type was used before Finalize.
	ErrPartialType = errors.New("registry: partial type must be finalized")

	// ErrIncomparable indicates two values have no defined order.
	ErrIncomparable = errors.New("registry: values are not comparable")
)

// CoercionError describes a single failed coercion. Msg is the user-facing
// message ("Not a valid integer: 2.5.").
type CoercionError struct {
	Type string
	Raw  any
	Msg  string
}

// Error implements error.
func (e *CoercionError) Error() string { return e.Msg }

// Unwrap exposes ErrTypeCoercion to errors.Is.
func (e *CoercionError) Unwrap() error { return ErrTypeCoercion }

// coercionErrorf builds a CoercionError with the canonical message for kind k.
func coercionErrorf(typeName string, raw any) *CoercionError {
	noun := typeName
	switch typeName {
	case "int":
		noun = "integer"
	case "float":
		noun = "number"
	case "bool":
		noun = "boolean"
	case "str":
		noun = "string"
	}

	return &CoercionError{
		Type: typeName,
		Raw:  raw,
		Msg:  fmt.Sprintf("Not a valid %s: %v.", noun, raw),
	}
}
